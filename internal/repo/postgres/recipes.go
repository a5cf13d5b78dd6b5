package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/labhub/internal/domain/recipe"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recipeColumns = `id, user_id, title, description, time_minutes, price, link, created_at, updated_at`

// RecipesRepo scopes every statement to the owning user. A recipe of another
// owner looks exactly like a missing one.
type RecipesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRecipesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RecipesRepo {
	return &RecipesRepo{pool: pool, prom: prom}
}

func (r *RecipesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanRecipe(row pgx.Row) (recipe.Recipe, error) {
	var rc recipe.Recipe
	err := row.Scan(
		&rc.ID,
		&rc.UserID,
		&rc.Title,
		&rc.Description,
		&rc.TimeMinutes,
		&rc.Price,
		&rc.Link,
		&rc.CreatedAt,
		&rc.UpdatedAt,
	)
	return rc, err
}

func (r *RecipesRepo) Create(ctx context.Context, rc recipe.Recipe) (recipe.Recipe, error) {
	var out recipe.Recipe

	err := r.observe("recipes.create", func() error {
		var err error
		out, err = scanRecipe(r.pool.QueryRow(ctx, `
			INSERT INTO recipes (`+recipeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+recipeColumns,
			rc.ID, rc.UserID, rc.Title, rc.Description, rc.TimeMinutes, rc.Price, rc.Link, rc.CreatedAt, rc.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("insert recipe: %w", err)
	}

	return out, nil
}

func (r *RecipesRepo) List(ctx context.Context, ownerID string, f recipe.ListFilter) ([]recipe.Recipe, int, error) {
	stmt := sq.Select(recipeColumns, "COUNT(*) OVER() AS total").
		From("recipes").
		Where(sq.Eq{"user_id": ownerID}).
		PlaceholderFormat(sq.Dollar)

	stmt = applyRecipeFilter(stmt, f).
		OrderBy("created_at DESC", "id ASC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, 0, err
	}

	out := make([]recipe.Recipe, 0, f.Limit)
	total := 0

	err = r.observe("recipes.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rc recipe.Recipe
			var t int

			err = rows.Scan(
				&rc.ID, &rc.UserID, &rc.Title, &rc.Description, &rc.TimeMinutes,
				&rc.Price, &rc.Link, &rc.CreatedAt, &rc.UpdatedAt, &t,
			)
			if err != nil {
				return err
			}

			total = t
			out = append(out, rc)
		}

		return rows.Err()
	})

	if err != nil {
		if isInvalidText(err) {
			return []recipe.Recipe{}, 0, nil
		}
		return nil, 0, err
	}

	return out, total, nil
}

func applyRecipeFilter(stmt sq.SelectBuilder, f recipe.ListFilter) sq.SelectBuilder {
	if f.Query != nil && *f.Query != "" {
		stmt = stmt.Where(sq.ILike{"title": "%" + escapeLike(*f.Query) + "%"})
	}

	return stmt
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *RecipesRepo) GetByID(ctx context.Context, ownerID, id string) (recipe.Recipe, error) {
	var out recipe.Recipe

	err := r.observe("recipes.get_by_id", func() error {
		var err error
		out, err = scanRecipe(r.pool.QueryRow(ctx,
			`SELECT `+recipeColumns+` FROM recipes WHERE id = $1 AND user_id = $2`,
			id, ownerID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, err
	}

	return out, nil
}

// Update applies the non-nil fields of req; an empty request reads the row.
func (r *RecipesRepo) Update(ctx context.Context, ownerID, id string, req recipe.UpdateRecipeRequest) (recipe.Recipe, error) {
	if req.Empty() {
		return r.GetByID(ctx, ownerID, id)
	}

	set := map[string]any{}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.TimeMinutes != nil {
		set["time_minutes"] = *req.TimeMinutes
	}
	if req.Price != nil {
		set["price"] = req.Price.Round(2)
	}
	if req.Link != nil {
		set["link"] = *req.Link
	}

	query, args, err := sq.Update("recipes").
		SetMap(set).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		Suffix("RETURNING " + recipeColumns).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return recipe.Recipe{}, err
	}

	var out recipe.Recipe
	err = r.observe("recipes.update", func() error {
		var err error
		out, err = scanRecipe(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, fmt.Errorf("update recipe: %w", err)
	}

	return out, nil
}

func (r *RecipesRepo) Delete(ctx context.Context, ownerID, id string) error {
	var affected int64

	err := r.observe("recipes.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		if isInvalidText(err) {
			return recipe.ErrNotFound
		}
		return err
	}

	if affected == 0 {
		return recipe.ErrNotFound
	}

	return nil
}
