package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StaffStore interface {
	UserStore
	ListByRole(ctx context.Context, kind role.Kind, limit, offset int) ([]user.User, int, error)
}

// StaffHandler manages users that hold one of the fixed roles. Every route is
// behind a permission guard; the handler only checks the target's role.
type StaffHandler struct {
	users   StaffStore
	tokens  TokenService
	timeout time.Duration
}

func NewStaffHandler(users StaffStore, tokens TokenService) *StaffHandler {
	return &StaffHandler{
		users:   users,
		tokens:  tokens,
		timeout: 3 * time.Second,
	}
}

// POST /staff/lab-admins
func (h *StaffHandler) CreateLabAdmin(ctx *gin.Context) {
	h.create(ctx, role.Administrator)
}

// PATCH /staff/lab-admins/:id
func (h *StaffHandler) UpdateLabAdmin(ctx *gin.Context) {
	h.update(ctx, role.Administrator)
}

// POST /staff/assistants
func (h *StaffHandler) CreateAssistant(ctx *gin.Context) {
	h.create(ctx, role.Assistant)
}

// PATCH /staff/assistants/:id
func (h *StaffHandler) UpdateAssistant(ctx *gin.Context) {
	h.update(ctx, role.Assistant)
}

// GET /staff/assistants?limit=20&offset=0
func (h *StaffHandler) ListAssistants(ctx *gin.Context) {
	limit, offset, err := utils.ParsePage(ctx.Query("limit"), ctx.Query("offset"))
	if err != nil {
		respondPageError(ctx, err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	items, total, err := h.users.ListByRole(cctx, role.Assistant, limit, offset)
	if err != nil {
		RespondInternal(ctx, "Could not list assistants")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":  items,
		"count":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// POST /staff/assistants/:id/deactivate
func (h *StaffHandler) DeactivateAssistant(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	target, ok := h.target(cctx, ctx, role.Assistant)
	if !ok {
		return
	}

	inactive := false
	u, err := h.users.Update(cctx, target.ID, user.Changes{IsActive: &inactive})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Assistant not found")
			return
		}
		RespondInternal(ctx, "Could not deactivate assistant")
		return
	}

	// the cached principal still says active until its entry is gone
	if err := h.tokens.RevokeUser(cctx, u.ID); err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "revoke token of deactivated user failed", "err", err, "target_id", u.ID)
		RespondInternal(ctx, "Could not revoke assistant token")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *StaffHandler) create(ctx *gin.Context, kind role.Kind) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		RespondFieldErrors(ctx, "Invalid request body", FieldError{Field: "name", Rule: "required", Message: "is required"})
		return
	}

	hash, ok := hashPassword(ctx, req.Password)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.Create(cctx, user.NewUser{
		Email:        user.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         name,
		Role:         kind,
	})

	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondFieldErrors(ctx, "Invalid request body", emailTaken)
		case errors.Is(err, role.ErrNotFound):
			slog.Default().ErrorContext(ctx.Request.Context(), "role missing, bootstrap did not run", "role", kind.Name())
			RespondInternal(ctx, "Role is not configured")
		default:
			slog.Default().ErrorContext(ctx.Request.Context(), "create staff user failed", "err", err, "role", kind.Name())
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *StaffHandler) update(ctx *gin.Context, kind role.Kind) {
	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	changes, ok := profileChanges(ctx, req)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	target, ok := h.target(cctx, ctx, kind)
	if !ok {
		return
	}

	u, err := h.users.Update(cctx, target.ID, changes)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondFieldErrors(ctx, "Invalid request body", emailTaken)
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	if !changes.Empty() {
		if err := h.tokens.Forget(cctx, u.ID); err != nil {
			slog.Default().WarnContext(ctx.Request.Context(), "drop cached principal failed", "err", err, "target_id", u.ID)
		}
	}

	ctx.JSON(http.StatusOK, u)
}

// target loads the :id user and insists it holds kind. Anything else is a 404.
func (h *StaffHandler) target(cctx context.Context, ctx *gin.Context, kind role.Kind) (user.User, bool) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondNotFound(ctx, "User not found")
		return user.User{}, false
	}

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return user.User{}, false
		}
		RespondInternal(ctx, "Could not load user")
		return user.User{}, false
	}

	if !u.HasRole(kind) {
		RespondNotFound(ctx, "User not found")
		return user.User{}, false
	}

	return u, true
}

func respondPageError(ctx *gin.Context, err error) {
	var pe *utils.PageError
	if errors.As(err, &pe) {
		RespondFieldErrors(ctx, "Invalid query", FieldError{Field: pe.Field, Rule: "range", Message: pe.Message})
		return
	}
	RespondBadRequest(ctx, "Invalid query", nil)
}
