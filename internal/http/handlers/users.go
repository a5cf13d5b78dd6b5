package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/labhub/internal/actorctx"
	"github.com/geocoder89/labhub/internal/auth"
	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, c user.Changes) (user.User, error)
}

// TokenService is the slice of the auth gateway the HTTP layer needs.
type TokenService interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	RevokeUser(ctx context.Context, userID string) error
	Forget(ctx context.Context, userID string) error
}

type UsersHandler struct {
	users   UserStore
	tokens  TokenService
	timeout time.Duration
}

func NewUsersHandler(users UserStore, tokens TokenService) *UsersHandler {
	return &UsersHandler{
		users:   users,
		tokens:  tokens,
		timeout: 3 * time.Second,
	}
}

var emailTaken = FieldError{
	Field:   "email",
	Rule:    "unique",
	Message: "user with this email already exists",
}

// Create is POST /user/create. Anyone may sign up; new users get no role.
func (h *UsersHandler) Create(ctx *gin.Context) {
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
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondFieldErrors(ctx, "Invalid request body", emailTaken)
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.Profile())
}

// Token is POST /user/token. Failures never carry a token key.
func (h *UsersHandler) Token(ctx *gin.Context) {
	var req user.TokenRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	token, err := h.tokens.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(ctx, http.StatusBadRequest, "invalid_credentials", "Unable to log in with provided credentials.", nil)
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "issue token failed", "err", err)
		RespondInternal(ctx, "Could not issue token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// RevokeToken is DELETE /user/token: the caller's token stops working.
func (h *UsersHandler) RevokeToken(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.tokens.RevokeUser(cctx, p.UserID); err != nil {
		RespondInternal(ctx, "Could not revoke token")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Me is GET /user/me and answers with exactly name and email.
func (h *UsersHandler) Me(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.GetByID(cctx, p.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "Authentication credentials were not provided.")
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, u.Profile())
}

// UpdateMe is PATCH /user/me. Only the fields present in the body change.
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

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

	u, err := h.users.Update(cctx, p.UserID, changes)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondFieldErrors(ctx, "Invalid request body", emailTaken)
		case errors.Is(err, user.ErrNotFound):
			RespondUnauthorized(ctx, "Authentication credentials were not provided.")
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	if !changes.Empty() {
		if err := h.tokens.Forget(cctx, p.UserID); err != nil {
			slog.Default().WarnContext(ctx.Request.Context(), "drop cached principal failed", "err", err, "user_id", p.UserID)
		}
	}

	ctx.JSON(http.StatusOK, u.Profile())
}

// profileChanges turns a validated patch body into store changes, hashing any
// new password. It writes the error response itself.
func profileChanges(ctx *gin.Context, req user.UpdateProfileRequest) (user.Changes, bool) {
	var c user.Changes

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			RespondFieldErrors(ctx, "Invalid request body", FieldError{Field: "name", Rule: "required", Message: "is required"})
			return user.Changes{}, false
		}
		c.Name = &name
	}

	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		c.Email = &email
	}

	if req.Password != nil {
		hash, ok := hashPassword(ctx, *req.Password)
		if !ok {
			return user.Changes{}, false
		}
		c.PasswordHash = &hash
	}

	return c, true
}

// hashPassword writes a 400 for input bcrypt cannot take and a 500 for anything
// else.
func hashPassword(ctx *gin.Context, plain string) (string, bool) {
	hash, err := security.HashPassword(plain)
	if err == nil {
		return hash, true
	}

	if errors.Is(err, security.ErrPasswordTooLong) {
		limit := strconv.Itoa(security.MaxPasswordBytes)
		RespondFieldErrors(ctx, "Invalid request body", FieldError{
			Field:   "password",
			Rule:    "max",
			Param:   limit,
			Message: "must be at most " + limit + " bytes",
		})
		return "", false
	}

	slog.Default().ErrorContext(ctx.Request.Context(), "hash password failed", "err", err)
	RespondInternal(ctx, "Could not hash password")
	return "", false
}

// principal reads the identity RequireAuth attached. Missing means the route
// was wired without the guard, so answer 401 rather than trust anything.
func principal(ctx *gin.Context) (authz.Principal, bool) {
	p, ok := actorctx.PrincipalFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "Authentication credentials were not provided.")
		return authz.Principal{}, false
	}
	return p, true
}
