package user

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/labhub/internal/domain/role"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	IsActive     bool      `json:"isActive"`
	IsStaff      bool      `json:"isStaff"`
	IsSuperuser  bool      `json:"isSuperuser"`
	RoleName     *string   `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole reports whether the user is assigned the given kind.
func (u User) HasRole(kind role.Kind) bool {
	return u.RoleName != nil && *u.RoleName == kind.Name()
}

// Profile is the public self view: name and email only.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email}
}

// NewUser is what the store needs to insert a row. Role zero means no role.
type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	IsStaff      bool
	IsSuperuser  bool
	Role         role.Kind
}

// Changes is a partial update; nil fields are left alone.
type Changes struct {
	Name         *string
	Email        *string
	PasswordHash *string
	IsActive     *bool
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.PasswordHash == nil && c.IsActive == nil
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=5,max=72"`
	Name     string `json:"name" binding:"required,max=255"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=5,max=72"`
}

type TokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// NormalizeEmail trims the address and lower-cases its domain part. The local
// part is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
