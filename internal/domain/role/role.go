package role

import (
	"errors"

	"github.com/geocoder89/labhub/internal/domain/permission"
)

var ErrNotFound = errors.New("role not found")

// Kind is one of the fixed roles. The stored role name is derived from it and
// can never be set by a caller.
type Kind int

const (
	Administrator Kind = iota + 1
	Assistant
)

const (
	AdministratorName = "AdministradorLaboratorio"
	AssistantName     = "AsistenteLaboratorio"
)

func All() []Kind {
	return []Kind{Administrator, Assistant}
}

func (k Kind) Name() string {
	switch k {
	case Administrator:
		return AdministratorName
	case Assistant:
		return AssistantName
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case Administrator:
		return "administrator"
	case Assistant:
		return "assistant"
	default:
		return "unknown"
	}
}

func (k Kind) Valid() bool {
	return k == Administrator || k == Assistant
}

// Permissions returns the grants declared for the kind. Each kind declares its
// own set; nothing is inherited between them. Assistants declare none.
func (k Kind) Permissions() []permission.Key {
	switch k {
	case Administrator:
		return []permission.Key{
			permission.LabAdminCreation,
			permission.LabAdminModification,
			permission.AssistantInactivation,
			permission.AssistantModification,
			permission.AssistantCreation,
		}
	default:
		return nil
	}
}

func KindFromName(name string) (Kind, bool) {
	for _, k := range All() {
		if k.Name() == name {
			return k, true
		}
	}
	return 0, false
}

type Role struct {
	Kind        Kind             `json:"-"`
	IsActive    bool             `json:"isActive"`
	IsStaff     bool             `json:"isStaff"`
	Permissions []permission.Key `json:"permissions"`
}

func (r Role) Name() string {
	return r.Kind.Name()
}

// New returns the role for a kind with its declared grants, active and not staff.
func New(kind Kind) Role {
	return Role{
		Kind:        kind,
		IsActive:    true,
		Permissions: kind.Permissions(),
	}
}
