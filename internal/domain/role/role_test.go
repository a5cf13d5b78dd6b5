package role_test

import (
	"testing"

	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/domain/role"
)

func TestKindNamesAreFixed(t *testing.T) {
	if got := role.Administrator.Name(); got != "AdministradorLaboratorio" {
		t.Fatalf("administrator name = %q", got)
	}
	if got := role.Assistant.Name(); got != "AsistenteLaboratorio" {
		t.Fatalf("assistant name = %q", got)
	}
	if got := role.Kind(0).Name(); got != "" {
		t.Fatalf("zero kind should have no name, got %q", got)
	}
}

func TestKindFromName(t *testing.T) {
	for _, k := range role.All() {
		got, ok := role.KindFromName(k.Name())
		if !ok || got != k {
			t.Fatalf("KindFromName(%q) = %v,%v", k.Name(), got, ok)
		}
	}

	if _, ok := role.KindFromName("Administrator"); ok {
		t.Fatalf("unexpected match for free text role name")
	}
}

func TestDeclaredPermissions(t *testing.T) {
	admin := permission.NewSet(role.Administrator.Permissions()...)

	for _, key := range []permission.Key{
		permission.LabAdminCreation,
		permission.LabAdminModification,
		permission.AssistantInactivation,
		permission.AssistantModification,
		permission.AssistantCreation,
	} {
		if !admin.Has(key) {
			t.Fatalf("administrator should declare %q", key)
		}
		if _, ok := permission.Lookup(key); !ok {
			t.Fatalf("%q missing from catalog", key)
		}
	}

	if admin.Has(permission.OwnPasswordModification) {
		t.Fatalf("administrator should not declare user-level permissions")
	}

	if n := len(role.Assistant.Permissions()); n != 0 {
		t.Fatalf("assistant should declare no permissions, got %d", n)
	}
}

func TestNewRoleIsActive(t *testing.T) {
	r := role.New(role.Administrator)

	if !r.IsActive || r.IsStaff {
		t.Fatalf("unexpected flags: %+v", r)
	}
	if r.Name() != role.AdministratorName {
		t.Fatalf("name = %q", r.Name())
	}
}
