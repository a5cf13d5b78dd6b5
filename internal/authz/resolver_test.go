package authz_test

import (
	"testing"

	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/domain/role"
)

func adminPrincipal() authz.Principal {
	return authz.Principal{
		UserID:          "u-1",
		IsActive:        true,
		Role:            role.AdministratorName,
		RoleActive:      true,
		RolePermissions: role.Administrator.Permissions(),
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name      string
		principal authz.Principal
		key       permission.Key
		want      bool
	}{
		{
			name:      "superuser is always allowed",
			principal: authz.Principal{IsActive: true, IsSuperuser: true},
			key:       permission.OwnPhoneModification,
			want:      true,
		},
		{
			name:      "inactive superuser is denied",
			principal: authz.Principal{IsActive: false, IsSuperuser: true},
			key:       permission.AssistantCreation,
			want:      false,
		},
		{
			name: "direct grant without role",
			principal: authz.Principal{
				IsActive:    true,
				Permissions: []permission.Key{permission.OwnPasswordModification},
			},
			key:  permission.OwnPasswordModification,
			want: true,
		},
		{
			name:      "administrator role grants its declared permission",
			principal: adminPrincipal(),
			key:       permission.AssistantCreation,
			want:      true,
		},
		{
			name:      "administrator role does not grant undeclared permission",
			principal: adminPrincipal(),
			key:       permission.OwnPhoneModification,
			want:      false,
		},
		{
			name: "assistant role grants nothing",
			principal: authz.Principal{
				IsActive:        true,
				Role:            role.AssistantName,
				RoleActive:      true,
				RolePermissions: role.Assistant.Permissions(),
			},
			key:  permission.AssistantCreation,
			want: false,
		},
		{
			name: "inactive role grants nothing",
			principal: func() authz.Principal {
				p := adminPrincipal()
				p.RoleActive = false
				return p
			}(),
			key:  permission.AssistantCreation,
			want: false,
		},
		{
			name:      "no role and no grant denies",
			principal: authz.Principal{IsActive: true},
			key:       permission.AssistantCreation,
			want:      false,
		},
		{
			name: "staff flag alone grants nothing",
			principal: authz.Principal{
				IsActive: true,
				IsStaff:  true,
			},
			key:  permission.LabAdminCreation,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := authz.HasPermission(tt.principal, tt.key)
			if got != tt.want {
				t.Fatalf("HasPermission(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDefaultCheckerDelegates(t *testing.T) {
	p := adminPrincipal()

	for _, key := range role.Administrator.Permissions() {
		if !authz.Default.HasPermission(p, key) {
			t.Fatalf("expected administrator to hold %q", key)
		}
	}
}
