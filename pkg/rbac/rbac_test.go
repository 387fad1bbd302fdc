package rbac

import (
	"errors"
	"testing"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		permission string
		allow      bool
	}{
		{name: "manager manages members", role: RoleManager, permission: PermissionManageMembers, allow: true},
		{name: "researcher writes tasks", role: RoleResearcher, permission: PermissionWriteTask, allow: true},
		{name: "researcher cannot manage members", role: RoleResearcher, permission: PermissionManageMembers, allow: false},
		{name: "viewer reads", role: RoleViewer, permission: PermissionReadProject, allow: true},
		{name: "viewer cannot write tasks", role: RoleViewer, permission: PermissionWriteTask, allow: false},
		{name: "unknown role", role: "Owner", permission: PermissionReadProject, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPermission(tc.role, tc.permission); got != tc.allow {
				t.Fatalf("HasPermission(%q, %q) = %v, want %v", tc.role, tc.permission, got, tc.allow)
			}
		})
	}
}

func TestCheckPermission(t *testing.T) {
	if err := CheckPermission(RoleManager, PermissionUpdateProject); err != nil {
		t.Fatalf("manager should update project: %v", err)
	}

	err := CheckPermission(RoleViewer, PermissionWriteDocument)
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}
	if denied.Permission != PermissionWriteDocument {
		t.Fatalf("unexpected permission %q", denied.Permission)
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleManager, RoleResearcher, RoleViewer} {
		if !ValidRole(role) {
			t.Fatalf("%q should be valid", role)
		}
	}
	if ValidRole("manager") {
		t.Fatal("roles are case-sensitive")
	}
}
