package auth

import "testing"

func TestHasPermission_DirectMatch(t *testing.T) {
	if !HasPermissionString(RoleCoordinator, "patient:manage") {
		t.Error("coordinator should have patient:manage")
	}
	if HasPermissionString(RoleViewer, "patient:manage") {
		t.Error("viewer should not have patient:manage")
	}
}

func TestHasPermission_ResourceWildcard(t *testing.T) {
	// study_admin holds {study, AnyAction}, so any study action passes.
	if !HasPermission(RoleStudyAdmin, Permission{ResourceStudy, ActionDelete}) {
		t.Error("study_admin should have study:delete via study:*")
	}
	if HasPermission(RoleCoordinator, Permission{ResourceStudy, ActionDelete}) {
		t.Error("coordinator should not have study:delete")
	}
}

func TestHasPermission_SuperAdminMatchesEverything(t *testing.T) {
	perms := []Permission{
		{ResourceOrganization, ActionDelete},
		{ResourceUser, ActionManage},
		{ResourceDraft, ActionRead},
	}
	for _, p := range perms {
		if !HasPermission(RoleSuperAdmin, p) {
			t.Errorf("super_admin should have %s", p)
		}
	}
}

func TestHasPermission_UnknownRole(t *testing.T) {
	if HasPermission(Role("intruder"), Permission{ResourcePatient, ActionRead}) {
		t.Error("unknown role should have no permissions")
	}
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("visit:manage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Resource != ResourceVisit || p.Action != ActionManage {
		t.Errorf("unexpected permission: %+v", p)
	}

	for _, bad := range []string{"", "patient", ":manage", "patient:"} {
		if _, err := ParsePermission(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestCanAssignRole_Hierarchy(t *testing.T) {
	cases := []struct {
		assigner Role
		target   Role
		ok       bool
	}{
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{RoleSuperAdmin, RoleViewer, true},
		{RoleStudyAdmin, RoleSuperAdmin, false},
		{RoleStudyAdmin, RoleOrgAdmin, true},
		{RoleCoordinator, RoleCoordinator, true},
		{RoleCoordinator, RoleInvestigator, false},
		{RoleViewer, RoleViewer, true},
		{Role("bogus"), RoleViewer, false},
		{RoleSuperAdmin, Role("bogus"), false},
	}
	for _, tc := range cases {
		if got := CanAssignRole(tc.assigner, tc.target); got != tc.ok {
			t.Errorf("CanAssignRole(%s, %s) = %v, want %v", tc.assigner, tc.target, got, tc.ok)
		}
	}
}

func TestCanAccessOrganization(t *testing.T) {
	p := &Principal{
		UserID:                  "u-1",
		Role:                    RoleCoordinator,
		OrganizationID:          "org-home",
		AccessibleOrganizations: []string{"org-a", "org-b"},
	}
	if !p.CanAccessOrganization("org-home") {
		t.Error("own organization should be accessible")
	}
	if !p.CanAccessOrganization("org-a") {
		t.Error("listed organization should be accessible")
	}
	if p.CanAccessOrganization("org-z") {
		t.Error("unlisted organization should not be accessible")
	}

	admin := &Principal{Role: RoleStudyAdmin}
	if !admin.CanAccessOrganization("org-z") {
		t.Error("study_admin bypasses organization scoping")
	}

	var nobody *Principal
	if nobody.CanAccessOrganization("org-a") {
		t.Error("nil principal has no access")
	}
}

func TestCanAccessStudy(t *testing.T) {
	p := &Principal{Role: RoleInvestigator, AccessibleStudies: []string{"cs-1"}}
	if !p.CanAccessStudy("cs-1") {
		t.Error("listed study should be accessible")
	}
	if p.CanAccessStudy("cs-2") {
		t.Error("unlisted study should not be accessible")
	}
	if !(&Principal{Role: RoleSuperAdmin}).CanAccessStudy("cs-2") {
		t.Error("super_admin bypasses study scoping")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleStudyAdmin, RoleOrgAdmin, RoleInvestigator, RoleCoordinator, RoleViewer} {
		if !ValidRole(r) {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if ValidRole(Role("root")) {
		t.Error("unexpected valid role")
	}
}
