package auth

import (
	"fmt"
	"strings"
)

// Role is a static user role. Authorization is a fixed role → permission
// table; there is no per-user grant storage.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleStudyAdmin   Role = "study_admin"
	RoleOrgAdmin     Role = "org_admin"
	RoleInvestigator Role = "investigator"
	RoleCoordinator  Role = "coordinator"
	RoleViewer       Role = "viewer"
)

// roleLevels orders roles by power; a lower level is more powerful. Used to
// prevent privilege escalation through role assignment.
var roleLevels = map[Role]int{
	RoleSuperAdmin:   0,
	RoleStudyAdmin:   1,
	RoleOrgAdmin:     2,
	RoleInvestigator: 3,
	RoleCoordinator:  4,
	RoleViewer:       5,
}

// Resource is the object class a permission applies to.
type Resource string

const (
	// AnyResource matches every resource; only super_admin holds it.
	AnyResource          Resource = "*"
	ResourceOrganization Resource = "organization"
	ResourceStudy        Resource = "study"
	ResourcePatient      Resource = "patient"
	ResourceSurvey       Resource = "survey"
	ResourceVisit        Resource = "visit"
	ResourceExamination  Resource = "examination"
	ResourceDraft        Resource = "draft"
	ResourceUser         Resource = "user"
)

// Action is the operation class a permission grants.
type Action string

const (
	// AnyAction matches every action on its resource.
	AnyAction    Action = "*"
	ActionRead   Action = "read"
	ActionManage Action = "manage"
	ActionDelete Action = "delete"
)

// Permission is a typed {resource, action} pair. Wildcards are explicit
// variants (AnyResource, AnyAction) rather than runtime string patterns.
type Permission struct {
	Resource Resource
	Action   Action
}

func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// ParsePermission converts the boundary form "resource:action" into a typed
// Permission. It is the only place the string form is interpreted.
func ParsePermission(s string) (Permission, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Permission{}, fmt.Errorf("invalid permission %q, want resource:action", s)
	}
	return Permission{Resource: Resource(parts[0]), Action: Action(parts[1])}, nil
}

// rolePermissions is the static authorization table.
var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		{AnyResource, AnyAction},
	},
	RoleStudyAdmin: {
		{ResourceOrganization, AnyAction},
		{ResourceStudy, AnyAction},
		{ResourcePatient, AnyAction},
		{ResourceSurvey, AnyAction},
		{ResourceVisit, AnyAction},
		{ResourceExamination, AnyAction},
		{ResourceDraft, AnyAction},
		{ResourceUser, ActionRead},
		{ResourceUser, ActionManage},
	},
	RoleOrgAdmin: {
		{ResourceOrganization, ActionRead},
		{ResourceOrganization, ActionManage},
		{ResourcePatient, AnyAction},
		{ResourceSurvey, AnyAction},
		{ResourceVisit, AnyAction},
		{ResourceExamination, AnyAction},
		{ResourceDraft, AnyAction},
		{ResourceUser, ActionRead},
	},
	RoleInvestigator: {
		{ResourceOrganization, ActionRead},
		{ResourceStudy, ActionRead},
		{ResourcePatient, ActionRead},
		{ResourcePatient, ActionManage},
		{ResourceSurvey, ActionRead},
		{ResourceSurvey, ActionManage},
		{ResourceVisit, AnyAction},
		{ResourceExamination, AnyAction},
		{ResourceDraft, AnyAction},
	},
	RoleCoordinator: {
		{ResourceOrganization, ActionRead},
		{ResourceStudy, ActionRead},
		{ResourcePatient, ActionRead},
		{ResourcePatient, ActionManage},
		{ResourceSurvey, ActionRead},
		{ResourceSurvey, ActionManage},
		{ResourceVisit, ActionRead},
		{ResourceVisit, ActionManage},
		{ResourceExamination, ActionRead},
		{ResourceExamination, ActionManage},
		{ResourceDraft, AnyAction},
	},
	RoleViewer: {
		{ResourceOrganization, ActionRead},
		{ResourceStudy, ActionRead},
		{ResourcePatient, ActionRead},
		{ResourceSurvey, ActionRead},
		{ResourceVisit, ActionRead},
		{ResourceExamination, ActionRead},
	},
}

// HasPermission reports whether the role grants the permission. Match order:
// exact pair, then {resource, AnyAction}, then {AnyResource, AnyAction}.
func HasPermission(role Role, p Permission) bool {
	grants, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, g := range grants {
		if g.Resource == p.Resource && g.Action == p.Action {
			return true
		}
	}
	for _, g := range grants {
		if g.Resource == p.Resource && g.Action == AnyAction {
			return true
		}
	}
	for _, g := range grants {
		if g.Resource == AnyResource && g.Action == AnyAction {
			return true
		}
	}
	return false
}

// HasPermissionString is the boundary helper for "resource:action" checks.
// Malformed strings deny.
func HasPermissionString(role Role, s string) bool {
	p, err := ParsePermission(s)
	if err != nil {
		return false
	}
	return HasPermission(role, p)
}

// ValidRole reports whether the role exists in the authorization table.
func ValidRole(role Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// CanAssignRole reports whether assigner may grant target. A role may only
// grant roles at or below its own level.
func CanAssignRole(assigner, target Role) bool {
	a, ok := roleLevels[assigner]
	if !ok {
		return false
	}
	t, ok := roleLevels[target]
	if !ok {
		return false
	}
	return a <= t
}

// Principal is the authenticated caller, as supplied by the identity
// provider: who they are, their role, and the organization/study instances
// they may touch.
type Principal struct {
	UserID                  string
	Role                    Role
	OrganizationID          string
	AccessibleOrganizations []string
	AccessibleStudies       []string
}

// CanAccessOrganization layers instance scoping on top of the permission
// table: super_admin and study_admin see every organization; everyone else
// needs membership.
func (p *Principal) CanAccessOrganization(organizationID string) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleSuperAdmin || p.Role == RoleStudyAdmin {
		return true
	}
	if p.OrganizationID == organizationID {
		return true
	}
	for _, id := range p.AccessibleOrganizations {
		if id == organizationID {
			return true
		}
	}
	return false
}

// CanAccessStudy is the study-instance counterpart of
// CanAccessOrganization.
func (p *Principal) CanAccessStudy(clinicalStudyID string) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleSuperAdmin || p.Role == RoleStudyAdmin {
		return true
	}
	for _, id := range p.AccessibleStudies {
		if id == clinicalStudyID {
			return true
		}
	}
	return false
}
