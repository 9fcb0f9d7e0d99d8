// Package permissions is the static role gate: a fixed capability table and
// menu registry consulted before workflow actions are exposed. Pure lookups,
// no I/O.
package permissions

import (
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// Capability names an action a role may or may not perform
type Capability string

const (
	CapViewDashboard        Capability = "canViewDashboard"
	CapManageDeliveryNotes  Capability = "canManageDeliveryNotes"
	CapManagePurchaseOrders Capability = "canManagePurchaseOrders"
	CapViewReports          Capability = "canViewReports"
	CapManageUsers          Capability = "canManageUsers"
	CapViewAnalytics        Capability = "canViewAnalytics"
	CapPrintDocuments       Capability = "canPrintDocuments"
	CapManageSettings       Capability = "canManageSettings"
)

// Capabilities returns the fixed set of capabilities
func Capabilities() []Capability {
	return []Capability{
		CapViewDashboard,
		CapManageDeliveryNotes,
		CapManagePurchaseOrders,
		CapViewReports,
		CapManageUsers,
		CapViewAnalytics,
		CapPrintDocuments,
		CapManageSettings,
	}
}

// roleCapabilities is the fixed 4x8 capability table
var roleCapabilities = map[model.Role]map[Capability]bool{
	model.RoleAdministrator: {
		CapViewDashboard:        true,
		CapManageDeliveryNotes:  true,
		CapManagePurchaseOrders: true,
		CapViewReports:          true,
		CapManageUsers:          true,
		CapViewAnalytics:        true,
		CapPrintDocuments:       true,
		CapManageSettings:       true,
	},
	model.RoleSupervisor: {
		CapViewDashboard:        true,
		CapManageDeliveryNotes:  true,
		CapManagePurchaseOrders: true,
		CapViewReports:          true,
		CapManageUsers:          false,
		CapViewAnalytics:        true,
		CapPrintDocuments:       true,
		CapManageSettings:       false,
	},
	model.RoleOperator: {
		CapViewDashboard:        true,
		CapManageDeliveryNotes:  true,
		CapManagePurchaseOrders: false,
		CapViewReports:          false,
		CapManageUsers:          false,
		CapViewAnalytics:        false,
		CapPrintDocuments:       true,
		CapManageSettings:       false,
	},
	model.RoleDriver: {
		CapViewDashboard:        true,
		CapManageDeliveryNotes:  false,
		CapManagePurchaseOrders: false,
		CapViewReports:          false,
		CapManageUsers:          false,
		CapViewAnalytics:        false,
		CapPrintDocuments:       false,
		CapManageSettings:       false,
	},
}

// HasPermission reports whether a role holds a capability
func HasPermission(role model.Role, cap Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	return caps[cap]
}

// Menu describes a navigation entry and the roles allowed to see it
type Menu struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Path  string       `json:"path"`
	Roles []model.Role `json:"roles"`
}

// menus is the fixed menu registry
var menus = []Menu{
	{
		ID:    "dashboard",
		Label: "Dashboard",
		Path:  "/dashboard",
		Roles: []model.Role{model.RoleAdministrator, model.RoleSupervisor, model.RoleOperator, model.RoleDriver},
	},
	{
		ID:    "delivery-notes",
		Label: "Surat Jalan",
		Path:  "/delivery-notes",
		Roles: []model.Role{model.RoleAdministrator, model.RoleSupervisor, model.RoleOperator},
	},
	{
		ID:    "purchase-orders",
		Label: "Purchase Orders",
		Path:  "/purchase-orders",
		Roles: []model.Role{model.RoleAdministrator, model.RoleSupervisor},
	},
	{
		ID:    "reports",
		Label: "Reports",
		Path:  "/reports",
		Roles: []model.Role{model.RoleAdministrator, model.RoleSupervisor},
	},
	{
		ID:    "analytics",
		Label: "Analytics",
		Path:  "/analytics",
		Roles: []model.Role{model.RoleAdministrator, model.RoleSupervisor},
	},
	{
		ID:    "users",
		Label: "Users",
		Path:  "/users",
		Roles: []model.Role{model.RoleAdministrator},
	},
	{
		ID:    "settings",
		Label: "Settings",
		Path:  "/settings",
		Roles: []model.Role{model.RoleAdministrator},
	},
}

// AllMenus returns the full menu registry
func AllMenus() []Menu {
	out := make([]Menu, len(menus))
	copy(out, menus)
	return out
}

func roleAllowed(m Menu, role model.Role) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AccessibleMenus returns the menus a user may see. Administrators see every
// menu regardless of the registry. For other roles a custom override policy,
// when present and non-empty, replaces the role-based list entirely.
func AccessibleMenus(role model.Role, policy model.MenuPolicy) []Menu {
	if role == model.RoleAdministrator {
		return AllMenus()
	}

	if policy.IsOverride() {
		allowed := make(map[string]bool, len(policy.MenuIDs))
		for _, id := range policy.MenuIDs {
			allowed[id] = true
		}
		var out []Menu
		for _, m := range menus {
			if allowed[m.ID] {
				out = append(out, m)
			}
		}
		return out
	}

	var out []Menu
	for _, m := range menus {
		if roleAllowed(m, role) {
			out = append(out, m)
		}
	}
	return out
}

// CanAccessRoute reports whether a role may navigate to a route path,
// based on the role defaults. Administrators may access every route.
func CanAccessRoute(role model.Role, path string) bool {
	if role == model.RoleAdministrator {
		return true
	}
	for _, m := range menus {
		if m.Path == path {
			return roleAllowed(m, role)
		}
	}
	return false
}
