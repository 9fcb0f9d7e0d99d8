package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

func TestHasPermissionTable(t *testing.T) {
	tests := []struct {
		role model.Role
		cap  Capability
		want bool
	}{
		{model.RoleAdministrator, CapViewDashboard, true},
		{model.RoleAdministrator, CapManageDeliveryNotes, true},
		{model.RoleAdministrator, CapManagePurchaseOrders, true},
		{model.RoleAdministrator, CapViewReports, true},
		{model.RoleAdministrator, CapManageUsers, true},
		{model.RoleAdministrator, CapViewAnalytics, true},
		{model.RoleAdministrator, CapPrintDocuments, true},
		{model.RoleAdministrator, CapManageSettings, true},

		{model.RoleSupervisor, CapViewDashboard, true},
		{model.RoleSupervisor, CapManageDeliveryNotes, true},
		{model.RoleSupervisor, CapManagePurchaseOrders, true},
		{model.RoleSupervisor, CapViewReports, true},
		{model.RoleSupervisor, CapManageUsers, false},
		{model.RoleSupervisor, CapViewAnalytics, true},
		{model.RoleSupervisor, CapPrintDocuments, true},
		{model.RoleSupervisor, CapManageSettings, false},

		{model.RoleOperator, CapViewDashboard, true},
		{model.RoleOperator, CapManageDeliveryNotes, true},
		{model.RoleOperator, CapManagePurchaseOrders, false},
		{model.RoleOperator, CapViewReports, false},
		{model.RoleOperator, CapManageUsers, false},
		{model.RoleOperator, CapViewAnalytics, false},
		{model.RoleOperator, CapPrintDocuments, true},
		{model.RoleOperator, CapManageSettings, false},

		{model.RoleDriver, CapViewDashboard, true},
		{model.RoleDriver, CapManageDeliveryNotes, false},
		{model.RoleDriver, CapManagePurchaseOrders, false},
		{model.RoleDriver, CapViewReports, false},
		{model.RoleDriver, CapManageUsers, false},
		{model.RoleDriver, CapViewAnalytics, false},
		{model.RoleDriver, CapPrintDocuments, false},
		{model.RoleDriver, CapManageSettings, false},
	}

	for _, tt := range tests {
		got := HasPermission(tt.role, tt.cap)
		require.Equalf(t, tt.want, got, "role %s capability %s", tt.role, tt.cap)
	}
}

func TestHasPermissionUnknownRole(t *testing.T) {
	require.False(t, HasPermission(model.Role("visitor"), CapViewDashboard))
}

func menuIDs(menus []Menu) []string {
	ids := make([]string, 0, len(menus))
	for _, m := range menus {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestAccessibleMenusRoleDefaults(t *testing.T) {
	defaults := model.RoleDefaultMenus()

	require.Equal(t,
		[]string{"dashboard", "delivery-notes", "purchase-orders", "reports", "analytics", "users", "settings"},
		menuIDs(AccessibleMenus(model.RoleAdministrator, defaults)))

	require.Equal(t,
		[]string{"dashboard", "delivery-notes", "purchase-orders", "reports", "analytics"},
		menuIDs(AccessibleMenus(model.RoleSupervisor, defaults)))

	require.Equal(t,
		[]string{"dashboard", "delivery-notes"},
		menuIDs(AccessibleMenus(model.RoleOperator, defaults)))

	require.Equal(t,
		[]string{"dashboard"},
		menuIDs(AccessibleMenus(model.RoleDriver, defaults)))
}

func TestAccessibleMenusOverrideReplacesDefaults(t *testing.T) {
	// The override is the whole list, role defaults do not leak back in
	policy := model.CustomMenus("dashboard", "reports")

	got := menuIDs(AccessibleMenus(model.RoleOperator, policy))
	require.Equal(t, []string{"dashboard", "reports"}, got)
}

func TestAccessibleMenusAdministratorIgnoresOverride(t *testing.T) {
	policy := model.CustomMenus("dashboard")

	got := menuIDs(AccessibleMenus(model.RoleAdministrator, policy))
	require.Len(t, got, len(AllMenus()))
}

func TestCanAccessRoute(t *testing.T) {
	require.True(t, CanAccessRoute(model.RoleAdministrator, "/users"))
	require.True(t, CanAccessRoute(model.RoleSupervisor, "/purchase-orders"))
	require.False(t, CanAccessRoute(model.RoleSupervisor, "/users"))
	require.True(t, CanAccessRoute(model.RoleOperator, "/delivery-notes"))
	require.False(t, CanAccessRoute(model.RoleOperator, "/reports"))
	require.False(t, CanAccessRoute(model.RoleDriver, "/delivery-notes"))
	require.False(t, CanAccessRoute(model.RoleOperator, "/unknown"))
}
