package rbac

import "github.com/kikaiya/kikaiya-web/internal/auth"

// Permission keys used across the admin API.
const (
	PermDashboardView = "dashboard.view"

	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermMachineryView   = "machinery.view"
	PermMachineryCreate = "machinery.create"
	PermMachineryEdit   = "machinery.edit"
	PermMachineryDelete = "machinery.delete"

	PermCategoriesManage = "categories.manage"
	PermBrandsManage     = "brands.manage"

	PermInquiriesView   = "inquiries.view"
	PermInquiriesManage = "inquiries.manage"

	PermContentView = "content.view"
	PermContentEdit = "content.edit"

	PermMediaUpload = "media.upload"
	PermMediaDelete = "media.delete"

	PermActivityView   = "activity.view"
	PermSettingsManage = "settings.manage"
)

// Permission represents an atomic capability.
type Permission struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// RoleGrant is the default permission set of a role.
type RoleGrant struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// PermissionGroup is a catalog category with its permissions in catalog order.
type PermissionGroup struct {
	Category    string       `json:"category"`
	Permissions []Permission `json:"permissions"`
}

var defaultPermissions = []Permission{
	{Key: PermDashboardView, Name: "View dashboard", Description: "Open the admin dashboard and its summary widgets", Category: "Dashboard"},

	{Key: PermUsersView, Name: "View users", Description: "List admin accounts", Category: "Users"},
	{Key: PermUsersCreate, Name: "Create users", Description: "Invite new admin accounts", Category: "Users"},
	{Key: PermUsersEdit, Name: "Edit users", Description: "Change roles and activate or deactivate accounts", Category: "Users"},
	{Key: PermUsersDelete, Name: "Delete users", Description: "Remove admin accounts", Category: "Users"},

	{Key: PermRolesView, Name: "View roles", Description: "See roles and their permissions", Category: "Roles"},
	{Key: PermRolesEdit, Name: "Edit roles", Description: "Change role permission assignments", Category: "Roles"},

	{Key: PermMachineryView, Name: "View machinery", Description: "Browse the machinery inventory", Category: "Machinery"},
	{Key: PermMachineryCreate, Name: "Create machinery", Description: "Add machinery listings", Category: "Machinery"},
	{Key: PermMachineryEdit, Name: "Edit machinery", Description: "Update machinery listings", Category: "Machinery"},
	{Key: PermMachineryDelete, Name: "Delete machinery", Description: "Remove machinery listings", Category: "Machinery"},
	{Key: PermCategoriesManage, Name: "Manage categories", Description: "Create, rename and remove machinery categories", Category: "Machinery"},
	{Key: PermBrandsManage, Name: "Manage brands", Description: "Create, rename and remove machinery brands", Category: "Machinery"},

	{Key: PermInquiriesView, Name: "View inquiries", Description: "Read buy and sell inquiries", Category: "Inquiries"},
	{Key: PermInquiriesManage, Name: "Manage inquiries", Description: "Update inquiry status and notes", Category: "Inquiries"},

	{Key: PermContentView, Name: "View content", Description: "Read site content blocks in the editor", Category: "Content"},
	{Key: PermContentEdit, Name: "Edit content", Description: "Change English and Japanese site content", Category: "Content"},

	{Key: PermMediaUpload, Name: "Upload media", Description: "Upload images for listings and pages", Category: "Media"},
	{Key: PermMediaDelete, Name: "Delete media", Description: "Remove uploaded images", Category: "Media"},

	{Key: PermActivityView, Name: "View activity", Description: "Read the admin activity log", Category: "System"},
	{Key: PermSettingsManage, Name: "Manage settings", Description: "Change site-wide settings", Category: "System"},
}

func defaultRoles() []RoleGrant {
	all := make([]string, 0, len(defaultPermissions))
	for _, p := range defaultPermissions {
		all = append(all, p.Key)
	}
	return []RoleGrant{
		{
			Name:        auth.RoleAdmin,
			Description: "Full access to every admin feature",
			Permissions: all,
		},
		{
			Name:        auth.RoleEditor,
			Description: "Manages listings, inquiries and site content",
			Permissions: []string{
				PermDashboardView,
				PermMachineryView, PermMachineryCreate, PermMachineryEdit,
				PermCategoriesManage, PermBrandsManage,
				PermInquiriesView, PermInquiriesManage,
				PermContentView, PermContentEdit,
				PermMediaUpload,
			},
		},
		{
			Name:        auth.RoleViewer,
			Description: "Read-only access to the back office",
			Permissions: []string{
				PermDashboardView,
				PermMachineryView,
				PermInquiriesView,
				PermContentView,
				PermActivityView,
			},
		},
	}
}
