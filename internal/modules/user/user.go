package user

import (
	"maps"
	"slices"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/audit"
)

// Role is a user's permission profile.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"

	// RoleCustom marks permissions set explicitly rather than from a role.
	RoleCustom Role = "custom"
)

const entityUser = "User"

var ValidRoles = []string{string(RoleAdmin), string(RoleManager), string(RoleWorker)}

var rolePermissions = map[Role][]string{
	RoleAdmin: {
		"stock.read", "stock.write", "stock.delete",
		"orders.read", "orders.write", "orders.delete",
		"users.read", "users.write", "users.delete",
		"reports.read", "reports.generate",
		"settings.read", "settings.write",
	},
	RoleManager: {
		"stock.read", "stock.write",
		"orders.read", "orders.write",
		"users.read",
		"reports.read", "reports.generate",
		"settings.read",
	},
	RoleWorker: {
		"stock.read",
		"orders.read",
		"picking.read", "picking.write",
		"packing.read", "packing.write",
	},
}

// Permissions returns a copy of the default permission set for role.
func Permissions(role Role) []string {
	return slices.Clone(rolePermissions[role])
}

// accounts are the operator ids allowed to sign in.
var accounts = map[string]Role{
	"admin":     RoleAdmin,
	"manager":   RoleManager,
	"worker001": RoleWorker,
}

// Lookup reports the role of a sign-in account.
func Lookup(userID string) (Role, bool) {
	r, ok := accounts[userID]
	return r, ok
}

// Accounts lists the sign-in account ids.
func Accounts() []string {
	return slices.Sorted(maps.Keys(accounts))
}

// RoleOf is the role a user id falls back to when nothing was recorded for it.
func RoleOf(userID string) Role {
	if r, ok := accounts[userID]; ok {
		return r
	}
	return RoleWorker
}

// User is an operator as reconstructed from the audit trail.
type User struct {
	UserID        string     `json:"userId"`
	Username      string     `json:"username,omitempty"`
	Email         string     `json:"email,omitempty"`
	Role          Role       `json:"role"`
	IsActive      bool       `json:"isActive"`
	ActivityCount int        `json:"activityCount"`
	FirstActivity *time.Time `json:"firstActivity,omitempty"`
	LastActivity  *time.Time `json:"lastActivity,omitempty"`
}

type ListResult struct {
	Total int     `json:"total"`
	Users []*User `json:"users"`
}

type CreateRequest struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	CreatedBy   string   `json:"createdBy"`
}

type CreateResult struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"isActive"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UpdateRequest struct {
	UserID    string         `json:"userId"`
	Updates   map[string]any `json:"updates"`
	UpdatedBy string         `json:"updatedBy"`
}

type UpdateResult struct {
	UserID    string         `json:"userId"`
	Updates   map[string]any `json:"updates"`
	UpdatedBy string         `json:"updatedBy"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type DeleteResult struct {
	UserID    string    `json:"userId"`
	DeletedBy string    `json:"deletedBy"`
	DeletedAt time.Time `json:"deletedAt"`
}

type PermissionSet struct {
	UserID      string     `json:"userId"`
	Role        Role       `json:"role"`
	Permissions []string   `json:"permissions"`
	UpdatedBy   string     `json:"updatedBy,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type PermissionsRequest struct {
	UserID      string   `json:"userId"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	UpdatedBy   string   `json:"updatedBy"`
}

type ActivityFilter struct {
	UserID string
	Action string
	From   *time.Time
	To     *time.Time
	Limit  int
}

type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type ActivityFilters struct {
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	DateRange DateRange `json:"dateRange"`
}

type ActivityStats struct {
	TotalActivities int            `json:"totalActivities"`
	ByAction        map[string]int `json:"byAction"`
	ByEntity        map[string]int `json:"byEntity"`
}

type ActivityResult struct {
	Filters    ActivityFilters `json:"filters"`
	Stats      ActivityStats   `json:"stats"`
	Activities []*audit.Entry  `json:"activities"`
}
