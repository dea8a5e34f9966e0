package user

import "context"

// Service manages operator accounts. There is no user table: every change is an
// audit row and reads are rebuilt from the trail.
type Service interface {
	ListUsers(ctx context.Context) (*ListResult, error)
	CreateUser(ctx context.Context, req CreateRequest) (*CreateResult, error)
	UpdateUser(ctx context.Context, req UpdateRequest) (*UpdateResult, error)
	DeleteUser(ctx context.Context, userID, deletedBy string) (*DeleteResult, error)
	GetPermissions(ctx context.Context, userID string) (*PermissionSet, error)
	UpdatePermissions(ctx context.Context, req PermissionsRequest) (*PermissionSet, error)
	Activity(ctx context.Context, f ActivityFilter) (*ActivityResult, error)
}
