// Package authz holds the static role-permission table and the authorization
// middleware applied after authentication.
package authz

import (
	"strings"

	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// Role is the coarse access-control level of an account.
type Role string

// Known roles. Every account has exactly one.
const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ParseRole validates and normalizes a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", shared.ErrInvalidRole
	}
}

// Permission names checked against a role's granted set.
const (
	PermCreatePost    = "create_post"
	PermEditOwnPost   = "edit_own_post"
	PermPurchasePost  = "purchase_post"
	PermFavoritePost  = "favorite_post"
	PermRatePost      = "rate_post"
	PermCommentPost   = "comment_post"
	PermApprovePost   = "approve_post"
	PermDeleteAnyPost = "delete_any_post"
	PermViewUsers     = "view_users"
	PermSuspendUser   = "suspend_user"
	PermChangeRole    = "change_role"
	PermDeleteUser    = "delete_user"
)

// rolePermissions enumerates each role's grants independently. There is no
// hierarchy: a grant exists for a role only if listed here.
//
// TODO: admin lacks approve_post while manager has it; inherited from the
// original permission table, pending a product decision before changing.
var rolePermissions = map[Role][]string{
	RoleUser: {
		PermCreatePost,
		PermEditOwnPost,
		PermPurchasePost,
		PermFavoritePost,
		PermRatePost,
		PermCommentPost,
	},
	RoleManager: {
		PermCreatePost,
		PermEditOwnPost,
		PermPurchasePost,
		PermFavoritePost,
		PermRatePost,
		PermCommentPost,
		PermApprovePost,
		PermViewUsers,
		PermSuspendUser,
	},
	RoleAdmin: {
		PermCreatePost,
		PermEditOwnPost,
		PermPurchasePost,
		PermFavoritePost,
		PermRatePost,
		PermCommentPost,
		PermViewUsers,
		PermSuspendUser,
		PermChangeRole,
		PermDeleteUser,
		PermDeleteAnyPost,
	},
}

// PermissionsFor returns the permission set granted to a role. Unrecognized
// roles yield an empty set so authorization degrades to deny.
func PermissionsFor(role Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role's set includes the permission.
func HasPermission(role Role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
