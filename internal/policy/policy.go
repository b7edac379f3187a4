// Package policy holds the authorization rules shared by the page and API
// surfaces. Every function is pure.
package policy

import "github.com/Skotchmaster/inventory/internal/models"

// MaxNormalProducts is how many products a normal user may own.
const MaxNormalProducts = 3

func ValidRole(role string) bool {
	return role == models.RoleNormal || role == models.RoleSuper
}

func CanManageUsers(role string) bool {
	return role == models.RoleSuper
}

func CanCreateProduct(role string, currentCount int64) bool {
	return role == models.RoleSuper || currentCount < MaxNormalProducts
}

func CanViewUser(role, actor, target string) bool {
	return CanManageUsers(role) || actor == target
}

// CanCreateProductFor decides whether actor may create a product owned by owner.
func CanCreateProductFor(role, actor, owner string) bool {
	return actor == owner || CanManageUsers(role)
}

// CanModifyProduct gates update and delete. Without enforce any authenticated
// identity may modify any product.
func CanModifyProduct(role, actor, owner string, enforce bool) bool {
	return !enforce || role == models.RoleSuper || actor == owner
}
