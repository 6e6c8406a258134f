package models

import "net/http"

// Role is the coarse permission tier of an admin account.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Scope groups routes that share one authorization rule.
type Scope string

const (
	// ScopeDirectory covers members and their sub-records.
	ScopeDirectory Scope = "directory"
	// ScopeAccounts covers admin account management.
	ScopeAccounts Scope = "accounts"
	// ScopeSelf covers the caller's own profile and the dashboard.
	ScopeSelf Scope = "self"
)

// Authorize reports whether role may call method on scope.
//
//	scope      admin         superadmin
//	directory  read only     read/write
//	accounts   denied        read/write
//	self       read/write    read/write
func Authorize(role Role, scope Scope, method string) bool {
	if !role.Valid() {
		return false
	}
	switch scope {
	case ScopeSelf:
		return true
	case ScopeAccounts:
		return role == RoleSuperAdmin
	case ScopeDirectory:
		return role == RoleSuperAdmin || isSafeMethod(method)
	default:
		return false
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
