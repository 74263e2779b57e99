// Package permissions provides utilities for checking JSONB array permissions
// against required permissions with support for wildcards.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "inventory.*")
//   - "resource.action" - Specific action (e.g., "inventory.read")
//   - "resource.subresource.action" - Nested permission (e.g., "staff.documents.upload")
package permissions

import (
	"strings"
)

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "inventory.*" matches "inventory.read", "inventory.write", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true // No permission required
	}

	for _, p := range userPerms {
		if p == "*" {
			return true // Full admin access
		}
		if p == required {
			return true // Exact match
		}
		// Check wildcard patterns like "inventory.*"
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the user has all of the required permissions.
func HasAllPermissions(userPerms []string, required []string) bool {
	for _, req := range required {
		if !HasPermission(userPerms, req) {
			return false
		}
	}
	return true
}

// ExpandWildcard expands a wildcard permission pattern to check if it covers
// a set of specific permissions. Returns the list of permissions that would be covered.
func ExpandWildcard(pattern string, allKnownPerms []string) []string {
	if pattern == "*" {
		return allKnownPerms
	}

	if !strings.HasSuffix(pattern, ".*") {
		// Not a wildcard, return as-is if it exists
		for _, p := range allKnownPerms {
			if p == pattern {
				return []string{pattern}
			}
		}
		return nil
	}

	prefix := strings.TrimSuffix(pattern, ".*")
	var matches []string
	for _, p := range allKnownPerms {
		if strings.HasPrefix(p, prefix+".") {
			matches = append(matches, p)
		}
	}
	return matches
}

// FilterByPrefix returns all permissions that match a given prefix.
// Useful for getting all permissions in a category (e.g., "inventory").
func FilterByPrefix(perms []string, prefix string) []string {
	var matches []string
	for _, p := range perms {
		if strings.HasPrefix(p, prefix+".") || p == prefix {
			matches = append(matches, p)
		}
	}
	return matches
}

// MergePermissions merges multiple permission sets, removing duplicates.
// Useful for combining role permissions with per-user overrides.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, set := range sets {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}

// RemovePermissions removes specific permissions from a set.
// Useful for applying permission revocations.
func RemovePermissions(perms []string, toRemove []string) []string {
	removeSet := make(map[string]bool)
	for _, p := range toRemove {
		removeSet[p] = true
	}

	var result []string
	for _, p := range perms {
		if !removeSet[p] {
			result = append(result, p)
		}
	}

	return result
}

// CommonPermissions is a list of standard permissions used across the API.
// This can be used for validation and autocomplete.
var CommonPermissions = []string{
	// Inventory permissions
	"inventory.read",
	"inventory.write",
	"inventory.delete",
	"inventory.issue",
	"inventory.receive",
	"inventory.export",
	"inventory.*",

	// Staff permissions
	"staff.read",
	"staff.write",
	"staff.delete",
	"staff.leave.review",
	"staff.shifts.manage",
	"staff.*",

	// Appointment permissions
	"appointments.read",
	"appointments.book",
	"appointments.manage",
	"appointments.*",

	// Report permissions
	"reports.read",
	"reports.write",
	"reports.export",
	"reports.*",

	// Profile permissions (self-management)
	"profile.read",
	"profile.update",
	"profile.password.change",
	"profile.*",

	// Admin permissions
	"admin.settings",
	"admin.activity.read",
	"admin.*",

	// Full access
	"*",
}

// RolePermissions maps each clinic role to its default permission set.
var RolePermissions = map[string][]string{
	"admin": {"*"},
	"dentist": {
		"inventory.read",
		"inventory.issue",
		"appointments.*",
		"reports.read",
		"staff.read",
		"profile.*",
	},
	"receptionist": {
		"inventory.*",
		"appointments.*",
		"staff.read",
		"profile.*",
	},
	"radiologist": {
		"reports.*",
		"appointments.read",
		"profile.*",
	},
	"lab": {
		"inventory.read",
		"reports.read",
		"profile.*",
	},
	"patient": {
		"appointments.read",
		"appointments.book",
		"profile.*",
	},
}

// ForRole returns the default permissions for a role. Unknown roles get none.
func ForRole(role string) []string {
	return RolePermissions[role]
}

// IsValidPermission checks if a permission string is in the known list.
// Allows wildcards and custom permissions not in the standard list.
func IsValidPermission(perm string) bool {
	// Allow wildcard
	if perm == "*" {
		return true
	}

	// Check against known permissions
	for _, p := range CommonPermissions {
		if p == perm {
			return true
		}
	}

	// Allow any permission that follows the pattern resource.action
	parts := strings.Split(perm, ".")
	return len(parts) >= 2
}
