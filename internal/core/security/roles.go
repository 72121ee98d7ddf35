// Package security holds the role model and the CEL access policy.
package security

import "strings"

// Role is the single role a user holds.
type Role string

const (
	RoleAdmin  Role = "Administrador"
	RoleEditor Role = "Editor"
	RoleReader Role = "Lector"
)

// Roles lists every role, most privileged first.
var Roles = []Role{RoleAdmin, RoleEditor, RoleReader}

// ParseRole matches raw case-insensitively against the known roles.
func ParseRole(raw string) (Role, bool) {
	raw = strings.TrimSpace(raw)
	for _, r := range Roles {
		if strings.EqualFold(raw, string(r)) {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }
