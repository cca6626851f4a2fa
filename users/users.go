package users

import (
	"fmt"
	"slices"
	"strings"
)

// RoleType is the marketplace role carried by a session.
type RoleType string

const (
	RoleCustomer RoleType = "CUSTOMER" // Homeowner running renovation projects
	RoleVendor   RoleType = "VENDOR"   // Contractor bidding on project phases
	RoleAdmin    RoleType = "ADMIN"    // Marketplace operator
)

// AllRoles lists every known role in display order.
var AllRoles = []RoleType{RoleCustomer, RoleVendor, RoleAdmin}

func (r RoleType) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r RoleType) Valid() bool {
	return slices.Contains(AllRoles, r)
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (RoleType, error) {
	role := RoleType(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// ParseRoles parses a comma separated role list. Empty input yields nil.
func ParseRoles(list string) ([]RoleType, error) {
	var roles []RoleType
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		role, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Allowed reports whether role may see a view restricted to allowed.
// An empty allow-list admits any role.
func Allowed(role RoleType, allowed []RoleType) bool {
	if len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, role)
}
