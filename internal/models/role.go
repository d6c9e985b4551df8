package models

import (
	"fmt"
	"strings"
)

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// roleRanks orders roles by privilege. Unknown roles have rank 0.
var roleRanks = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// ParseRole converts a stored or submitted role name into a Role,
// rejecting anything outside the allow-list.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return role, nil
}

// Valid reports whether the role is a member of the allow-list.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the privilege order.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r grants at least the privileges of required.
// An unknown role never satisfies any requirement.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Rank() >= required.Rank()
}

func (r Role) String() string {
	return string(r)
}
