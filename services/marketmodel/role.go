package marketmodel

import (
	"fmt"
	"strings"
)

// Role is closed: anything else is rejected when parsed at the boundary,
// so services never see an unrecognized role.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleOwner    Role = "OWNER"
)

func ParseRole(value string) (Role, error) {
	switch strings.ToUpper(value) {
	case string(RoleCustomer):
		return RoleCustomer, nil
	case string(RoleOwner):
		return RoleOwner, nil
	}
	return "", fmt.Errorf("unrecognized role %q", value)
}

func (r Role) String() string {
	return string(r)
}
