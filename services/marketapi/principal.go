package marketapi

import (
	"fmt"
	"net/http"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

const (
	memberUIDHeader  = "X-Member-Uid"
	memberRoleHeader = "X-Member-Role"
)

// Principal is the verified identity extracted at the boundary. The
// fronting identity proxy has already validated the credential; services
// receive the principal as an explicit parameter, never via ambient state.
type Principal struct {
	MemberUID string
	Role      marketmodel.Role
}

func PrincipalFromRequest(r *http.Request) (Principal, error) {
	memberUID := r.Header.Get(memberUIDHeader)
	if memberUID == "" {
		return Principal{}, myerrors.NewAuthenticationError(fmt.Errorf("missing %s header", memberUIDHeader))
	}

	role, err := marketmodel.ParseRole(r.Header.Get(memberRoleHeader))
	if err != nil {
		return Principal{}, myerrors.NewInvalidInputError(err)
	}

	return Principal{
		MemberUID: memberUID,
		Role:      role,
	}, nil
}
