package auth

import (
	"context"

	"github.com/pagemill/cms-backend/internal/utils"
)

// PrincipalInfo resolves verified user IDs into Principals for the
// authorization middleware. The role flag is read fresh from the store on
// every request, so a demoted admin loses access without waiting for their
// token to expire.
type PrincipalInfo struct {
	store Store
}

func NewPrincipalInfo(store Store) PrincipalInfo {
	return PrincipalInfo{store: store}
}

func (pi PrincipalInfo) FindPrincipalByID(ctx context.Context, id string) (utils.Principal, error) {
	user, err := pi.store.FindByID(ctx, id)
	if err != nil {
		return utils.Principal{}, err
	}
	return utils.Principal{
		ID:      user.UserID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	}, nil
}
