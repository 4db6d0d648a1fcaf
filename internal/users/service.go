package users

import (
	"context"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/models"
)

// Service caches identity-provider profiles so document views can show
// names and avatars without another round trip to the provider.
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims refreshes the profile cache from a verified claims map.
// A claims map without a subject is ignored (nil, nil): the auth middleware
// already rejected such tokens, so this only guards direct callers.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	avatar, _ := claims["picture"].(string)
	return s.repo.UpsertBySub(ctx, &models.User{
		Sub:       sub,
		Email:     email,
		Name:      name,
		AvatarURL: avatar,
	})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
