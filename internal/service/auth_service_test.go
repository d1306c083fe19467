package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

func newAuthFixture() (*AuthService, *fakeProfileRepo) {
	profiles := newFakeProfileRepo()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}}
	return NewAuthService(cfg, profiles), profiles
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("register issues a citizen token", func(t *testing.T) {
		svc, _ := newAuthFixture()

		profile, token, expiresAt, err := svc.Register(ctx, "Sam Citizen", "Sam@Example.com ", "hunter22", nil, nil)
		require.NoError(t, err)

		assert.Equal(t, domain.RoleCitizen, profile.Role)
		assert.Equal(t, "sam@example.com", profile.Email)
		assert.NotEmpty(t, token)
		assert.False(t, expiresAt.IsZero())

		claims, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, claims.ProfileID)
		assert.Equal(t, domain.RoleCitizen, claims.Role)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, _ := newAuthFixture()

		_, _, _, err := svc.Register(ctx, "Sam", "sam@example.com", "hunter22", nil, nil)
		require.NoError(t, err)
		_, _, _, err = svc.Register(ctx, "Sam Again", "sam@example.com", "hunter23", nil, nil)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("login round-trips the password", func(t *testing.T) {
		svc, _ := newAuthFixture()

		_, _, _, err := svc.Register(ctx, "Sam", "sam@example.com", "hunter22", nil, nil)
		require.NoError(t, err)

		profile, token, _, err := svc.Login(ctx, "sam@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", profile.Email)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password fails without revealing which field", func(t *testing.T) {
		svc, _ := newAuthFixture()

		_, _, _, err := svc.Register(ctx, "Sam", "sam@example.com", "hunter22", nil, nil)
		require.NoError(t, err)

		_, _, _, err = svc.Login(ctx, "sam@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

		_, _, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
	})
}
