package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/notes-app/models"
	"github.com/Dosada05/notes-app/repositories"
	"github.com/Dosada05/notes-app/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo, *fakeOrgRepo, *TokenIssuer) {
	t.Helper()
	users := newFakeUserRepo()
	orgs := newFakeOrgRepo(users)
	tokens := NewTokenIssuer("test-secret", 15*time.Minute, time.Hour)
	return NewAuthService(users, orgs, tokens), users, orgs, tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _, orgs, tokens := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: " Ann ", Email: "Ann@Example.com", Password: "Abcdef12"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	require.NoError(t, orgs.Create(ctx, nil, &models.Organization{Name: "Acme", OwnerID: user.ID}))
	require.NoError(t, orgs.AddMember(ctx, nil, &models.Member{OrganizationID: 1, UserID: user.ID, Role: models.RoleOwner}))

	res, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "Abcdef12"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Empty(t, res.User.PasswordHash)
	require.Len(t, res.Organizations, 1)
	assert.Equal(t, models.RoleOwner, res.Organizations[0].Role)

	claims, err := tokens.Parse(res.Tokens.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, 15*time.Minute, res.Tokens.AccessTokenTTL)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "bad", Password: "short"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, []string{validator.MsgInvalidEmail}, vErr.Fields["email"])
	assert.Equal(t, []string{validator.MsgPasswordTooShort, validator.MsgPasswordComplexity}, vErr.Fields["password"])
	assert.Equal(t, []string{"Name is required"}, vErr.Fields["name"])
}

func TestAuthService_RegisterRejectsPasswordBcryptCannotHash(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)

	password := "Aa1" + strings.Repeat("x", 80)
	_, err := svc.Register(context.Background(), RegisterInput{Name: "Long", Email: "long@example.com", Password: password})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, validator.FieldErrors{"password": {validator.MsgPasswordTooLong}}, vErr.Fields)

	_, err = users.GetByEmail(context.Background(), "long@example.com")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "Abcdef12"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "A@example.com", Password: "Abcdef12"})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "Abcdef12"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "Wrong1234"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "missing@example.com", Password: "Abcdef12"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _, _, tokens := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "Abcdef12"})
	require.NoError(t, err)
	pair, err := tokens.Issue(user)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := tokens.Parse(refreshed.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	ghost, err := tokens.Issue(&models.User{ID: 999})
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, ghost.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.GetCurrentUser(ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "Abcdef12"})
	require.NoError(t, err)
	got, err := svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)
}

func TestTokenIssuer_Parse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, time.Hour)
	user := &models.User{ID: 5, Email: "a@example.com"}

	pair, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, 5, claims.UserID)
	assert.Equal(t, "5", claims.Subject)

	_, err = issuer.Parse(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenIssuer("other-secret", time.Minute, time.Hour)
	_, err = other.Parse(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("secret", time.Minute, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(user)
	require.NoError(t, err)
	_, err = issuer.Parse(old.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
