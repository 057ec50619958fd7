package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Dosada05/notes-app/models"
	"github.com/Dosada05/notes-app/services"
	"github.com/Dosada05/notes-app/session"
	"github.com/Dosada05/notes-app/validator"
	"github.com/stretchr/testify/require"
)

var testIssuer = services.NewTokenIssuer("test-secret", 15*time.Minute, time.Hour)

func bearer(t *testing.T, r *http.Request, userID int) {
	t.Helper()
	pair, err := testIssuer.Issue(&models.User{ID: userID, Email: "u@example.com"})
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
}

func cookieStores() StoreFactory {
	return CookieStoreFactory(session.CookieOptions{})
}

type fakeAuthService struct {
	loginResult *services.LoginResult
	loginErr    error
	refreshPair *services.TokenPair
	refreshErr  error
	lastRefresh string
}

func (f *fakeAuthService) Register(_ context.Context, input services.RegisterInput) (*models.User, error) {
	return &models.User{ID: 1, Name: input.Name, Email: input.Email}, nil
}

func (f *fakeAuthService) Login(_ context.Context, _ services.LoginInput) (*services.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthService) Refresh(_ context.Context, refreshToken string) (*services.TokenPair, error) {
	f.lastRefresh = refreshToken
	return f.refreshPair, f.refreshErr
}

func (f *fakeAuthService) GetCurrentUser(_ context.Context, userID int) (*models.User, error) {
	return &models.User{ID: userID, Email: "u@example.com"}, nil
}

// fakeOrgService пропускает валидацию через настоящий validator.
type fakeOrgService struct {
	members map[int]bool
	added   []validator.AddMemberInput
}

func (f *fakeOrgService) CreateOrganization(_ context.Context, input services.CreateOrganizationInput, ownerID int) (*models.Organization, error) {
	return &models.Organization{ID: 1, Name: input.Name, OwnerID: ownerID, Role: models.RoleOwner}, nil
}

func (f *fakeOrgService) ListForUser(context.Context, int) ([]models.Organization, error) {
	return []models.Organization{}, nil
}

func (f *fakeOrgService) GetOrganization(_ context.Context, orgID, currentUserID int) (*models.Organization, error) {
	if !f.members[currentUserID] {
		return nil, services.ErrNotOrganizationMember
	}
	return &models.Organization{ID: orgID, Name: "Acme"}, nil
}

func (f *fakeOrgService) RequireMember(_ context.Context, orgID, userID int) (*models.Member, error) {
	if !f.members[userID] {
		return nil, services.ErrNotOrganizationMember
	}
	return &models.Member{OrganizationID: orgID, UserID: userID, Role: models.RoleMember}, nil
}

func (f *fakeOrgService) AddMember(_ context.Context, orgID, _ int, input validator.AddMemberInput) (*models.Member, error) {
	res := validator.ValidateAddMember(input)
	if !res.OK() {
		return nil, &services.ValidationError{Fields: res.Errors}
	}
	f.added = append(f.added, res.Value)
	return &models.Member{OrganizationID: orgID, UserID: 42, Role: models.RoleMember}, nil
}

func (f *fakeOrgService) RemoveMember(context.Context, int, int, int) error {
	return services.ErrCannotRemoveOwner
}

type failingStore struct {
	session.Store
}

func (s failingStore) Delete(string) error {
	return errors.New("store unavailable")
}
