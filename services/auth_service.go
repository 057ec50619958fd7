package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/notes-app/models"
	"github.com/Dosada05/notes-app/repositories"
	"github.com/Dosada05/notes-app/validator"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetCurrentUser(ctx context.Context, userID int) (*models.User, error)
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	User          *models.User
	Organizations []models.Organization
	Tokens        TokenPair
}

type authService struct {
	userRepo repositories.UserRepository
	orgRepo  repositories.OrganizationRepository
	tokens   *TokenIssuer
}

func NewAuthService(userRepo repositories.UserRepository, orgRepo repositories.OrganizationRepository, tokens *TokenIssuer) AuthService {
	return &authService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		tokens:   tokens,
	}
}

// Register создает пользователя. К паролю применяются те же правила,
// что и при добавлении участника в организацию.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	res := validator.ValidateAddMember(validator.AddMemberInput{Email: input.Email, Password: input.Password})
	v := validator.New()
	mergeFieldErrors(v, res.Errors)
	checkPasswordStorable(v, input.Password)
	v.Check(validator.NotBlank(input.Name), "name", "Name is required")
	v.Check(validator.MaxLength(input.Name, 100), "name", "Name must be at most 100 characters")
	if err := newValidationError(v); err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}
	user.PasswordHash = ""

	orgs, err := s.orgRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for user %d: %w", user.ID, err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Organizations: orgs, Tokens: pair}, nil
}

// Refresh выдает новую пару токенов по действующему refresh токену.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrAuthenticationFailed
	}
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user %d: %w", claims.UserID, err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func mergeFieldErrors(v *validator.Validator, errs validator.FieldErrors) {
	for field, msgs := range errs {
		for _, msg := range msgs {
			v.AddError(field, msg)
		}
	}
}

// checkPasswordStorable отсекает пароли, которые bcrypt не сможет захешировать.
func checkPasswordStorable(v *validator.Validator, password string) {
	v.Check(validator.MaxBytes(password, validator.PasswordMaxBytes), "password", validator.MsgPasswordTooLong)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
