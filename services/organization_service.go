package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/notes-app/models"
	"github.com/Dosada05/notes-app/realtime"
	"github.com/Dosada05/notes-app/repositories"
	"github.com/Dosada05/notes-app/validator"
	"golang.org/x/sync/errgroup"
)

type OrganizationService interface {
	CreateOrganization(ctx context.Context, input CreateOrganizationInput, ownerID int) (*models.Organization, error)
	ListForUser(ctx context.Context, userID int) ([]models.Organization, error)
	GetOrganization(ctx context.Context, orgID, currentUserID int) (*models.Organization, error)
	RequireMember(ctx context.Context, orgID, userID int) (*models.Member, error)
	AddMember(ctx context.Context, orgID, currentUserID int, input validator.AddMemberInput) (*models.Member, error)
	RemoveMember(ctx context.Context, orgID, userID, currentUserID int) error
}

// MemberDisconnector закрывает realtime-соединения участника (см. realtime.Hub).
type MemberDisconnector interface {
	DisconnectUser(roomID string, userID int) int
}

type CreateOrganizationInput struct {
	Name string `json:"name"`
}

type organizationService struct {
	tx       repositories.Transactor
	orgRepo  repositories.OrganizationRepository
	userRepo repositories.UserRepository
	mailer   Mailer
	sockets  MemberDisconnector
	logger   *slog.Logger
}

// NewOrganizationService: mailer и sockets могут быть nil.
func NewOrganizationService(
	tx repositories.Transactor,
	orgRepo repositories.OrganizationRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	sockets MemberDisconnector,
	logger *slog.Logger,
) OrganizationService {
	return &organizationService{
		tx:       tx,
		orgRepo:  orgRepo,
		userRepo: userRepo,
		mailer:   mailer,
		sockets:  sockets,
		logger:   logger,
	}
}

func (s *organizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput, ownerID int) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	v := validator.New()
	v.Check(validator.NotBlank(name), "name", "Organization name is required")
	v.Check(validator.MaxLength(name, 100), "name", "Organization name must be at most 100 characters")
	if err := newValidationError(v); err != nil {
		return nil, err
	}

	org := &models.Organization{Name: name, OwnerID: ownerID}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.orgRepo.Create(ctx, exec, org); err != nil {
			return err
		}
		return s.orgRepo.AddMember(ctx, exec, &models.Member{
			OrganizationID: org.ID,
			UserID:         ownerID,
			Role:           models.RoleOwner,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrMemberUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	org.Role = models.RoleOwner
	return org, nil
}

func (s *organizationService) ListForUser(ctx context.Context, userID int) ([]models.Organization, error) {
	orgs, err := s.orgRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for user %d: %w", userID, err)
	}
	return orgs, nil
}

// GetOrganization загружает организацию и список участников параллельно.
func (s *organizationService) GetOrganization(ctx context.Context, orgID, currentUserID int) (*models.Organization, error) {
	member, err := s.RequireMember(ctx, orgID, currentUserID)
	if err != nil {
		return nil, err
	}

	var org *models.Organization
	var members []models.Member

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.orgRepo.GetByID(gCtx, orgID)
		if err != nil {
			if errors.Is(err, repositories.ErrOrganizationNotFound) {
				return ErrOrganizationNotFound
			}
			return fmt.Errorf("failed to get organization %d: %w", orgID, err)
		}
		org = o
		return nil
	})
	g.Go(func() error {
		m, err := s.orgRepo.ListMembers(gCtx, orgID)
		if err != nil {
			return fmt.Errorf("failed to list members of organization %d: %w", orgID, err)
		}
		members = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	org.Role = member.Role
	org.Members = members
	return org, nil
}

// RequireMember возвращает членство пользователя или ErrNotOrganizationMember.
func (s *organizationService) RequireMember(ctx context.Context, orgID, userID int) (*models.Member, error) {
	return getMember(ctx, s.orgRepo, orgID, userID)
}

// AddMember валидирует форму добавления участника. Существующий пользователь
// с таким email просто добавляется в организацию (пароль из формы не меняет
// его пароль); иначе создается новый пользователь.
func (s *organizationService) AddMember(ctx context.Context, orgID, currentUserID int, input validator.AddMemberInput) (*models.Member, error) {
	res := validator.ValidateAddMember(input)
	v := validator.New()
	mergeFieldErrors(v, res.Errors)
	checkPasswordStorable(v, input.Password)
	if err := newValidationError(v); err != nil {
		return nil, err
	}

	actor, err := s.RequireMember(ctx, orgID, currentUserID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanManageMembers() {
		return nil, ErrForbiddenOperation
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizationNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization %d: %w", orgID, err)
	}

	email := normalizeEmail(res.Value.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	newAccount := false
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		newAccount = true
		hash, hashErr := hashPassword(res.Value.Password)
		if hashErr != nil {
			return nil, hashErr
		}
		user = &models.User{
			Name:         nameFromEmail(email),
			Email:        email,
			PasswordHash: hash,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	member := &models.Member{
		OrganizationID: orgID,
		Role:           models.RoleMember,
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if newAccount {
			if err := s.userRepo.Create(ctx, exec, user); err != nil {
				return err
			}
		}
		member.UserID = user.ID
		return s.orgRepo.AddMember(ctx, exec, member)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberConflict):
			return nil, ErrMemberAlreadyExists
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to add member to organization %d: %w", orgID, err)
	}

	user.PasswordHash = ""
	member.User = user

	if s.mailer != nil {
		if err := s.mailer.SendMemberAddedEmail(user.Email, org.Name, newAccount); err != nil {
			s.logger.Warn("failed to send member added email",
				slog.Int("organization_id", orgID),
				slog.Int("user_id", user.ID),
				slog.Any("error", err))
		}
	}

	s.logger.Info("member added to organization",
		slog.Int("organization_id", orgID),
		slog.Int("user_id", user.ID),
		slog.Bool("new_account", newAccount))
	return member, nil
}

// RemoveMember: владелец и администраторы удаляют любого участника кроме
// владельца; участник может удалить сам себя.
func (s *organizationService) RemoveMember(ctx context.Context, orgID, userID, currentUserID int) error {
	actor, err := s.RequireMember(ctx, orgID, currentUserID)
	if err != nil {
		return err
	}
	if userID != currentUserID && !actor.Role.CanManageMembers() {
		return ErrForbiddenOperation
	}

	target, err := getMember(ctx, s.orgRepo, orgID, userID)
	if err != nil {
		if errors.Is(err, ErrNotOrganizationMember) {
			return ErrMemberNotFound
		}
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	if err := s.orgRepo.RemoveMember(ctx, orgID, userID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member %d from organization %d: %w", userID, orgID, err)
	}

	// права проверяются только при подключении, поэтому открытые сокеты закрываем здесь
	if s.sockets != nil {
		s.sockets.DisconnectUser(realtime.OrganizationRoom(orgID), userID)
	}
	return nil
}

func getMember(ctx context.Context, orgRepo repositories.OrganizationRepository, orgID, userID int) (*models.Member, error) {
	member, err := orgRepo.GetMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return member, nil
}

func requireMember(ctx context.Context, orgRepo repositories.OrganizationRepository, orgID, userID int) error {
	_, err := getMember(ctx, orgRepo, orgID, userID)
	return err
}

func nameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
