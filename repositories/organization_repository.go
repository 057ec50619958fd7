package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/notes-app/models"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberNotFound       = errors.New("organization member not found")
	ErrMemberConflict       = errors.New("user is already a member of the organization")
	ErrMemberUserInvalid    = errors.New("organization member user or organization invalid")
)

type OrganizationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, org *models.Organization) error
	GetByID(ctx context.Context, id int) (*models.Organization, error)
	ListByUser(ctx context.Context, userID int) ([]models.Organization, error)

	AddMember(ctx context.Context, exec SQLExecutor, member *models.Member) error
	GetMember(ctx context.Context, orgID, userID int) (*models.Member, error)
	ListMembers(ctx context.Context, orgID int) ([]models.Member, error)
	RemoveMember(ctx context.Context, orgID, userID int) error
}

type postgresOrganizationRepository struct {
	db *sql.DB
}

func NewPostgresOrganizationRepository(db *sql.DB) OrganizationRepository {
	return &postgresOrganizationRepository{db: db}
}

func (r *postgresOrganizationRepository) Create(ctx context.Context, exec SQLExecutor, org *models.Organization) error {
	query := `
		INSERT INTO organizations (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, org.Name, org.OwnerID).Scan(&org.ID, &org.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

func (r *postgresOrganizationRepository) GetByID(ctx context.Context, id int) (*models.Organization, error) {
	query := `SELECT id, name, owner_id, created_at FROM organizations WHERE id = $1`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return org, nil
}

// ListByUser возвращает организации пользователя вместе с его ролью в каждой.
func (r *postgresOrganizationRepository) ListByUser(ctx context.Context, userID int) ([]models.Organization, error) {
	query := `
		SELECT o.id, o.name, o.owner_id, o.created_at, m.role
		FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY m.joined_at ASC, o.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := make([]models.Organization, 0)
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.Role); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *postgresOrganizationRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.Member) error {
	query := `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query,
		member.OrganizationID,
		member.UserID,
		member.Role,
	).Scan(&member.JoinedAt)

	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch code {
			case pqUniqueViolation:
				if constraint == "organization_members_pkey" {
					return ErrMemberConflict
				}
			case pqForeignKeyViolation:
				return ErrMemberUserInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresOrganizationRepository) GetMember(ctx context.Context, orgID, userID int) (*models.Member, error) {
	query := `
		SELECT organization_id, user_id, role, joined_at
		FROM organization_members
		WHERE organization_id = $1 AND user_id = $2`

	m := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, orgID, userID).Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresOrganizationRepository) ListMembers(ctx context.Context, orgID int) ([]models.Member, error) {
	query := `
		SELECT m.organization_id, m.user_id, m.role, m.joined_at,
		       u.id, u.name, u.email, u.created_at
		FROM organization_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.joined_at ASC, u.id ASC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var m models.Member
		var u models.User
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt, &u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		m.User = &u
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresOrganizationRepository) RemoveMember(ctx context.Context, orgID, userID int) error {
	query := `DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, orgID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
