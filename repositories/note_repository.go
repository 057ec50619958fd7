package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/notes-app/models"
)

var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrNoteParentInvalid = errors.New("note parent invalid")
)

type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id int) (*models.Note, error)
	ListByOrganization(ctx context.Context, orgID int) ([]models.Note, error)
	// LockByOrganization читает заметки организации с блокировкой строк до конца транзакции.
	LockByOrganization(ctx context.Context, exec SQLExecutor, orgID int) ([]models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	UpdatePlacement(ctx context.Context, exec SQLExecutor, id int, parentID *int, position int) error
	Delete(ctx context.Context, id int) error
	// ListSubtreeAttachmentKeys возвращает ключи вложений заметки и всех ее потомков.
	ListSubtreeAttachmentKeys(ctx context.Context, noteID int) ([]string, error)
	// NextPosition возвращает позицию для новой заметки в конце списка соседей.
	NextPosition(ctx context.Context, orgID int, parentID *int) (int, error)

	AddAttachment(ctx context.Context, a *models.Attachment) error
	ListAttachments(ctx context.Context, noteID int) ([]models.Attachment, error)
}

type postgresNoteRepository struct {
	db *sql.DB
}

func NewPostgresNoteRepository(db *sql.DB) NoteRepository {
	return &postgresNoteRepository{db: db}
}

func (r *postgresNoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (organization_id, parent_id, title, content, position, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		note.OrganizationID,
		note.ParentID,
		note.Title,
		note.Content,
		note.Position,
		note.CreatedBy,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrNoteParentInvalid
		}
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

func (r *postgresNoteRepository) GetByID(ctx context.Context, id int) (*models.Note, error) {
	query := `
		SELECT id, organization_id, parent_id, title, content, position, created_by, created_at, updated_at
		FROM notes
		WHERE id = $1`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

const selectNotesByOrganization = `
		SELECT id, organization_id, parent_id, title, content, position, created_by, created_at, updated_at
		FROM notes
		WHERE organization_id = $1
		ORDER BY position ASC, id ASC`

func (r *postgresNoteRepository) ListByOrganization(ctx context.Context, orgID int) ([]models.Note, error) {
	return queryNotes(ctx, r.db, selectNotesByOrganization, orgID)
}

func (r *postgresNoteRepository) LockByOrganization(ctx context.Context, exec SQLExecutor, orgID int) ([]models.Note, error) {
	return queryNotes(ctx, getExecutor(r.db, exec), selectNotesByOrganization+`
		FOR UPDATE`, orgID)
}

func queryNotes(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Note, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *postgresNoteRepository) Update(ctx context.Context, note *models.Note) error {
	query := `
		UPDATE notes SET
			title = $1,
			content = $2,
			updated_at = now()
		WHERE id = $3
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, note.Title, note.Content, note.ID).Scan(&note.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return err
	}
	return nil
}

func (r *postgresNoteRepository) UpdatePlacement(ctx context.Context, exec SQLExecutor, id int, parentID *int, position int) error {
	query := `UPDATE notes SET parent_id = $1, position = $2, updated_at = now() WHERE id = $3`
	result, err := getExecutor(r.db, exec).ExecContext(ctx, query, parentID, position, id)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrNoteParentInvalid
		}
		return err
	}
	return checkAffectedRows(result, ErrNoteNotFound)
}

// Delete удаляет заметку; дочерние заметки удаляются каскадно (ON DELETE CASCADE).
func (r *postgresNoteRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNoteNotFound)
}

func (r *postgresNoteRepository) ListSubtreeAttachmentKeys(ctx context.Context, noteID int) ([]string, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM notes WHERE id = $1
			UNION
			SELECT n.id FROM notes n JOIN subtree s ON n.parent_id = s.id
		)
		SELECT a.storage_key
		FROM note_attachments a
		JOIN subtree s ON a.note_id = s.id
		ORDER BY a.id ASC`

	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *postgresNoteRepository) NextPosition(ctx context.Context, orgID int, parentID *int) (int, error) {
	query := `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM notes
		WHERE organization_id = $1 AND parent_id IS NOT DISTINCT FROM $2`

	var pos int
	if err := r.db.QueryRowContext(ctx, query, orgID, parentID).Scan(&pos); err != nil {
		return 0, err
	}
	return pos, nil
}

func (r *postgresNoteRepository) AddAttachment(ctx context.Context, a *models.Attachment) error {
	query := `
		INSERT INTO note_attachments (note_id, file_name, content_type, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, a.NoteID, a.FileName, a.ContentType, a.Key, a.UploadedBy).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrNoteNotFound
		}
		return err
	}
	return nil
}

func (r *postgresNoteRepository) ListAttachments(ctx context.Context, noteID int) ([]models.Attachment, error) {
	query := `
		SELECT id, note_id, file_name, content_type, storage_key, uploaded_by, created_at
		FROM note_attachments
		WHERE note_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]models.Attachment, 0)
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.NoteID, &a.FileName, &a.ContentType, &a.Key, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return attachments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var note models.Note
	var parentID sql.NullInt64
	err := row.Scan(
		&note.ID,
		&note.OrganizationID,
		&parentID,
		&note.Title,
		&note.Content,
		&note.Position,
		&note.CreatedBy,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := int(parentID.Int64)
		note.ParentID = &id
	}
	return &note, nil
}
