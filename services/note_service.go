package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/Dosada05/notes-app/models"
	"github.com/Dosada05/notes-app/realtime"
	"github.com/Dosada05/notes-app/repositories"
	"github.com/Dosada05/notes-app/storage"
	"github.com/Dosada05/notes-app/validator"
	"golang.org/x/sync/errgroup"
)

const (
	noteTitleMaxLength = 200
	MaxAttachmentSize  = 10 << 20
)

// Broadcaster - рассылка событий открытым боковым панелям (см. realtime.Hub).
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type NoteService interface {
	CreateNote(ctx context.Context, orgID, currentUserID int, input CreateNoteInput) (*models.Note, error)
	GetNote(ctx context.Context, orgID, noteID, currentUserID int) (*models.Note, error)
	GetTree(ctx context.Context, orgID, currentUserID int) ([]*models.NoteNode, error)
	UpdateNote(ctx context.Context, orgID, noteID, currentUserID int, input UpdateNoteInput) (*models.Note, error)
	MoveNote(ctx context.Context, orgID, noteID, currentUserID int, input MoveNoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, orgID, noteID, currentUserID int) error
	UploadAttachment(ctx context.Context, orgID, noteID, currentUserID int, input UploadAttachmentInput) (*models.Attachment, error)
}

type CreateNoteInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ParentID *int   `json:"parent_id"`
}

type UpdateNoteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type MoveNoteInput struct {
	ParentID *int `json:"parent_id"`
	Position int  `json:"position"`
}

type UploadAttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type noteService struct {
	tx          repositories.Transactor
	noteRepo    repositories.NoteRepository
	orgRepo     repositories.OrganizationRepository
	uploader    storage.FileUploader
	broadcaster Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

// NewNoteService: uploader может быть nil, если хранилище вложений не настроено.
func NewNoteService(
	tx repositories.Transactor,
	noteRepo repositories.NoteRepository,
	orgRepo repositories.OrganizationRepository,
	uploader storage.FileUploader,
	broadcaster Broadcaster,
	logger *slog.Logger,
) NoteService {
	return &noteService{
		tx:          tx,
		noteRepo:    noteRepo,
		orgRepo:     orgRepo,
		uploader:    uploader,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *noteService) CreateNote(ctx context.Context, orgID, currentUserID int, input CreateNoteInput) (*models.Note, error) {
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	v := validator.New()
	validateNoteTitle(v, title)
	if err := newValidationError(v); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := s.getOrgNote(ctx, orgID, *input.ParentID); err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				return nil, ErrNoteParentInvalid
			}
			return nil, err
		}
	}

	position, err := s.noteRepo.NextPosition(ctx, orgID, input.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute note position: %w", err)
	}

	note := &models.Note{
		OrganizationID: orgID,
		ParentID:       input.ParentID,
		Title:          title,
		Content:        input.Content,
		Position:       position,
		CreatedBy:      currentUserID,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		if errors.Is(err, repositories.ErrNoteParentInvalid) {
			return nil, ErrNoteParentInvalid
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.notifyTreeChanged(orgID, note.ID, "created")
	return note, nil
}

// GetNote загружает заметку и ее вложения параллельно.
func (s *noteService) GetNote(ctx context.Context, orgID, noteID, currentUserID int) (*models.Note, error) {
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return nil, err
	}

	var note *models.Note
	var attachments []models.Attachment

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.getOrgNote(gCtx, orgID, noteID)
		if err != nil {
			return err
		}
		note = n
		return nil
	})
	g.Go(func() error {
		a, err := s.noteRepo.ListAttachments(gCtx, noteID)
		if err != nil {
			return fmt.Errorf("failed to list attachments for note %d: %w", noteID, err)
		}
		attachments = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range attachments {
		attachments[i].URL = s.publicURL(attachments[i].Key)
	}
	note.Attachments = attachments
	return note, nil
}

func (s *noteService) GetTree(ctx context.Context, orgID, currentUserID int) ([]*models.NoteNode, error) {
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return nil, err
	}

	notes, err := s.noteRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for organization %d: %w", orgID, err)
	}
	return BuildNoteTree(notes), nil
}

func (s *noteService) UpdateNote(ctx context.Context, orgID, noteID, currentUserID int, input UpdateNoteInput) (*models.Note, error) {
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return nil, err
	}

	note, err := s.getOrgNote(ctx, orgID, noteID)
	if err != nil {
		return nil, err
	}

	titleChanged := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		v := validator.New()
		validateNoteTitle(v, title)
		if err := newValidationError(v); err != nil {
			return nil, err
		}
		titleChanged = title != note.Title
		note.Title = title
	}
	if input.Content != nil {
		note.Content = *input.Content
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to update note %d: %w", noteID, err)
	}

	// содержимое в дереве не отображается
	if titleChanged {
		s.notifyTreeChanged(orgID, note.ID, "renamed")
	}
	return note, nil
}

func (s *noteService) MoveNote(ctx context.Context, orgID, noteID, currentUserID int, input MoveNoteInput) (*models.Note, error) {
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return nil, err
	}
	if input.Position < 0 {
		v := validator.New()
		v.AddError("position", "Position must not be negative")
		return nil, newValidationError(v)
	}

	// чтение, проверка цикла и запись под блокировкой строк организации
	var note *models.Note
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		notes, err := s.noteRepo.LockByOrganization(ctx, exec, orgID)
		if err != nil {
			return fmt.Errorf("failed to lock notes for organization %d: %w", orgID, err)
		}

		parentFound := input.ParentID == nil
		for i := range notes {
			if notes[i].ID == noteID {
				note = &notes[i]
			}
			if input.ParentID != nil && notes[i].ID == *input.ParentID {
				parentFound = true
			}
		}
		if note == nil {
			return ErrNoteNotFound
		}
		if !parentFound {
			return ErrNoteParentInvalid
		}
		if input.ParentID != nil && isDescendant(notes, noteID, *input.ParentID) {
			return ErrNoteCycle
		}

		if err := s.noteRepo.UpdatePlacement(ctx, exec, noteID, input.ParentID, input.Position); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNoteNotFound):
				return ErrNoteNotFound
			case errors.Is(err, repositories.ErrNoteParentInvalid):
				return ErrNoteParentInvalid
			}
			return fmt.Errorf("failed to move note %d: %w", noteID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	note.ParentID = input.ParentID
	note.Position = input.Position
	s.notifyTreeChanged(orgID, noteID, "moved")
	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, orgID, noteID, currentUserID int) error {
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return err
	}
	if _, err := s.getOrgNote(ctx, orgID, noteID); err != nil {
		return err
	}

	// строки вложений уходят каскадом вместе с заметками, объекты в R2 удаляем сами
	var keys []string
	if s.uploader != nil {
		k, err := s.noteRepo.ListSubtreeAttachmentKeys(ctx, noteID)
		if err != nil {
			return fmt.Errorf("failed to list attachments under note %d: %w", noteID, err)
		}
		keys = k
	}

	if err := s.noteRepo.Delete(ctx, noteID); err != nil {
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note %d: %w", noteID, err)
	}

	for _, key := range keys {
		if err := s.uploader.Delete(ctx, key); err != nil {
			s.logger.Error("failed to delete attachment object", slog.Int("note_id", noteID), slog.String("key", key), slog.Any("error", err))
		}
	}

	s.notifyTreeChanged(orgID, noteID, "deleted")
	return nil
}

func (s *noteService) UploadAttachment(ctx context.Context, orgID, noteID, currentUserID int, input UploadAttachmentInput) (*models.Attachment, error) {
	if s.uploader == nil {
		return nil, ErrAttachmentsDisabled
	}
	if input.Size > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}
	if err := requireMember(ctx, s.orgRepo, orgID, currentUserID); err != nil {
		return nil, err
	}
	if _, err := s.getOrgNote(ctx, orgID, noteID); err != nil {
		return nil, err
	}

	fileName := path.Base(strings.ReplaceAll(input.FileName, "\\", "/"))
	if fileName == "." || fileName == "/" || fileName == "" {
		fileName = "file"
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("organizations/%d/notes/%d/%d_%s", orgID, noteID, s.now().UnixNano(), fileName)

	uploadResult, err := s.uploader.Upload(ctx, key, contentType, io.LimitReader(input.Body, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	attachment := &models.Attachment{
		NoteID:      noteID,
		FileName:    fileName,
		ContentType: contentType,
		Key:         uploadResult.Key,
		UploadedBy:  currentUserID,
	}
	if err := s.noteRepo.AddAttachment(ctx, attachment); err != nil {
		if delErr := s.uploader.Delete(ctx, uploadResult.Key); delErr != nil {
			s.logger.Error("failed to clean up orphaned attachment", slog.String("key", uploadResult.Key), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}

	attachment.URL = uploadResult.Location
	return attachment, nil
}

// getOrgNote возвращает ErrNoteNotFound и для заметок другой организации.
func (s *noteService) getOrgNote(ctx context.Context, orgID, noteID int) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note %d: %w", noteID, err)
	}
	if note.OrganizationID != orgID {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *noteService) publicURL(key string) string {
	if s.uploader == nil {
		return ""
	}
	return s.uploader.GetPublicURL(key)
}

func (s *noteService) notifyTreeChanged(orgID, noteID int, action string) {
	if s.broadcaster == nil {
		return
	}
	room := realtime.OrganizationRoom(orgID)
	s.broadcaster.BroadcastToRoom(room, realtime.Message{
		Type:    realtime.MessageNoteTreeUpdated,
		RoomID:  room,
		Payload: map[string]interface{}{"note_id": noteID, "action": action},
	})
}

func validateNoteTitle(v *validator.Validator, title string) {
	v.Check(validator.NotBlank(title), "title", "Title is required")
	v.Check(validator.MaxLength(title, noteTitleMaxLength), "title", fmt.Sprintf("Title must be at most %d characters", noteTitleMaxLength))
}
