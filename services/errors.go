package services

import (
	"errors"

	"github.com/Dosada05/notes-app/validator"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrCannotRemoveOwner   = errors.New("cannot remove the organization owner")
	ErrNoteCycle           = errors.New("note cannot be moved under itself or its descendant")
	ErrNoteParentInvalid   = errors.New("parent note does not belong to the organization")
	ErrAttachmentsDisabled = errors.New("attachments are not available")
	ErrAttachmentTooLarge  = errors.New("attachment exceeds the maximum allowed size")

	// Ошибки конфликтов
	ErrUserEmailConflict   = errors.New("email address is already in use")
	ErrMemberAlreadyExists = errors.New("user is already a member of this organization")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrNotOrganizationMember  = errors.New("current user is not a member of this organization")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberNotFound       = errors.New("organization member not found")
	ErrNoteNotFound         = errors.New("note not found")
)

// ValidationError несет ошибки по полям формы. errors.Is(err, ErrValidationFailed) == true.
type ValidationError struct {
	Fields validator.FieldErrors
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func newValidationError(v *validator.Validator) error {
	if v.Valid() {
		return nil
	}
	return &ValidationError{Fields: v.Errors}
}
