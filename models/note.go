package models

import "time"

type Note struct {
	ID             int       `json:"id" db:"id"`
	OrganizationID int       `json:"organization_id" db:"organization_id"`
	ParentID       *int      `json:"parent_id" db:"parent_id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	Position       int       `json:"position" db:"position"`
	CreatedBy      int       `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Attachments []Attachment `json:"attachments,omitempty" db:"-"`
}

// NoteNode - узел дерева заметок для боковой панели.
type NoteNode struct {
	ID       int         `json:"id"`
	ParentID *int        `json:"parent_id"`
	Title    string      `json:"title"`
	Position int         `json:"position"`
	Children []*NoteNode `json:"children"`
}

type Attachment struct {
	ID          int       `json:"id" db:"id"`
	NoteID      int       `json:"note_id" db:"note_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Key         string    `json:"-" db:"storage_key"`
	URL         string    `json:"url,omitempty" db:"-"`
	UploadedBy  int       `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
