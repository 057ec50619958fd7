package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/notes-app/services"
)

// лимит тела multipart-запроса: файл плюс служебные поля формы
const maxUploadBodySize = services.MaxAttachmentSize + 1<<20

type NoteHandler struct {
	noteService services.NoteService
}

func NewNoteHandler(noteService services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// orgAndUser разбирает orgID из пути и текущего пользователя; при ошибке ответ уже записан.
func orgAndUser(w http.ResponseWriter, r *http.Request) (orgID, userID int, ok bool) {
	userID, ok = currentUser(w, r)
	if !ok {
		return 0, 0, false
	}
	orgID, err := getIDFromURL(r, "orgID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return orgID, userID, true
}

func (h *NoteHandler) Tree(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}

	tree, err := h.noteService.GetTree(r.Context(), orgID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tree": tree}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}

	var input services.CreateNoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	note, err := h.noteService.CreateNote(r.Context(), orgID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"note": note}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}
	noteID, err := getIDFromURL(r, "noteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	note, err := h.noteService.GetNote(r.Context(), orgID, noteID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"note": note}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}
	noteID, err := getIDFromURL(r, "noteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateNoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	note, err := h.noteService.UpdateNote(r.Context(), orgID, noteID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"note": note}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NoteHandler) Move(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}
	noteID, err := getIDFromURL(r, "noteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.MoveNoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	note, err := h.noteService.MoveNote(r.Context(), orgID, noteID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"note": note}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}
	noteID, err := getIDFromURL(r, "noteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.noteService.DeleteNote(r.Context(), orgID, noteID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}
	noteID, err := getIDFromURL(r, "noteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
	if err := r.ParseMultipartForm(maxUploadBodySize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			mapServiceErrorToHTTP(w, r, services.ErrAttachmentTooLarge)
			return
		}
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("form field 'file' is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.noteService.UploadAttachment(r.Context(), orgID, noteID, userID, services.UploadAttachmentInput{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"attachment": attachment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
