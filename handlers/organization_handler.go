package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/notes-app/services"
	"github.com/Dosada05/notes-app/session"
	"github.com/Dosada05/notes-app/validator"
)

type OrganizationHandler struct {
	orgService services.OrganizationService
	newStore   StoreFactory
	// выбранная организация живет столько же, сколько refresh токен
	selectionTTL time.Duration
}

func NewOrganizationHandler(orgService services.OrganizationService, newStore StoreFactory, selectionTTL time.Duration) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:   orgService,
		newStore:     newStore,
		selectionTTL: selectionTTL,
	}
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateOrganizationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	org, err := h.orgService.CreateOrganization(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"organization": org}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orgs, err := h.orgService.ListForUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"organizations": orgs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, err := getIDFromURL(r, "orgID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	org, err := h.orgService.GetOrganization(r.Context(), orgID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"organization": org}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Select запоминает активную организацию в cookie organization_id.
func (h *OrganizationHandler) Select(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, err := getIDFromURL(r, "orgID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.orgService.RequireMember(r.Context(), orgID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	store := h.newStore(w, r)
	if err := store.Set(session.OrganizationIDKey, strconv.Itoa(orgID), h.selectionTTL); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"organization_id": orgID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OrganizationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, err := getIDFromURL(r, "orgID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input validator.AddMemberInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.orgService.AddMember(r.Context(), orgID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"member": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, err := getIDFromURL(r, "orgID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	memberID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.orgService.RemoveMember(r.Context(), orgID, memberID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
