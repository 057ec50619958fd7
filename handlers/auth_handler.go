package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/notes-app/services"
	"github.com/Dosada05/notes-app/session"
)

// StoreFactory создает хранилище учетных данных для текущего запроса.
type StoreFactory func(w http.ResponseWriter, r *http.Request) session.Store

// CookieStoreFactory возвращает фабрику cookie-хранилищ с заданными опциями.
func CookieStoreFactory(opts session.CookieOptions) StoreFactory {
	return func(w http.ResponseWriter, r *http.Request) session.Store {
		return session.NewCookieStore(w, r, opts)
	}
}

type AuthHandler struct {
	authService services.AuthService
	newStore    StoreFactory
}

func NewAuthHandler(authService services.AuthService, newStore StoreFactory) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		newStore:    newStore,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	creds := credentialsFromPair(result.Tokens)
	if len(result.Organizations) > 0 {
		creds.OrganizationID = strconv.Itoa(result.Organizations[0].ID)
	}
	if err := session.Issue(h.newStore(w, r), creds); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"user":          result.User,
		"organizations": result.Organizations,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	store := h.newStore(w, r)

	refreshToken, _, err := store.Get(session.RefreshTokenKey)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := session.Issue(store, credentialsFromPair(*pair)); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Logout удаляет cookie сессии. Токены на сервере не отзываются.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := session.Terminate(h.newStore(w, r)); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetCurrentUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func credentialsFromPair(pair services.TokenPair) session.Credentials {
	return session.Credentials{
		AccessToken:     pair.AccessToken,
		AccessTokenTTL:  pair.AccessTokenTTL,
		RefreshToken:    pair.RefreshToken,
		RefreshTokenTTL: pair.RefreshTokenTTL,
	}
}
