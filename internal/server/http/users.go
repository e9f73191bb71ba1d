package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/server/apikeys"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/dmitrijs2005/userdirectory/internal/server/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxBodyBytes limits user payloads.
const maxBodyBytes = 64 * 1024

// UserService is the business logic behind the user endpoints.
// *services.UserService satisfies it.
type UserService interface {
	List(ctx context.Context, clientID uuid.UUID) ([]*models.User, error)
	Get(ctx context.Context, clientID, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, clientID uuid.UUID, in services.UserInput) (*models.User, error)
	Update(ctx context.Context, clientID uuid.UUID, in services.UserInput) (*models.User, error)
	Delete(ctx context.Context, clientID, id uuid.UUID) error
	VerifyPassword(ctx context.Context, clientID uuid.UUID, userName, password string) (*models.User, error)
}

// UserHandler serves /api/User. It relies on APIKeyMiddleware having put
// the client identity into the request context.
type UserHandler struct {
	users UserService
}

func NewUserHandler(us UserService) *UserHandler {
	return &UserHandler{users: us}
}

// Register mounts the user routes on r.
func (h *UserHandler) Register(r *mux.Router) {
	r.HandleFunc("", h.List).Methods(http.MethodGet)
	r.HandleFunc("", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/VerifyPassword", h.VerifyPassword).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}

	users, err := h.users.List(r.Context(), client.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserDTOs(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), client.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserDTO(user))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}

	var req UserWithPasswordDTO
	if !decodeBody(w, r, &req) {
		return
	}

	id := uuid.Nil
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		id = parsed
	}

	user, err := h.users.Create(r.Context(), client.ID, req.toInput(id))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UserWithPasswordDTO
	if !decodeBody(w, r, &req) {
		return
	}

	bodyID, err := uuid.Parse(req.ID)
	if err != nil || bodyID != id {
		respondError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}

	user, err := h.users.Update(r.Context(), client.ID, req.toInput(id))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), client.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyPassword answers 200 with the user on a match and 204 on a mismatch.
func (h *UserHandler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFrom(w, r)
	if !ok {
		return
	}

	var req VerifyDTO
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.VerifyPassword(r.Context(), client.ID, req.UserName, req.Password)
	if errors.Is(err, common.ErrVerificationMismatch) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserDTO(user))
}

// clientFrom fails closed when the handler is reached without an identity.
func clientFrom(w http.ResponseWriter, r *http.Request) (apikeys.ClientIdentity, bool) {
	client, ok := apikeys.ClientFromContext(r.Context())
	if !ok {
		rejectUnauthorized(w)
	}
	return client, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
