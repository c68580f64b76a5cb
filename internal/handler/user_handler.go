package handler

import (
	"log/slog"
	"net/http"
	"time"

	"hotel-pms/internal/export"
	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "role")
	if err != nil {
		writeError(w, err)
		return
	}

	users, meta := h.service.ListUsers(query)
	writeSuccess(w, http.StatusOK, model.ListData[model.AuthUser]{Items: users}, &meta)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.GetUser(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateUserRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateUserRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.ListData[model.ActivityEntry]{Items: h.service.Activity(limitParam(r))}, nil)
}

// Export streams the user directory without password hashes.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "role")
	if err != nil {
		writeError(w, err)
		return
	}

	users := h.service.ExportUsers(query)
	writeCSVHeaders(w, "users", time.Now())
	if err := export.Users(w, users); err != nil {
		slog.Error("users export failed", "error", err, "rows", len(users))
	}
}
