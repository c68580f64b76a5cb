package handler

import (
	"net/http"

	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type GuestServicesHandler struct {
	service *service.GuestServicesService
}

func NewGuestServicesHandler(service *service.GuestServicesService) *GuestServicesHandler {
	return &GuestServicesHandler{service: service}
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (h *GuestServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "category")
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	items, meta := h.service.List(query, q.Get("priority"), q.Get("room"))
	writeSuccess(w, http.StatusOK, model.ListData[model.ServiceRequest]{Items: items}, &meta)
}

func (h *GuestServicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	request, err := h.service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, request, nil)
}

func (h *GuestServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.ServiceRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created, nil)
}

func (h *GuestServicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.ServiceRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *GuestServicesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload assignRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Assign(r.Context(), actorFromRequest(r), id, payload.AssignedTo)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *GuestServicesHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Start(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *GuestServicesHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload resolveRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Resolve(r.Context(), actorFromRequest(r), id, payload.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *GuestServicesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload reasonRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Cancel(r.Context(), actorFromRequest(r), id, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *GuestServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *GuestServicesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Stats(), nil)
}

func (h *GuestServicesHandler) Activity(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.ListData[model.ActivityEntry]{Items: h.service.Activity(limitParam(r))}, nil)
}
