package handler

import (
	"net/http"
	"time"

	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type GuestHandler struct {
	service *service.GuestService
}

func NewGuestHandler(service *service.GuestService) *GuestHandler {
	return &GuestHandler{service: service}
}

type stayRequest struct {
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

func (h *GuestHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "tier")
	if err != nil {
		writeError(w, err)
		return
	}

	items, meta := h.service.List(query)
	writeSuccess(w, http.StatusOK, model.ListData[model.Guest]{Items: items}, &meta)
}

func (h *GuestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	guest, err := h.service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, guest, nil)
}

func (h *GuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.Guest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	guest, err := h.service.Add(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, guest, nil)
}

func (h *GuestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.Guest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	guest, err := h.service.Update(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, guest, nil)
}

func (h *GuestHandler) ToggleVIP(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	guest, err := h.service.ToggleVIP(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, guest, nil)
}

func (h *GuestHandler) RecordStay(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload stayRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	guest, err := h.service.RecordStay(r.Context(), actorFromRequest(r), id, payload.Amount, payload.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, guest, nil)
}

func (h *GuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *GuestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Stats(), nil)
}
