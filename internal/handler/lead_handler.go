package handler

import (
	"log/slog"
	"net/http"
	"time"

	"hotel-pms/internal/export"
	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type LeadHandler struct {
	service *service.LeadService
}

func NewLeadHandler(service *service.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

type statusRequest struct {
	Status string `json:"status"`
}

type assignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "source")
	if err != nil {
		writeError(w, err)
		return
	}

	items, meta, err := h.service.List(query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.ListData[model.Lead]{Items: items}, &meta)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, lead, nil)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.Lead
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.service.Add(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, lead, nil)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.Lead
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.service.Update(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, lead, nil)
}

func (h *LeadHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload statusRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.service.SetStatus(r.Context(), actorFromRequest(r), id, payload.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, lead, nil)
}

func (h *LeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
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

	lead, err := h.service.Assign(r.Context(), actorFromRequest(r), id, payload.AssignedTo)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, lead, nil)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Stats(), nil)
}

func (h *LeadHandler) Activity(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.ListData[model.ActivityEntry]{Items: h.service.Activity(limitParam(r))}, nil)
}

func (h *LeadHandler) Export(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "source")
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.service.All(query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeCSVHeaders(w, "leads", time.Now())
	if err := export.Leads(w, items); err != nil {
		slog.Error("leads export failed", "error", err, "rows", len(items))
	}
}
