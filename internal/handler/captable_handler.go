package handler

import (
	"net/http"

	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type CapTableHandler struct {
	service *service.CapTableService
}

func NewCapTableHandler(service *service.CapTableService) *CapTableHandler {
	return &CapTableHandler{service: service}
}

// Overview is the dashboard payload: totals, class breakdown and recent activity.
func (h *CapTableHandler) Overview(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"summary":  h.service.Summary(),
		"classes":  h.service.ClassBreakdown(),
		"activity": h.service.Activity(10),
	}, nil)
}

func (h *CapTableHandler) ListShareholders(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "class")
	if err != nil {
		writeError(w, err)
		return
	}

	items, meta := h.service.ListShareholders(query)
	writeSuccess(w, http.StatusOK, model.ListData[model.ShareholderView]{Items: items}, &meta)
}

func (h *CapTableHandler) GetShareholder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	shareholder, err := h.service.GetShareholder(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, shareholder, nil)
}

func (h *CapTableHandler) AddShareholder(w http.ResponseWriter, r *http.Request) {
	var payload model.Shareholder
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.service.AddShareholder(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created, nil)
}

func (h *CapTableHandler) UpdateShareholder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.Shareholder
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.UpdateShareholder(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *CapTableHandler) RemoveShareholder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.RemoveShareholder(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *CapTableHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.ListData[model.EquityClass]{Items: h.service.EquityClasses()}, nil)
}

func (h *CapTableHandler) AddClass(w http.ResponseWriter, r *http.Request) {
	var payload model.EquityClass
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.service.AddEquityClass(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created, nil)
}

func (h *CapTableHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.EquityClass
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.UpdateEquityClass(r.Context(), actorFromRequest(r), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *CapTableHandler) RemoveClass(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.RemoveEquityClass(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
