package handler

import (
	"net/http"

	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type SecuritiesHandler struct {
	service *service.SecuritiesService
}

func NewSecuritiesHandler(service *service.SecuritiesService) *SecuritiesHandler {
	return &SecuritiesHandler{service: service}
}

type exerciseRequest struct {
	Quantity int64 `json:"quantity"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *SecuritiesHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "type")
	if err != nil {
		writeError(w, err)
		return
	}

	items, meta := h.service.List(query)
	writeSuccess(w, http.StatusOK, model.ListData[model.Security]{Items: items}, &meta)
}

func (h *SecuritiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	security, err := h.service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, security, nil)
}

func (h *SecuritiesHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var payload model.Security
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	issued, err := h.service.Issue(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, issued, nil)
}

func (h *SecuritiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.Security
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

func (h *SecuritiesHandler) Exercise(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload exerciseRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Exercise(r.Context(), actorFromRequest(r), id, payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *SecuritiesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

// Stats values outstanding securities at the ?sharePrice= given by the caller.
func (h *SecuritiesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	price, err := floatParam(r.URL.Query().Get("sharePrice"), "sharePrice")
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Stats(price), nil)
}

func (h *SecuritiesHandler) Activity(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.ListData[model.ActivityEntry]{Items: h.service.Activity(limitParam(r))}, nil)
}
