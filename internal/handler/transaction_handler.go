package handler

import (
	"log/slog"
	"net/http"
	"time"

	"hotel-pms/internal/export"
	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type TransactionHandler struct {
	service *service.TransactionService
}

func NewTransactionHandler(service *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type reviseRequest struct {
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type approveRequest struct {
	Approver string `json:"approver"`
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "type")
	if err != nil {
		writeError(w, err)
		return
	}

	items, meta := h.service.List(query)
	writeSuccess(w, http.StatusOK, model.ListData[model.Transaction]{Items: items}, &meta)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.NewTransaction
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tx, nil)
}

// Update is a partial edit; totalAmount only changes when the body carries it.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var patch model.TransactionPatch
	if err := decodeJSON(r, &patch, false); err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Update(r.Context(), actorFromRequest(r), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload reviseRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Revise(r.Context(), actorFromRequest(r), id, payload.Quantity, payload.UnitPrice)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload approveRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Approve(r.Context(), actorFromRequest(r), id, payload.Approver)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload reasonRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Reject(r.Context(), actorFromRequest(r), id, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.service.Execute(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *TransactionHandler) Export(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r, "type")
	if err != nil {
		writeError(w, err)
		return
	}

	items := h.service.All(query)
	writeCSVHeaders(w, "transactions", time.Now())
	if err := export.Transactions(w, items); err != nil {
		slog.Error("transactions export failed", "error", err, "rows", len(items))
	}
}
