package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hotel-pms/internal/export"
	"hotel-pms/internal/model"
	"hotel-pms/internal/service"
)

type RecycleBinHandler struct {
	service *service.RecycleBinService
}

func NewRecycleBinHandler(service *service.RecycleBinService) *RecycleBinHandler {
	return &RecycleBinHandler{service: service}
}

type recordActionRequest struct {
	Note   string `json:"note"`
	Target string `json:"target"`
}

type bulkActionRequest struct {
	IDs    []string `json:"ids"`
	Note   string   `json:"note"`
	Target string   `json:"target"`
}

type holdRequest struct {
	Reason string `json:"reason"`
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

type viewPage struct {
	View    service.RecycleBinView `json:"view"`
	Records []model.RecycledRecord `json:"records"`
}

// List runs a one-off query from URL parameters without touching the stored view.
func (h *RecycleBinHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := intParam(q.Get("pageSize"), "pageSize")
	if err != nil {
		writeError(w, err)
		return
	}

	records, meta, err := h.service.ListRecords(filter,
		model.SortConfig{Field: q.Get("sort"), Order: q.Get("order")},
		model.Pagination{Page: page, PageSize: pageSize})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.ListData[model.RecycledRecord]{Items: records}, &meta)
}

func (h *RecycleBinHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.GetRecord(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *RecycleBinHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload recordActionRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.RestoreRecord(r.Context(), actorFromRequest(r), id, payload.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *RecycleBinHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload recordActionRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.ArchiveRecord(r.Context(), actorFromRequest(r), id, payload.Target, payload.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *RecycleBinHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload recordActionRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.DeleteRecordPermanently(r.Context(), actorFromRequest(r), id, payload.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true, "record": record}, nil)
}

func (h *RecycleBinHandler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload holdRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.PlaceHold(r.Context(), actorFromRequest(r), id, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *RecycleBinHandler) RemoveHold(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.RemoveHold(r.Context(), actorFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *RecycleBinHandler) BulkRestore(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(payload bulkActionRequest) (model.BulkResult, error) {
		return h.service.BulkRestore(r.Context(), actorFromRequest(r), payload.IDs, payload.Note)
	})
}

func (h *RecycleBinHandler) BulkArchive(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(payload bulkActionRequest) (model.BulkResult, error) {
		return h.service.BulkArchive(r.Context(), actorFromRequest(r), payload.IDs, payload.Target, payload.Note)
	})
}

func (h *RecycleBinHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(payload bulkActionRequest) (model.BulkResult, error) {
		return h.service.BulkDelete(r.Context(), actorFromRequest(r), payload.IDs, payload.Note)
	})
}

// bulk accepts an empty body, in which case the current selection is used.
func (h *RecycleBinHandler) bulk(w http.ResponseWriter, r *http.Request, run func(payload bulkActionRequest) (model.BulkResult, error)) {
	var payload bulkActionRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	result, err := run(payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *RecycleBinHandler) Selection(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, selectionRequest{IDs: h.service.SelectedRecordIDs()}, nil)
}

func (h *RecycleBinHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	selected, err := h.service.ToggleRecordSelection(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, selectionRequest{IDs: selected}, nil)
}

func (h *RecycleBinHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var payload selectionRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	selected, err := h.service.SelectAll(r.Context(), payload.IDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, selectionRequest{IDs: selected}, nil)
}

func (h *RecycleBinHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearSelection(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, selectionRequest{IDs: []string{}}, nil)
}

// View returns the stored filter, sort and pagination with the current page of records.
func (h *RecycleBinHandler) View(w http.ResponseWriter, r *http.Request) {
	records, meta := h.service.PagedRecords()
	writeSuccess(w, http.StatusOK, viewPage{View: h.service.View(), Records: records}, &meta)
}

func (h *RecycleBinHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var filter model.RecordFilter
	if err := decodeJSON(r, &filter, true); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SetFilter(r.Context(), filter); err != nil {
		writeError(w, err)
		return
	}

	h.View(w, r)
}

func (h *RecycleBinHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var sortCfg model.SortConfig
	if err := decodeJSON(r, &sortCfg, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SetSort(r.Context(), sortCfg.Field, sortCfg.Order); err != nil {
		writeError(w, err)
		return
	}

	h.View(w, r)
}

func (h *RecycleBinHandler) SetPagination(w http.ResponseWriter, r *http.Request) {
	var pagination model.Pagination
	if err := decodeJSON(r, &pagination, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SetPagination(r.Context(), pagination.Page, pagination.PageSize); err != nil {
		writeError(w, err)
		return
	}

	h.View(w, r)
}

func (h *RecycleBinHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Stats(), nil)
}

func (h *RecycleBinHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	query, err := auditQueryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, meta := h.service.AuditLog(query)
	writeSuccess(w, http.StatusOK, model.ListData[model.AuditLogEntry]{Items: entries}, &meta)
}

func (h *RecycleBinHandler) ExportAuditLog(w http.ResponseWriter, r *http.Request) {
	query, err := auditQueryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries := h.service.AuditEntries(query)
	writeCSVHeaders(w, "recycle-bin-audit", time.Now())
	if err := export.AuditLog(w, entries); err != nil {
		slog.Error("audit log export failed", "error", err, "entries", len(entries))
	}
}

func (h *RecycleBinHandler) Policy(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Policy(), nil)
}

func (h *RecycleBinHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var policy model.RetentionPolicy
	if err := decodeJSON(r, &policy, false); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.UpdatePolicy(r.Context(), actorFromRequest(r), policy)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *RecycleBinHandler) Purge(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.PurgeEligible(r.Context(), actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *RecycleBinHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Sweep(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Stats(), nil)
}

func recordFilterFromQuery(r *http.Request) (model.RecordFilter, error) {
	q := r.URL.Query()

	onHold, err := boolParam(q.Get("onHold"), "onHold")
	if err != nil {
		return model.RecordFilter{}, err
	}
	from, err := timeParam(q.Get("deletedFrom"), "deletedFrom")
	if err != nil {
		return model.RecordFilter{}, err
	}
	to, err := untilParam(q.Get("deletedTo"), "deletedTo")
	if err != nil {
		return model.RecordFilter{}, err
	}

	return model.RecordFilter{
		Module:          strings.TrimSpace(q.Get("module")),
		RetentionStatus: strings.TrimSpace(q.Get("retentionStatus")),
		Storage:         strings.TrimSpace(q.Get("storage")),
		OnHold:          onHold,
		DeletedFrom:     from,
		DeletedTo:       to,
		Search:          q.Get("search"),
		IncludeRestored: strings.EqualFold(q.Get("includeRestored"), "true"),
	}, nil
}

func auditQueryFromRequest(r *http.Request) (model.AuditLogQuery, error) {
	q := r.URL.Query()

	from, err := timeParam(q.Get("from"), "from")
	if err != nil {
		return model.AuditLogQuery{}, err
	}
	to, err := untilParam(q.Get("to"), "to")
	if err != nil {
		return model.AuditLogQuery{}, err
	}
	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		return model.AuditLogQuery{}, err
	}
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		return model.AuditLogQuery{}, err
	}

	return model.AuditLogQuery{
		Action:   strings.TrimSpace(q.Get("action")),
		UserName: strings.TrimSpace(q.Get("user")),
		RecordID: strings.TrimSpace(q.Get("recordId")),
		From:     from,
		To:       to,
		Page:     page,
		Limit:    limit,
	}, nil
}
