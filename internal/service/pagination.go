package service

import (
	"errors"
	"strings"

	"hotel-pms/internal/metrics"
	"hotel-pms/internal/model"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

func normalizePage(page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// paginate slices items for the given page. Pages past the end are empty.
func paginate[T any](items []T, page int, limit int) ([]T, model.Meta) {
	total := len(items)
	start := total
	if page-1 < (total+limit-1)/limit {
		start = (page - 1) * limit
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func normalizeSearch(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// observeRejection counts business-rule rejections by reason.
func observeRejection(module string, err error) {
	if err == nil {
		return
	}

	reason := "other"
	switch {
	case errors.Is(err, model.ErrProtectedRecord):
		reason = "protected"
	case errors.Is(err, model.ErrAlreadyArchived):
		reason = "already_archived"
	case errors.Is(err, model.ErrAlreadyRestored):
		reason = "already_restored"
	case errors.Is(err, model.ErrHoldConflict):
		reason = "hold_conflict"
	case errors.Is(err, model.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, model.ErrInvalidInput):
		reason = "invalid_input"
	case errors.Is(err, model.ErrEmptySelection):
		reason = "empty_selection"
	case errors.Is(err, model.ErrEquityClassInUse):
		reason = "class_in_use"
	}

	metrics.ObserveRejection(module, reason)
}
