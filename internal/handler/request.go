package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hotel-pms/internal/middleware"
	"hotel-pms/internal/model"
)

func actorFromRequest(r *http.Request) model.Actor {
	return middleware.ActorFromRequest(r)
}

func idParam(r *http.Request, name string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		return "", badRequest(name+" is required", name)
	}
	return id, nil
}

// listQuery reads the shared list parameters. "type", "source", "category",
// "role" and "tier" all land in ListQuery.Type depending on the module.
func listQuery(r *http.Request, typeParam string) (model.ListQuery, error) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		return model.ListQuery{}, err
	}
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		return model.ListQuery{}, err
	}

	return model.ListQuery{
		Status:     strings.TrimSpace(q.Get("status")),
		Type:       strings.TrimSpace(q.Get(typeParam)),
		AssignedTo: strings.TrimSpace(q.Get("assignedTo")),
		Search:     q.Get("search"),
		Sort:       strings.TrimSpace(q.Get("sort")),
		Order:      strings.TrimSpace(q.Get("order")),
		Page:       page,
		Limit:      limit,
	}, nil
}

func intParam(raw string, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid "+name, raw)
	}
	return v, nil
}

func floatParam(raw string, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("invalid "+name, raw)
	}
	return v, nil
}

func boolParam(raw string, name string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("invalid "+name, raw)
	}
	return &v, nil
}

// timeParam accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func timeParam(raw string, name string) (*time.Time, error) {
	return parseTimeParam(raw, name, false)
}

// untilParam is timeParam for inclusive upper bounds: a plain date covers the
// whole day.
func untilParam(raw string, name string) (*time.Time, error) {
	return parseTimeParam(raw, name, true)
}

func parseTimeParam(raw string, name string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, badRequest("invalid "+name, raw)
}

func limitParam(r *http.Request) int {
	limit, err := intParam(r.URL.Query().Get("limit"), "limit")
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
