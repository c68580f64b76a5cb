package service

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel-pms/internal/demo"
	"hotel-pms/internal/event"
	"hotel-pms/internal/metrics"
	"hotel-pms/internal/model"
	"hotel-pms/internal/store"
)

const (
	LeadsStoreKey = "leads-store"
	leadsModule   = "leads"
)

var leadStatuses = []string{
	model.LeadNew,
	model.LeadContacted,
	model.LeadQualified,
	model.LeadProposal,
	model.LeadWon,
	model.LeadLost,
}

func DefaultLeadsState() model.LeadsState {
	return model.LeadsState{Leads: []model.Lead{}, Activity: []model.ActivityEntry{}}
}

type LeadService struct {
	store *store.Store[model.LeadsState]
	bus   event.Bus
	now   func() time.Time
}

func NewLeadService(st *store.Store[model.LeadsState], bus event.Bus) *LeadService {
	return &LeadService{store: st, bus: bus, now: utcNow}
}

func (s *LeadService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *LeadService) Seed(ctx context.Context, loader *demo.Loader) int {
	state := DefaultLeadsState()
	state.Leads = demo.LoadList[model.Lead](ctx, loader, demo.LeadsPath)

	s.store.Replace(ctx, state)
	return len(state.Leads)
}

func (s *LeadService) List(query model.ListQuery) ([]model.Lead, model.Meta, error) {
	items, err := s.All(query)
	if err != nil {
		return nil, model.Meta{}, err
	}

	page, limit := normalizePage(query.Page, query.Limit)
	out, meta := paginate(items, page, limit)
	return out, meta, nil
}

// All filters by status, source (query.Type), assignee and search text, then
// applies a stable sort on name, createdAt or estimatedValue.
func (s *LeadService) All(query model.ListQuery) ([]model.Lead, error) {
	less, err := leadComparator(query.Sort, query.Order)
	if err != nil {
		return nil, err
	}
	search := normalizeSearch(query.Search)

	filtered := make([]model.Lead, 0)
	s.store.Read(func(state *model.LeadsState) {
		for _, lead := range state.Leads {
			if query.Status != "" && !strings.EqualFold(lead.Status, query.Status) {
				continue
			}
			if query.Type != "" && !strings.EqualFold(lead.Source, query.Type) {
				continue
			}
			if query.AssignedTo != "" && !strings.EqualFold(lead.AssignedTo, query.AssignedTo) {
				continue
			}
			if search != "" &&
				!containsFold(lead.Name, search) &&
				!containsFold(lead.Company, search) &&
				!containsFold(lead.Email, search) {
				continue
			}
			filtered = append(filtered, lead)
		}
	})

	sort.SliceStable(filtered, func(i int, j int) bool {
		return less(filtered[i], filtered[j])
	})
	return filtered, nil
}

func (s *LeadService) Get(id string) (model.Lead, error) {
	var found model.Lead
	err := fmt.Errorf("%w: %s", model.ErrLeadNotFound, id)

	s.store.Read(func(state *model.LeadsState) {
		if idx := indexLead(state, id); idx >= 0 {
			found = state.Leads[idx]
			err = nil
		}
	})
	return found, err
}

func (s *LeadService) Add(ctx context.Context, actor model.Actor, input model.Lead) (model.Lead, error) {
	now := s.now()
	input.ID = uuid.NewString()
	input.CreatedAt = now
	input.UpdatedAt = now
	if input.Status == "" {
		input.Status = model.LeadNew
	}

	lead, err := normalizeLead(input)
	if err != nil {
		observeRejection(leadsModule, err)
		return model.Lead{}, err
	}

	err = s.store.Mutate(ctx, func(state *model.LeadsState) error {
		state.Leads = append(state.Leads, lead)
		appendActivity(&state.Activity, actor, "created", lead.ID, "Created lead "+lead.Name, now)
		return nil
	})
	if err != nil {
		return model.Lead{}, err
	}

	s.afterMutation("created", lead, actor)
	return lead, nil
}

func (s *LeadService) Update(ctx context.Context, actor model.Actor, id string, input model.Lead) (model.Lead, error) {
	return s.modify(ctx, actor, id, "updated", func(lead *model.Lead) (string, error) {
		input.ID = lead.ID
		input.CreatedAt = lead.CreatedAt
		if input.Status == "" {
			input.Status = lead.Status
		}

		normalized, err := normalizeLead(input)
		if err != nil {
			return "", err
		}
		*lead = normalized
		return "Updated lead " + lead.Name, nil
	})
}

func (s *LeadService) SetStatus(ctx context.Context, actor model.Actor, id string, status string) (model.Lead, error) {
	canonical, ok := canonicalLeadStatus(status)
	if !ok {
		return model.Lead{}, fmt.Errorf("%w: unknown lead status %q", model.ErrInvalidInput, status)
	}

	return s.modify(ctx, actor, id, "status_changed", func(lead *model.Lead) (string, error) {
		previous := lead.Status
		lead.Status = canonical
		return fmt.Sprintf("%s moved from %s to %s", lead.Name, previous, canonical), nil
	})
}

func (s *LeadService) Assign(ctx context.Context, actor model.Actor, id string, assignee string) (model.Lead, error) {
	assignee = strings.TrimSpace(assignee)

	return s.modify(ctx, actor, id, "assigned", func(lead *model.Lead) (string, error) {
		lead.AssignedTo = assignee
		if assignee == "" {
			return lead.Name + " unassigned", nil
		}
		return lead.Name + " assigned to " + assignee, nil
	})
}

func (s *LeadService) Delete(ctx context.Context, actor model.Actor, id string) error {
	var removed model.Lead

	err := s.store.Mutate(ctx, func(state *model.LeadsState) error {
		idx := indexLead(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrLeadNotFound, id)
		}
		removed = state.Leads[idx]
		state.Leads = append(state.Leads[:idx], state.Leads[idx+1:]...)
		appendActivity(&state.Activity, actor, "deleted", id, "Deleted lead "+removed.Name, s.now())
		return nil
	})
	if err != nil {
		observeRejection(leadsModule, err)
		return err
	}

	s.afterMutation("deleted", removed, actor)
	return nil
}

func (s *LeadService) modify(ctx context.Context, actor model.Actor, id string, action string, change func(lead *model.Lead) (string, error)) (model.Lead, error) {
	var updated model.Lead

	err := s.store.Mutate(ctx, func(state *model.LeadsState) error {
		idx := indexLead(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrLeadNotFound, id)
		}

		lead := &state.Leads[idx]
		details, err := change(lead)
		if err != nil {
			return err
		}

		now := s.now()
		lead.UpdatedAt = now
		updated = *lead
		appendActivity(&state.Activity, actor, action, id, details, now)
		return nil
	})
	if err != nil {
		observeRejection(leadsModule, err)
		return model.Lead{}, err
	}

	s.afterMutation(action, updated, actor)
	return updated, nil
}

// Stats: pipeline value excludes Lost leads; conversion rate is Won over all leads.
func (s *LeadService) Stats() model.LeadStats {
	stats := model.LeadStats{ByStatus: map[string]int{}, BySource: map[string]int{}}

	s.store.Read(func(state *model.LeadsState) {
		for _, lead := range state.Leads {
			stats.Total++
			stats.ByStatus[lead.Status]++
			if lead.Source != "" {
				stats.BySource[lead.Source]++
			}
			switch lead.Status {
			case model.LeadLost:
			case model.LeadWon:
				stats.WonValue += lead.EstimatedValue
				stats.PipelineValue += lead.EstimatedValue
			default:
				stats.PipelineValue += lead.EstimatedValue
			}
		}
	})

	if stats.Total > 0 {
		stats.ConversionRate = float64(stats.ByStatus[model.LeadWon]) / float64(stats.Total) * 100
	}
	return stats
}

func (s *LeadService) Activity(limit int) []model.ActivityEntry {
	var out []model.ActivityEntry
	s.store.Read(func(state *model.LeadsState) {
		out = newestFirst(state.Activity, limit)
	})
	return out
}

func (s *LeadService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(leadsModule, action)
	event.Emit(s.bus, event.TypeLeadChanged, payload, actor.UserID)
}

func indexLead(state *model.LeadsState, id string) int {
	for i, lead := range state.Leads {
		if lead.ID == id {
			return i
		}
	}
	return -1
}

func canonicalLeadStatus(raw string) (string, bool) {
	for _, status := range leadStatuses {
		if strings.EqualFold(status, strings.TrimSpace(raw)) {
			return status, true
		}
	}
	return "", false
}

func normalizeLead(lead model.Lead) (model.Lead, error) {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Email = strings.TrimSpace(lead.Email)
	lead.AssignedTo = strings.TrimSpace(lead.AssignedTo)

	if lead.Name == "" {
		return model.Lead{}, fmt.Errorf("%w: lead name is required", model.ErrInvalidInput)
	}
	if lead.Email != "" {
		if _, err := mail.ParseAddress(lead.Email); err != nil {
			return model.Lead{}, fmt.Errorf("%w: invalid email %q", model.ErrInvalidInput, lead.Email)
		}
	}
	if lead.EstimatedValue < 0 {
		return model.Lead{}, fmt.Errorf("%w: estimatedValue cannot be negative", model.ErrInvalidInput)
	}

	status, ok := canonicalLeadStatus(lead.Status)
	if !ok {
		return model.Lead{}, fmt.Errorf("%w: unknown lead status %q", model.ErrInvalidInput, lead.Status)
	}
	lead.Status = status

	return lead, nil
}

func leadComparator(field string, order string) (func(a, b model.Lead) bool, error) {
	desc := strings.EqualFold(order, model.SortDesc)
	if order != "" && !desc && !strings.EqualFold(order, model.SortAsc) {
		return nil, fmt.Errorf("%w: unsupported sort order %q", model.ErrInvalidInput, order)
	}

	var cmp func(a, b model.Lead) int
	switch field {
	case "", "createdAt":
		cmp = func(a, b model.Lead) int { return a.CreatedAt.Compare(b.CreatedAt) }
		if order == "" {
			desc = true
		}
	case "name":
		cmp = func(a, b model.Lead) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "estimatedValue", "value":
		cmp = func(a, b model.Lead) int {
			switch {
			case a.EstimatedValue < b.EstimatedValue:
				return -1
			case a.EstimatedValue > b.EstimatedValue:
				return 1
			}
			return 0
		}
	default:
		return nil, fmt.Errorf("%w: unsupported sort field %q", model.ErrInvalidInput, field)
	}

	return func(a, b model.Lead) bool {
		if desc {
			return cmp(a, b) > 0
		}
		return cmp(a, b) < 0
	}, nil
}
