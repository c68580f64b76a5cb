package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel-pms/internal/demo"
	"hotel-pms/internal/event"
	"hotel-pms/internal/metrics"
	"hotel-pms/internal/model"
	"hotel-pms/internal/store"
	"hotel-pms/internal/util"
)

const (
	GuestServicesStoreKey = "guest-services-store"
	guestServicesModule   = "guest_services"
)

var priorityRank = map[string]int{
	model.PriorityUrgent: 0,
	model.PriorityHigh:   1,
	model.PriorityMedium: 2,
	model.PriorityLow:    3,
}

func DefaultGuestServicesState() model.GuestServicesState {
	return model.GuestServicesState{Requests: []model.ServiceRequest{}, Activity: []model.ActivityEntry{}}
}

func canMoveRequest(from string, to string) bool {
	switch from {
	case model.RequestOpen:
		return to == model.RequestInProgress || to == model.RequestCancelled
	case model.RequestInProgress:
		return to == model.RequestResolved || to == model.RequestCancelled
	default:
		return false
	}
}

type GuestServicesService struct {
	store *store.Store[model.GuestServicesState]
	bus   event.Bus
	now   func() time.Time
}

func NewGuestServicesService(st *store.Store[model.GuestServicesState], bus event.Bus) *GuestServicesService {
	return &GuestServicesService{store: st, bus: bus, now: utcNow}
}

func (s *GuestServicesService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *GuestServicesService) Seed(ctx context.Context, loader *demo.Loader) int {
	state := DefaultGuestServicesState()
	state.Requests = demo.LoadList[model.ServiceRequest](ctx, loader, demo.GuestServicesPath)

	s.store.Replace(ctx, state)
	return len(state.Requests)
}

// List filters by status, category (query.Type), priority, assignee, room and
// search text. Urgent requests come first, oldest first within a priority.
func (s *GuestServicesService) List(query model.ListQuery, priority string, room string) ([]model.ServiceRequest, model.Meta) {
	search := normalizeSearch(query.Search)
	room = strings.TrimSpace(room)

	filtered := make([]model.ServiceRequest, 0)
	s.store.Read(func(state *model.GuestServicesState) {
		for _, request := range state.Requests {
			if query.Status != "" && !strings.EqualFold(request.Status, query.Status) {
				continue
			}
			if query.Type != "" && !strings.EqualFold(request.Category, query.Type) {
				continue
			}
			if priority != "" && !strings.EqualFold(request.Priority, priority) {
				continue
			}
			if query.AssignedTo != "" && !strings.EqualFold(request.AssignedTo, query.AssignedTo) {
				continue
			}
			if room != "" && request.RoomNumber != room {
				continue
			}
			if search != "" &&
				!containsFold(request.GuestName, search) &&
				!containsFold(request.Description, search) &&
				!containsFold(request.RoomNumber, search) {
				continue
			}
			filtered = append(filtered, request)
		}
	})

	sort.SliceStable(filtered, func(i int, j int) bool {
		left, right := rankOf(filtered[i].Priority), rankOf(filtered[j].Priority)
		if left != right {
			return left < right
		}
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(filtered, page, limit)
}

func (s *GuestServicesService) Get(id string) (model.ServiceRequest, error) {
	var found model.ServiceRequest
	err := fmt.Errorf("%w: %s", model.ErrServiceRequestNotFound, id)

	s.store.Read(func(state *model.GuestServicesState) {
		if idx := indexRequest(state, id); idx >= 0 {
			found = state.Requests[idx]
			err = nil
		}
	})
	return found, err
}

func (s *GuestServicesService) Create(ctx context.Context, actor model.Actor, input model.ServiceRequest) (model.ServiceRequest, error) {
	now := s.now()
	input.ID = uuid.NewString()
	input.Status = model.RequestOpen
	input.CreatedAt = now
	input.UpdatedAt = now
	input.ResolvedAt = nil
	input.ResolutionNotes = ""
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}

	request, err := normalizeRequest(input)
	if err != nil {
		observeRejection(guestServicesModule, err)
		return model.ServiceRequest{}, err
	}

	err = s.store.Mutate(ctx, func(state *model.GuestServicesState) error {
		state.Requests = append(state.Requests, request)
		appendActivity(&state.Activity, actor, "created", request.ID,
			fmt.Sprintf("%s request for room %s", request.Category, request.RoomNumber), now)
		return nil
	})
	if err != nil {
		return model.ServiceRequest{}, err
	}

	s.afterMutation("created", request, actor)
	return request, nil
}

// Update edits an Open or In Progress request. Status is changed only through
// the lifecycle operations.
func (s *GuestServicesService) Update(ctx context.Context, actor model.Actor, id string, input model.ServiceRequest) (model.ServiceRequest, error) {
	return s.modify(ctx, actor, id, "updated", func(request *model.ServiceRequest, _ time.Time) (string, error) {
		if request.Status != model.RequestOpen && request.Status != model.RequestInProgress {
			return "", &model.TransitionError{Entity: "service request", ID: id, From: request.Status, To: "updated"}
		}

		input.ID = request.ID
		input.Status = request.Status
		input.CreatedAt = request.CreatedAt
		input.ResolvedAt = request.ResolvedAt
		input.ResolutionNotes = request.ResolutionNotes
		if input.Priority == "" {
			input.Priority = request.Priority
		}

		normalized, err := normalizeRequest(input)
		if err != nil {
			return "", err
		}
		*request = normalized
		return "Updated request for room " + request.RoomNumber, nil
	})
}

func (s *GuestServicesService) Assign(ctx context.Context, actor model.Actor, id string, assignee string) (model.ServiceRequest, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return model.ServiceRequest{}, fmt.Errorf("%w: assignee is required", model.ErrInvalidInput)
	}

	return s.modify(ctx, actor, id, "assigned", func(request *model.ServiceRequest, _ time.Time) (string, error) {
		if request.Status != model.RequestOpen && request.Status != model.RequestInProgress {
			return "", &model.TransitionError{Entity: "service request", ID: id, From: request.Status, To: "assigned"}
		}
		request.AssignedTo = assignee
		return "Assigned to " + assignee, nil
	})
}

// Start moves an Open request to In Progress. An unassigned request is taken
// by the acting user.
func (s *GuestServicesService) Start(ctx context.Context, actor model.Actor, id string) (model.ServiceRequest, error) {
	return s.move(ctx, actor, id, model.RequestInProgress, func(request *model.ServiceRequest, _ time.Time) string {
		if request.AssignedTo == "" {
			request.AssignedTo = actor.Name()
		}
		return "Work started by " + request.AssignedTo
	})
}

func (s *GuestServicesService) Resolve(ctx context.Context, actor model.Actor, id string, notes string) (model.ServiceRequest, error) {
	notes = util.CleanText(notes, util.MaxNoteLength)

	return s.move(ctx, actor, id, model.RequestResolved, func(request *model.ServiceRequest, now time.Time) string {
		request.ResolvedAt = &now
		request.ResolutionNotes = notes
		return withNote("Resolved", notes)
	})
}

func (s *GuestServicesService) Cancel(ctx context.Context, actor model.Actor, id string, reason string) (model.ServiceRequest, error) {
	reason = util.CleanText(reason, util.MaxNoteLength)

	return s.move(ctx, actor, id, model.RequestCancelled, func(request *model.ServiceRequest, _ time.Time) string {
		if reason != "" {
			request.ResolutionNotes = reason
		}
		return withNote("Cancelled", reason)
	})
}

func (s *GuestServicesService) move(ctx context.Context, actor model.Actor, id string, to string, apply func(request *model.ServiceRequest, now time.Time) string) (model.ServiceRequest, error) {
	action := strings.ToLower(strings.ReplaceAll(to, " ", "_"))

	return s.modify(ctx, actor, id, action, func(request *model.ServiceRequest, now time.Time) (string, error) {
		if !canMoveRequest(request.Status, to) {
			return "", &model.TransitionError{Entity: "service request", ID: id, From: request.Status, To: to}
		}
		details := apply(request, now)
		request.Status = to
		return details, nil
	})
}

func (s *GuestServicesService) Delete(ctx context.Context, actor model.Actor, id string) error {
	var removed model.ServiceRequest

	err := s.store.Mutate(ctx, func(state *model.GuestServicesState) error {
		idx := indexRequest(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrServiceRequestNotFound, id)
		}
		removed = state.Requests[idx]
		state.Requests = append(state.Requests[:idx], state.Requests[idx+1:]...)
		appendActivity(&state.Activity, actor, "deleted", id, "Deleted request for room "+removed.RoomNumber, s.now())
		return nil
	})
	if err != nil {
		observeRejection(guestServicesModule, err)
		return err
	}

	s.afterMutation("deleted", removed, actor)
	return nil
}

func (s *GuestServicesService) modify(ctx context.Context, actor model.Actor, id string, action string, change func(request *model.ServiceRequest, now time.Time) (string, error)) (model.ServiceRequest, error) {
	var updated model.ServiceRequest

	err := s.store.Mutate(ctx, func(state *model.GuestServicesState) error {
		idx := indexRequest(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrServiceRequestNotFound, id)
		}

		now := s.now()
		request := &state.Requests[idx]
		details, err := change(request, now)
		if err != nil {
			return err
		}

		request.UpdatedAt = now
		updated = *request
		appendActivity(&state.Activity, actor, action, id, details, now)
		return nil
	})
	if err != nil {
		observeRejection(guestServicesModule, err)
		return model.ServiceRequest{}, err
	}

	s.afterMutation(action, updated, actor)
	return updated, nil
}

// Stats reports open urgent requests and the mean time from creation to resolution.
func (s *GuestServicesService) Stats() model.ServiceRequestStats {
	stats := model.ServiceRequestStats{ByStatus: map[string]int{}, ByCategory: map[string]int{}}
	var resolvedMinutes float64
	resolved := 0

	s.store.Read(func(state *model.GuestServicesState) {
		for _, request := range state.Requests {
			stats.Total++
			stats.ByStatus[request.Status]++
			stats.ByCategory[request.Category]++

			if request.Priority == model.PriorityUrgent && (request.Status == model.RequestOpen || request.Status == model.RequestInProgress) {
				stats.OpenUrgent++
			}
			if request.Status == model.RequestResolved && request.ResolvedAt != nil {
				resolvedMinutes += request.ResolvedAt.Sub(request.CreatedAt).Minutes()
				resolved++
			}
		}
	})

	if resolved > 0 {
		stats.MeanResolutionMinutes = resolvedMinutes / float64(resolved)
	}
	return stats
}

func (s *GuestServicesService) Activity(limit int) []model.ActivityEntry {
	var out []model.ActivityEntry
	s.store.Read(func(state *model.GuestServicesState) {
		out = newestFirst(state.Activity, limit)
	})
	return out
}

func (s *GuestServicesService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(guestServicesModule, action)
	event.Emit(s.bus, event.TypeGuestServiceChanged, payload, actor.UserID)
}

func indexRequest(state *model.GuestServicesState, id string) int {
	for i, request := range state.Requests {
		if request.ID == id {
			return i
		}
	}
	return -1
}

func rankOf(priority string) int {
	if rank, ok := priorityRank[priority]; ok {
		return rank
	}
	return len(priorityRank)
}

func normalizeRequest(request model.ServiceRequest) (model.ServiceRequest, error) {
	request.GuestName = strings.TrimSpace(request.GuestName)
	request.RoomNumber = strings.TrimSpace(request.RoomNumber)
	request.Category = strings.TrimSpace(request.Category)
	request.Description = strings.TrimSpace(request.Description)

	if request.GuestName == "" || request.RoomNumber == "" {
		return model.ServiceRequest{}, fmt.Errorf("%w: guestName and roomNumber are required", model.ErrInvalidInput)
	}
	if request.Category == "" {
		return model.ServiceRequest{}, fmt.Errorf("%w: category is required", model.ErrInvalidInput)
	}

	matched := false
	for priority := range priorityRank {
		if strings.EqualFold(priority, request.Priority) {
			request.Priority = priority
			matched = true
			break
		}
	}
	if !matched {
		return model.ServiceRequest{}, fmt.Errorf("%w: unknown priority %q", model.ErrInvalidInput, request.Priority)
	}

	return request, nil
}
