package service

import (
	"context"
	"fmt"
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
	SecuritiesStoreKey = "securities-store"
	securitiesModule   = "securities"
)

var securityTypes = map[string]struct{}{
	"Stock Option":     {},
	"Warrant":          {},
	"RSU":              {},
	"Convertible Note": {},
	"SAFE":             {},
}

func DefaultSecuritiesState() model.SecuritiesState {
	return model.SecuritiesState{Securities: []model.Security{}, Activity: []model.ActivityEntry{}}
}

type SecuritiesService struct {
	store *store.Store[model.SecuritiesState]
	bus   event.Bus
	now   func() time.Time
}

func NewSecuritiesService(st *store.Store[model.SecuritiesState], bus event.Bus) *SecuritiesService {
	return &SecuritiesService{store: st, bus: bus, now: utcNow}
}

func (s *SecuritiesService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *SecuritiesService) Seed(ctx context.Context, loader *demo.Loader) int {
	state := DefaultSecuritiesState()
	state.Securities = demo.LoadList[model.Security](ctx, loader, demo.SecuritiesPath)

	s.store.Replace(ctx, state)
	return len(state.Securities)
}

func (s *SecuritiesService) List(query model.ListQuery) ([]model.Security, model.Meta) {
	search := normalizeSearch(query.Search)

	filtered := make([]model.Security, 0)
	s.store.Read(func(state *model.SecuritiesState) {
		for _, security := range state.Securities {
			if query.Status != "" && !strings.EqualFold(security.Status, query.Status) {
				continue
			}
			if query.Type != "" && !strings.EqualFold(security.Type, query.Type) {
				continue
			}
			if search != "" && !containsFold(security.HolderName, search) && !containsFold(security.Notes, search) {
				continue
			}
			filtered = append(filtered, security)
		}
	})

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(filtered, page, limit)
}

func (s *SecuritiesService) Get(id string) (model.Security, error) {
	var found model.Security
	err := fmt.Errorf("%w: %s", model.ErrSecurityNotFound, id)

	s.store.Read(func(state *model.SecuritiesState) {
		if idx := indexSecurity(state, id); idx >= 0 {
			found = state.Securities[idx]
			err = nil
		}
	})
	return found, err
}

func (s *SecuritiesService) Issue(ctx context.Context, actor model.Actor, input model.Security) (model.Security, error) {
	input.ID = uuid.NewString()
	input.HolderName = strings.TrimSpace(input.HolderName)
	input.Status = model.SecurityStatusActive
	input.ExercisedQuantity = 0
	if input.IssueDate.IsZero() {
		input.IssueDate = s.now()
	}
	if err := validateSecurity(input); err != nil {
		observeRejection(securitiesModule, err)
		return model.Security{}, err
	}

	err := s.store.Mutate(ctx, func(state *model.SecuritiesState) error {
		state.Securities = append(state.Securities, input)
		appendActivity(&state.Activity, actor, "issued", input.ID,
			fmt.Sprintf("Issued %d %s to %s", input.Quantity, input.Type, input.HolderName), s.now())
		return nil
	})
	if err != nil {
		return model.Security{}, err
	}

	s.afterMutation("issued", input, actor)
	return input, nil
}

// Update edits the terms of an active security. Exercised quantity and status
// are only changed through Exercise and Cancel.
func (s *SecuritiesService) Update(ctx context.Context, actor model.Actor, id string, input model.Security) (model.Security, error) {
	var updated model.Security

	err := s.store.Mutate(ctx, func(state *model.SecuritiesState) error {
		idx := indexSecurity(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrSecurityNotFound, id)
		}

		current := state.Securities[idx]
		if current.Status != model.SecurityStatusActive {
			return &model.TransitionError{Entity: "security", ID: id, From: current.Status, To: "updated"}
		}

		input.ID = id
		input.HolderName = strings.TrimSpace(input.HolderName)
		input.Status = current.Status
		input.ExercisedQuantity = current.ExercisedQuantity
		if input.IssueDate.IsZero() {
			input.IssueDate = current.IssueDate
		}
		if err := validateSecurity(input); err != nil {
			return err
		}
		if input.Quantity < current.ExercisedQuantity {
			return fmt.Errorf("%w: quantity cannot drop below the %d already exercised", model.ErrInvalidInput, current.ExercisedQuantity)
		}

		state.Securities[idx] = input
		updated = input
		appendActivity(&state.Activity, actor, "updated", id, "Updated terms for "+input.HolderName, s.now())
		return nil
	})
	if err != nil {
		observeRejection(securitiesModule, err)
		return model.Security{}, err
	}

	s.afterMutation("updated", updated, actor)
	return updated, nil
}

// Exercise converts part of the vested, unexercised quantity. The security
// becomes Exercised once its whole quantity has been exercised.
func (s *SecuritiesService) Exercise(ctx context.Context, actor model.Actor, id string, quantity int64) (model.Security, error) {
	var updated model.Security

	err := s.store.Mutate(ctx, func(state *model.SecuritiesState) error {
		idx := indexSecurity(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrSecurityNotFound, id)
		}

		security := &state.Securities[idx]
		if security.Status != model.SecurityStatusActive {
			return &model.TransitionError{Entity: "security", ID: id, From: security.Status, To: model.SecurityStatusExercised}
		}
		if quantity <= 0 {
			return fmt.Errorf("%w: exercise quantity must be positive", model.ErrInvalidInput)
		}
		if available := security.Exercisable(); quantity > available {
			return fmt.Errorf("%w: only %d vested units can be exercised", model.ErrInvalidInput, available)
		}

		security.ExercisedQuantity += quantity
		if security.ExercisedQuantity >= security.Quantity {
			security.Status = model.SecurityStatusExercised
		}
		updated = *security

		appendActivity(&state.Activity, actor, "exercised", id,
			fmt.Sprintf("%s exercised %d at %.4f", security.HolderName, quantity, security.ExercisePrice), s.now())
		return nil
	})
	if err != nil {
		observeRejection(securitiesModule, err)
		return model.Security{}, err
	}

	s.afterMutation("exercised", updated, actor)
	return updated, nil
}

func (s *SecuritiesService) Cancel(ctx context.Context, actor model.Actor, id string, reason string) (model.Security, error) {
	var updated model.Security

	err := s.store.Mutate(ctx, func(state *model.SecuritiesState) error {
		idx := indexSecurity(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrSecurityNotFound, id)
		}

		security := &state.Securities[idx]
		if security.Status != model.SecurityStatusActive {
			return &model.TransitionError{Entity: "security", ID: id, From: security.Status, To: model.SecurityStatusCancelled}
		}

		security.Status = model.SecurityStatusCancelled
		updated = *security
		appendActivity(&state.Activity, actor, "cancelled", id, withNote("Cancelled "+security.Type+" for "+security.HolderName, reason), s.now())
		return nil
	})
	if err != nil {
		observeRejection(securitiesModule, err)
		return model.Security{}, err
	}

	s.afterMutation("cancelled", updated, actor)
	return updated, nil
}

// ExpireDue marks active securities whose expiration date has passed as Expired.
func (s *SecuritiesService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired := 0

	err := s.store.Mutate(ctx, func(state *model.SecuritiesState) error {
		for i := range state.Securities {
			security := &state.Securities[i]
			if security.Status != model.SecurityStatusActive || security.ExpirationDate == nil {
				continue
			}
			if security.ExpirationDate.After(now) {
				continue
			}
			security.Status = model.SecurityStatusExpired
			appendActivity(&state.Activity, systemActor, "expired", security.ID, "Expired "+security.Type+" for "+security.HolderName, now)
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.afterMutation("expired", map[string]int{"expired": expired}, systemActor)
	}
	return expired, nil
}

// Stats summarises the ledger. Intrinsic value is measured at sharePrice over
// outstanding active units priced below it.
func (s *SecuritiesService) Stats(sharePrice float64) model.SecurityStats {
	stats := model.SecurityStats{ByType: map[string]int{}, ByStatus: map[string]int{}}

	s.store.Read(func(state *model.SecuritiesState) {
		for _, security := range state.Securities {
			stats.Total++
			stats.ByType[security.Type]++
			stats.ByStatus[security.Status]++
			stats.ExercisedQuantity += security.ExercisedQuantity

			if security.Status != model.SecurityStatusActive {
				continue
			}
			outstanding := security.Quantity - security.ExercisedQuantity
			stats.OutstandingQuantity += outstanding
			if spread := sharePrice - security.ExercisePrice; spread > 0 {
				stats.IntrinsicValue += spread * float64(outstanding)
			}
		}
	})

	return stats
}

func (s *SecuritiesService) Activity(limit int) []model.ActivityEntry {
	var out []model.ActivityEntry
	s.store.Read(func(state *model.SecuritiesState) {
		out = newestFirst(state.Activity, limit)
	})
	return out
}

func (s *SecuritiesService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(securitiesModule, action)
	event.Emit(s.bus, event.TypeSecurityChanged, payload, actor.UserID)
}

func indexSecurity(state *model.SecuritiesState, id string) int {
	for i, security := range state.Securities {
		if security.ID == id {
			return i
		}
	}
	return -1
}

func validateSecurity(security model.Security) error {
	if _, ok := securityTypes[security.Type]; !ok {
		return fmt.Errorf("%w: unsupported security type %q", model.ErrInvalidInput, security.Type)
	}
	if security.HolderName == "" {
		return fmt.Errorf("%w: holderName is required", model.ErrInvalidInput)
	}
	if security.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", model.ErrInvalidInput)
	}
	if security.ExercisePrice < 0 {
		return fmt.Errorf("%w: exercisePrice cannot be negative", model.ErrInvalidInput)
	}
	if security.VestedPercentage < 0 || security.VestedPercentage > 100 {
		return fmt.Errorf("%w: vestedPercentage must be between 0 and 100", model.ErrInvalidInput)
	}
	if security.ExpirationDate != nil && security.ExpirationDate.Before(security.IssueDate) {
		return fmt.Errorf("%w: expirationDate is before issueDate", model.ErrInvalidInput)
	}
	return nil
}
