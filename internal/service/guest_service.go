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
	GuestsStoreKey = "guests-store"
	guestsModule   = "guests"
)

func DefaultGuestsState() model.GuestsState {
	return model.GuestsState{Guests: []model.Guest{}, Activity: []model.ActivityEntry{}}
}

type GuestService struct {
	store *store.Store[model.GuestsState]
	bus   event.Bus
	now   func() time.Time
}

func NewGuestService(st *store.Store[model.GuestsState], bus event.Bus) *GuestService {
	return &GuestService{store: st, bus: bus, now: utcNow}
}

func (s *GuestService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *GuestService) Seed(ctx context.Context, loader *demo.Loader) int {
	state := DefaultGuestsState()
	state.Guests = demo.LoadList[model.Guest](ctx, loader, demo.GuestsPath)

	s.store.Replace(ctx, state)
	return len(state.Guests)
}

// List filters by VIP flag (query.Status "vip" or "regular"), loyalty tier
// (query.Type) and search text, ordered by last name.
func (s *GuestService) List(query model.ListQuery) ([]model.Guest, model.Meta) {
	search := normalizeSearch(query.Search)
	vipFilter := strings.ToLower(strings.TrimSpace(query.Status))

	filtered := make([]model.Guest, 0)
	s.store.Read(func(state *model.GuestsState) {
		for _, guest := range state.Guests {
			if vipFilter == "vip" && !guest.VIP {
				continue
			}
			if vipFilter == "regular" && guest.VIP {
				continue
			}
			if query.Type != "" && !strings.EqualFold(guest.LoyaltyTier, query.Type) {
				continue
			}
			if search != "" &&
				!containsFold(guest.FullName(), search) &&
				!containsFold(guest.Email, search) &&
				!containsFold(guest.Phone, search) {
				continue
			}
			filtered = append(filtered, cloneGuest(guest))
		}
	})

	sort.SliceStable(filtered, func(i int, j int) bool {
		return strings.ToLower(filtered[i].LastName) < strings.ToLower(filtered[j].LastName)
	})

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(filtered, page, limit)
}

func (s *GuestService) Get(id string) (model.Guest, error) {
	var found model.Guest
	err := fmt.Errorf("%w: %s", model.ErrGuestNotFound, id)

	s.store.Read(func(state *model.GuestsState) {
		if idx := indexGuest(state, id); idx >= 0 {
			found = cloneGuest(state.Guests[idx])
			err = nil
		}
	})
	return found, err
}

func (s *GuestService) Add(ctx context.Context, actor model.Actor, input model.Guest) (model.Guest, error) {
	input.ID = uuid.NewString()
	input.CreatedAt = s.now()
	input.TotalStays = 0
	input.TotalSpent = 0
	input.LastStayDate = nil

	guest, err := normalizeGuest(input)
	if err != nil {
		observeRejection(guestsModule, err)
		return model.Guest{}, err
	}

	err = s.store.Mutate(ctx, func(state *model.GuestsState) error {
		state.Guests = append(state.Guests, guest)
		appendActivity(&state.Activity, actor, "created", guest.ID, "Created guest "+guest.FullName(), s.now())
		return nil
	})
	if err != nil {
		return model.Guest{}, err
	}

	s.afterMutation("created", guest, actor)
	return cloneGuest(guest), nil
}

// Update replaces the profile fields. Stay history is kept as recorded.
func (s *GuestService) Update(ctx context.Context, actor model.Actor, id string, input model.Guest) (model.Guest, error) {
	return s.modify(ctx, actor, id, "updated", func(guest *model.Guest) (string, error) {
		input.ID = guest.ID
		input.CreatedAt = guest.CreatedAt
		input.TotalStays = guest.TotalStays
		input.TotalSpent = guest.TotalSpent
		input.LastStayDate = guest.LastStayDate

		normalized, err := normalizeGuest(input)
		if err != nil {
			return "", err
		}
		*guest = normalized
		return "Updated guest " + guest.FullName(), nil
	})
}

func (s *GuestService) ToggleVIP(ctx context.Context, actor model.Actor, id string) (model.Guest, error) {
	return s.modify(ctx, actor, id, "vip_toggled", func(guest *model.Guest) (string, error) {
		guest.VIP = !guest.VIP
		if guest.VIP {
			return guest.FullName() + " marked VIP", nil
		}
		return guest.FullName() + " no longer VIP", nil
	})
}

// RecordStay adds a completed stay to the guest's history.
func (s *GuestService) RecordStay(ctx context.Context, actor model.Actor, id string, amount float64, date time.Time) (model.Guest, error) {
	if amount < 0 {
		return model.Guest{}, fmt.Errorf("%w: stay amount cannot be negative", model.ErrInvalidInput)
	}
	if date.IsZero() {
		date = s.now()
	}

	return s.modify(ctx, actor, id, "stay_recorded", func(guest *model.Guest) (string, error) {
		guest.TotalStays++
		guest.TotalSpent += amount
		if guest.LastStayDate == nil || date.After(*guest.LastStayDate) {
			stayDate := date
			guest.LastStayDate = &stayDate
		}
		return fmt.Sprintf("Recorded stay for %s: %.2f", guest.FullName(), amount), nil
	})
}

func (s *GuestService) Delete(ctx context.Context, actor model.Actor, id string) error {
	var removed model.Guest

	err := s.store.Mutate(ctx, func(state *model.GuestsState) error {
		idx := indexGuest(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrGuestNotFound, id)
		}
		removed = state.Guests[idx]
		state.Guests = append(state.Guests[:idx], state.Guests[idx+1:]...)
		appendActivity(&state.Activity, actor, "deleted", id, "Deleted guest "+removed.FullName(), s.now())
		return nil
	})
	if err != nil {
		observeRejection(guestsModule, err)
		return err
	}

	s.afterMutation("deleted", removed, actor)
	return nil
}

func (s *GuestService) modify(ctx context.Context, actor model.Actor, id string, action string, change func(guest *model.Guest) (string, error)) (model.Guest, error) {
	var updated model.Guest

	err := s.store.Mutate(ctx, func(state *model.GuestsState) error {
		idx := indexGuest(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrGuestNotFound, id)
		}

		details, err := change(&state.Guests[idx])
		if err != nil {
			return err
		}
		updated = cloneGuest(state.Guests[idx])
		appendActivity(&state.Activity, actor, action, id, details, s.now())
		return nil
	})
	if err != nil {
		observeRejection(guestsModule, err)
		return model.Guest{}, err
	}

	s.afterMutation(action, updated, actor)
	return updated, nil
}

func (s *GuestService) Stats() model.GuestStats {
	stats := model.GuestStats{ByTier: map[string]int{}}

	s.store.Read(func(state *model.GuestsState) {
		for _, guest := range state.Guests {
			stats.Total++
			if guest.VIP {
				stats.VIP++
			}
			if guest.LoyaltyTier != "" {
				stats.ByTier[guest.LoyaltyTier]++
			}
			stats.TotalSpent += guest.TotalSpent
		}
	})

	if stats.Total > 0 {
		stats.AverageSpend = stats.TotalSpent / float64(stats.Total)
	}
	return stats
}

func (s *GuestService) Activity(limit int) []model.ActivityEntry {
	var out []model.ActivityEntry
	s.store.Read(func(state *model.GuestsState) {
		out = newestFirst(state.Activity, limit)
	})
	return out
}

func (s *GuestService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(guestsModule, action)
	event.Emit(s.bus, event.TypeGuestChanged, payload, actor.UserID)
}

func indexGuest(state *model.GuestsState, id string) int {
	for i, guest := range state.Guests {
		if guest.ID == id {
			return i
		}
	}
	return -1
}

func cloneGuest(guest model.Guest) model.Guest {
	if guest.Preferences != nil {
		guest.Preferences = append([]string{}, guest.Preferences...)
	}
	return guest
}

func normalizeGuest(guest model.Guest) (model.Guest, error) {
	guest.FirstName = strings.TrimSpace(guest.FirstName)
	guest.LastName = strings.TrimSpace(guest.LastName)
	guest.Email = strings.TrimSpace(guest.Email)

	if guest.FirstName == "" {
		return model.Guest{}, fmt.Errorf("%w: firstName is required", model.ErrInvalidInput)
	}
	if guest.Email != "" {
		if _, err := mail.ParseAddress(guest.Email); err != nil {
			return model.Guest{}, fmt.Errorf("%w: invalid email %q", model.ErrInvalidInput, guest.Email)
		}
	}
	return guest, nil
}
