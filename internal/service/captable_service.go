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
)

const (
	CapTableStoreKey = "cap-table-store"
	capTableModule   = "cap_table"
)

func DefaultCapTableState() model.CapTableState {
	return model.CapTableState{
		Shareholders:  []model.Shareholder{},
		EquityClasses: []model.EquityClass{},
		Activity:      []model.ActivityEntry{},
	}
}

// CapTableService owns shareholders and equity classes. Ownership figures are
// derived on every read and never stored.
type CapTableService struct {
	store *store.Store[model.CapTableState]
	bus   event.Bus
	now   func() time.Time
}

func NewCapTableService(st *store.Store[model.CapTableState], bus event.Bus) *CapTableService {
	return &CapTableService{store: st, bus: bus, now: utcNow}
}

func (s *CapTableService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *CapTableService) Seed(ctx context.Context, loader *demo.Loader) int {
	state := DefaultCapTableState()
	state.EquityClasses = demo.LoadList[model.EquityClass](ctx, loader, demo.CapTableEquityClassesPath)
	state.Shareholders = demo.LoadList[model.Shareholder](ctx, loader, demo.CapTableShareholdersPath)

	s.store.Replace(ctx, state)
	return len(state.Shareholders)
}

// ListShareholders filters by equity class (query.Type) and search text, then
// sorts by ownership descending.
func (s *CapTableService) ListShareholders(query model.ListQuery) ([]model.ShareholderView, model.Meta) {
	search := normalizeSearch(query.Search)
	class := strings.TrimSpace(query.Type)

	var views []model.ShareholderView
	s.store.Read(func(state *model.CapTableState) {
		views = ownershipViews(state.Shareholders)
	})

	filtered := make([]model.ShareholderView, 0, len(views))
	for _, view := range views {
		if class != "" && view.EquityClass != class {
			continue
		}
		if search != "" && !containsFold(view.Name, search) && !containsFold(view.Email, search) {
			continue
		}
		filtered = append(filtered, view)
	}

	sort.SliceStable(filtered, func(i int, j int) bool {
		return filtered[i].SharesHeld > filtered[j].SharesHeld
	})

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(filtered, page, limit)
}

// Shareholders returns every shareholder with its current ownership percentage.
func (s *CapTableService) Shareholders() []model.ShareholderView {
	var views []model.ShareholderView
	s.store.Read(func(state *model.CapTableState) {
		views = ownershipViews(state.Shareholders)
	})
	return views
}

func (s *CapTableService) GetShareholder(id string) (model.ShareholderView, error) {
	for _, view := range s.Shareholders() {
		if view.ID == id {
			return view, nil
		}
	}
	return model.ShareholderView{}, fmt.Errorf("%w: %s", model.ErrShareholderNotFound, id)
}

func (s *CapTableService) AddShareholder(ctx context.Context, actor model.Actor, input model.Shareholder) (model.Shareholder, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.ID = uuid.NewString()
	if input.InvestmentDate.IsZero() {
		input.InvestmentDate = s.now()
	}

	err := s.store.Mutate(ctx, func(state *model.CapTableState) error {
		if err := validateShareholder(state, input, ""); err != nil {
			return err
		}

		state.Shareholders = append(state.Shareholders, input)
		appendActivity(&state.Activity, actor, "shareholder_added", input.ID,
			fmt.Sprintf("Added %s with %d shares", input.Name, input.SharesHeld), s.now())
		return nil
	})
	if err != nil {
		observeRejection(capTableModule, err)
		return model.Shareholder{}, err
	}

	s.afterMutation("shareholder_added", input, actor)
	return input, nil
}

func (s *CapTableService) UpdateShareholder(ctx context.Context, actor model.Actor, id string, input model.Shareholder) (model.Shareholder, error) {
	input.Name = strings.TrimSpace(input.Name)
	var updated model.Shareholder

	err := s.store.Mutate(ctx, func(state *model.CapTableState) error {
		idx := indexShareholder(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrShareholderNotFound, id)
		}

		input.ID = id
		if input.InvestmentDate.IsZero() {
			input.InvestmentDate = state.Shareholders[idx].InvestmentDate
		}
		if err := validateShareholder(state, input, id); err != nil {
			return err
		}

		before := state.Shareholders[idx].SharesHeld
		state.Shareholders[idx] = input
		updated = input
		appendActivity(&state.Activity, actor, "shareholder_updated", id,
			fmt.Sprintf("Updated %s: shares %d -> %d", input.Name, before, input.SharesHeld), s.now())
		return nil
	})
	if err != nil {
		observeRejection(capTableModule, err)
		return model.Shareholder{}, err
	}

	s.afterMutation("shareholder_updated", updated, actor)
	return updated, nil
}

func (s *CapTableService) RemoveShareholder(ctx context.Context, actor model.Actor, id string) error {
	var removed model.Shareholder

	err := s.store.Mutate(ctx, func(state *model.CapTableState) error {
		idx := indexShareholder(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrShareholderNotFound, id)
		}

		removed = state.Shareholders[idx]
		state.Shareholders = append(state.Shareholders[:idx], state.Shareholders[idx+1:]...)
		appendActivity(&state.Activity, actor, "shareholder_removed", id, "Removed "+removed.Name, s.now())
		return nil
	})
	if err != nil {
		observeRejection(capTableModule, err)
		return err
	}

	s.afterMutation("shareholder_removed", removed, actor)
	return nil
}

func (s *CapTableService) EquityClasses() []model.EquityClass {
	var classes []model.EquityClass
	s.store.Read(func(state *model.CapTableState) {
		classes = append([]model.EquityClass{}, state.EquityClasses...)
	})
	return classes
}

func (s *CapTableService) AddEquityClass(ctx context.Context, actor model.Actor, input model.EquityClass) (model.EquityClass, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.ID == "" {
		input.ID = uuid.NewString()
	}

	err := s.store.Mutate(ctx, func(state *model.CapTableState) error {
		if indexEquityClass(state, input.ID) >= 0 {
			return fmt.Errorf("%w: equity class %s already exists", model.ErrInvalidInput, input.ID)
		}
		if err := validateEquityClass(state, input); err != nil {
			return err
		}

		state.EquityClasses = append(state.EquityClasses, input)
		appendActivity(&state.Activity, actor, "class_added", input.ID,
			fmt.Sprintf("Added equity class %s (%d authorized)", input.Name, input.AuthorizedShares), s.now())
		return nil
	})
	if err != nil {
		observeRejection(capTableModule, err)
		return model.EquityClass{}, err
	}

	s.afterMutation("class_added", input, actor)
	return input, nil
}

func (s *CapTableService) UpdateEquityClass(ctx context.Context, actor model.Actor, id string, input model.EquityClass) (model.EquityClass, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.ID = id

	err := s.store.Mutate(ctx, func(state *model.CapTableState) error {
		idx := indexEquityClass(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrEquityClassNotFound, id)
		}
		if err := validateEquityClass(state, input); err != nil {
			return err
		}

		state.EquityClasses[idx] = input
		appendActivity(&state.Activity, actor, "class_updated", id, "Updated equity class "+input.Name, s.now())
		return nil
	})
	if err != nil {
		observeRejection(capTableModule, err)
		return model.EquityClass{}, err
	}

	s.afterMutation("class_updated", input, actor)
	return input, nil
}

// RemoveEquityClass refuses to drop a class that shareholders still hold.
func (s *CapTableService) RemoveEquityClass(ctx context.Context, actor model.Actor, id string) error {
	var removed model.EquityClass

	err := s.store.Mutate(ctx, func(state *model.CapTableState) error {
		idx := indexEquityClass(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrEquityClassNotFound, id)
		}
		for _, holder := range state.Shareholders {
			if holder.EquityClass == id {
				return fmt.Errorf("%w: %s is held by %s", model.ErrEquityClassInUse, id, holder.Name)
			}
		}

		removed = state.EquityClasses[idx]
		state.EquityClasses = append(state.EquityClasses[:idx], state.EquityClasses[idx+1:]...)
		appendActivity(&state.Activity, actor, "class_removed", id, "Removed equity class "+removed.Name, s.now())
		return nil
	})
	if err != nil {
		observeRejection(capTableModule, err)
		return err
	}

	s.afterMutation("class_removed", removed, actor)
	return nil
}

// ClassBreakdown reports issued and available shares per equity class.
func (s *CapTableService) ClassBreakdown() []model.EquityClassBreakdown {
	var out []model.EquityClassBreakdown

	s.store.Read(func(state *model.CapTableState) {
		total := totalShares(state.Shareholders)
		out = make([]model.EquityClassBreakdown, 0, len(state.EquityClasses))
		for _, class := range state.EquityClasses {
			item := model.EquityClassBreakdown{
				ClassID:          class.ID,
				Name:             class.Name,
				AuthorizedShares: class.AuthorizedShares,
			}
			for _, holder := range state.Shareholders {
				if holder.EquityClass == class.ID {
					item.IssuedShares += holder.SharesHeld
					item.Holders++
				}
			}
			item.AvailableShares = class.AuthorizedShares - item.IssuedShares
			item.PercentageOfTotal = percentage(item.IssuedShares, total)
			out = append(out, item)
		}
	})

	return out
}

func (s *CapTableService) Summary() model.CapTableSummary {
	var summary model.CapTableSummary

	s.store.Read(func(state *model.CapTableState) {
		summary.Shareholders = len(state.Shareholders)
		summary.EquityClasses = len(state.EquityClasses)
		summary.TotalSharesOutstanding = totalShares(state.Shareholders)
		for _, holder := range state.Shareholders {
			summary.TotalInvested += holder.InvestmentAmount
		}
		for _, class := range state.EquityClasses {
			summary.TotalAuthorizedShares += class.AuthorizedShares
		}
	})

	return summary
}

func (s *CapTableService) Activity(limit int) []model.ActivityEntry {
	var out []model.ActivityEntry
	s.store.Read(func(state *model.CapTableState) {
		out = newestFirst(state.Activity, limit)
	})
	return out
}

func (s *CapTableService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(capTableModule, action)
	event.Emit(s.bus, event.TypeCapTableChanged, payload, actor.UserID)
}

func ownershipViews(holders []model.Shareholder) []model.ShareholderView {
	total := totalShares(holders)

	views := make([]model.ShareholderView, 0, len(holders))
	for _, holder := range holders {
		views = append(views, model.ShareholderView{
			Shareholder:         holder,
			OwnershipPercentage: percentage(holder.SharesHeld, total),
		})
	}
	return views
}

func totalShares(holders []model.Shareholder) int64 {
	var total int64
	for _, holder := range holders {
		total += holder.SharesHeld
	}
	return total
}

func percentage(part int64, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func indexShareholder(state *model.CapTableState, id string) int {
	for i, holder := range state.Shareholders {
		if holder.ID == id {
			return i
		}
	}
	return -1
}

func indexEquityClass(state *model.CapTableState, id string) int {
	for i, class := range state.EquityClasses {
		if class.ID == id {
			return i
		}
	}
	return -1
}

// validateShareholder checks the holder against its class; skipID excludes the
// holder being replaced from the issued total.
func validateShareholder(state *model.CapTableState, holder model.Shareholder, skipID string) error {
	if holder.Name == "" {
		return fmt.Errorf("%w: shareholder name is required", model.ErrInvalidInput)
	}
	if holder.SharesHeld < 0 {
		return fmt.Errorf("%w: sharesHeld cannot be negative", model.ErrInvalidInput)
	}
	if holder.InvestmentAmount < 0 {
		return fmt.Errorf("%w: investmentAmount cannot be negative", model.ErrInvalidInput)
	}

	idx := indexEquityClass(state, holder.EquityClass)
	if idx < 0 {
		return fmt.Errorf("%w: %s", model.ErrEquityClassNotFound, holder.EquityClass)
	}

	issued := holder.SharesHeld
	for _, other := range state.Shareholders {
		if other.ID != skipID && other.EquityClass == holder.EquityClass {
			issued += other.SharesHeld
		}
	}
	if authorized := state.EquityClasses[idx].AuthorizedShares; issued > authorized {
		return fmt.Errorf("%w: %d shares would exceed the %d authorized for %s", model.ErrInvalidInput, issued, authorized, state.EquityClasses[idx].Name)
	}

	return nil
}

func validateEquityClass(state *model.CapTableState, class model.EquityClass) error {
	if class.Name == "" {
		return fmt.Errorf("%w: equity class name is required", model.ErrInvalidInput)
	}
	if class.AuthorizedShares <= 0 {
		return fmt.Errorf("%w: authorizedShares must be positive", model.ErrInvalidInput)
	}
	if class.ParValue < 0 || class.LiquidationPreference < 0 {
		return fmt.Errorf("%w: parValue and liquidationPreference cannot be negative", model.ErrInvalidInput)
	}

	var issued int64
	for _, holder := range state.Shareholders {
		if holder.EquityClass == class.ID {
			issued += holder.SharesHeld
		}
	}
	if class.AuthorizedShares < issued {
		return fmt.Errorf("%w: %d shares already issued in %s", model.ErrInvalidInput, issued, class.Name)
	}

	return nil
}
