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
	RecycleBinStoreKey = "recycle-bin-store"
	recycleBinModule   = "recycle_bin"

	defaultRecyclePageSize = 10
	maxRecyclePageSize     = 100
	autoArchiveTarget      = "auto-archive"
)

var systemActor = model.Actor{Username: "system"}

// DefaultRecycleBinState is the state of a recycle bin that has never been used.
func DefaultRecycleBinState(retentionDays int) model.RecycleBinState {
	if retentionDays <= 0 {
		retentionDays = 30
	}

	return model.RecycleBinState{
		Records:           []model.RecycledRecord{},
		AuditLog:          []model.AuditLogEntry{},
		Sort:              model.SortConfig{Field: model.SortByDeletedAt, Order: model.SortDesc},
		Pagination:        model.Pagination{Page: 1, PageSize: defaultRecyclePageSize},
		SelectedRecordIDs: []string{},
		Policy:            model.RetentionPolicy{RetentionDays: retentionDays},
	}
}

type RecycleBinService struct {
	store *store.Store[model.RecycleBinState]
	bus   event.Bus
	now   func() time.Time
}

func NewRecycleBinService(st *store.Store[model.RecycleBinState], bus event.Bus) *RecycleBinService {
	return &RecycleBinService{
		store: st,
		bus:   bus,
		now:   utcNow,
	}
}

func (s *RecycleBinService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Seed replaces the records with the demo fixture, keeping view state and policy.
func (s *RecycleBinService) Seed(ctx context.Context, loader *demo.Loader) int {
	records := demo.LoadList[model.RecycledRecord](ctx, loader, demo.RecycleBinPath)

	var state model.RecycleBinState
	s.store.Read(func(current *model.RecycleBinState) {
		state = DefaultRecycleBinState(current.Policy.RetentionDays)
		if current.Policy.RetentionDays > 0 {
			state.Policy = current.Policy
		}
	})
	state.Records = records

	s.store.Replace(ctx, state)
	return len(records)
}

func (s *RecycleBinService) RestoreRecord(ctx context.Context, actor model.Actor, id string, note string) (model.RecycledRecord, error) {
	var restored model.RecycledRecord

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		idx, err := findRecord(state, id)
		if err != nil {
			return err
		}
		if err := checkRestorable(state.Records[idx]); err != nil {
			return err
		}

		now := s.now()
		applyRestore(&state.Records[idx], actor, now)
		restored = state.Records[idx]

		appendAudit(state, model.AuditLogEntry{
			Action:       model.AuditRestore,
			UserName:     actor.Name(),
			Timestamp:    now,
			RecordID:     restored.ID,
			RecordModule: restored.Module,
			Details:      withNote(fmt.Sprintf("Restored %s %q to %s", restored.Module, restored.Title, locationOf(restored)), note),
		})
		return nil
	})
	if err != nil {
		observeRejection(recycleBinModule, err)
		return model.RecycledRecord{}, err
	}

	s.afterMutation(model.AuditRestore, event.TypeRecordRestored, restored, actor)
	return restored, nil
}

func (s *RecycleBinService) ArchiveRecord(ctx context.Context, actor model.Actor, id string, target string, note string) (model.RecycledRecord, error) {
	target = archiveTargetOrDefault(target)
	var archived model.RecycledRecord

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		idx, err := findRecord(state, id)
		if err != nil {
			return err
		}
		if err := checkArchivable(state.Records[idx]); err != nil {
			return err
		}

		now := s.now()
		applyArchive(&state.Records[idx], actor, target, now)
		archived = state.Records[idx]

		appendAudit(state, model.AuditLogEntry{
			Action:       model.AuditArchive,
			UserName:     actor.Name(),
			Timestamp:    now,
			RecordID:     archived.ID,
			RecordModule: archived.Module,
			Details:      withNote(fmt.Sprintf("Archived %s %q to %s", archived.Module, archived.Title, target), note),
		})
		return nil
	})
	if err != nil {
		observeRejection(recycleBinModule, err)
		return model.RecycledRecord{}, err
	}

	s.afterMutation(model.AuditArchive, event.TypeRecordArchived, archived, actor)
	return archived, nil
}

func (s *RecycleBinService) DeleteRecordPermanently(ctx context.Context, actor model.Actor, id string, note string) (model.RecycledRecord, error) {
	var deleted model.RecycledRecord

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		idx, err := findRecord(state, id)
		if err != nil {
			return err
		}
		if err := checkDeletable(state.Records[idx]); err != nil {
			return err
		}

		deleted = state.Records[idx]
		removeRecords(state, map[string]struct{}{deleted.ID: {}})

		appendAudit(state, model.AuditLogEntry{
			Action:       model.AuditDelete,
			UserName:     actor.Name(),
			Timestamp:    s.now(),
			RecordID:     deleted.ID,
			RecordModule: deleted.Module,
			Details:      withNote(fmt.Sprintf("Permanently deleted %s %q", deleted.Module, deleted.Title), note),
		})
		return nil
	})
	if err != nil {
		observeRejection(recycleBinModule, err)
		return model.RecycledRecord{}, err
	}

	s.afterMutation(model.AuditDelete, event.TypeRecordDeleted, deleted, actor)
	return deleted, nil
}

// BulkRestore restores every record in ids, or the current selection when ids
// is empty. Nothing changes unless every record can be restored.
func (s *RecycleBinService) BulkRestore(ctx context.Context, actor model.Actor, ids []string, note string) (model.BulkResult, error) {
	return s.bulk(ctx, actor, model.AuditRestore, ids, checkRestorable, func(state *model.RecycleBinState, targets []int, now time.Time) string {
		for _, idx := range targets {
			applyRestore(&state.Records[idx], actor, now)
		}
		return withNote(fmt.Sprintf("Bulk restored %d records", len(targets)), note)
	})
}

func (s *RecycleBinService) BulkArchive(ctx context.Context, actor model.Actor, ids []string, target string, note string) (model.BulkResult, error) {
	target = archiveTargetOrDefault(target)

	return s.bulk(ctx, actor, model.AuditArchive, ids, checkArchivable, func(state *model.RecycleBinState, targets []int, now time.Time) string {
		for _, idx := range targets {
			applyArchive(&state.Records[idx], actor, target, now)
		}
		return withNote(fmt.Sprintf("Bulk archived %d records to %s", len(targets), target), note)
	})
}

func (s *RecycleBinService) BulkDelete(ctx context.Context, actor model.Actor, ids []string, note string) (model.BulkResult, error) {
	return s.bulk(ctx, actor, model.AuditDelete, ids, checkDeletable, func(state *model.RecycleBinState, targets []int, _ time.Time) string {
		drop := make(map[string]struct{}, len(targets))
		for _, idx := range targets {
			drop[state.Records[idx].ID] = struct{}{}
		}
		removeRecords(state, drop)
		return withNote(fmt.Sprintf("Bulk permanently deleted %d records", len(targets)), note)
	})
}

type bulkApply func(state *model.RecycleBinState, targets []int, now time.Time) string

func (s *RecycleBinService) bulk(ctx context.Context, actor model.Actor, action string, ids []string, check func(model.RecycledRecord) error, apply bulkApply) (model.BulkResult, error) {
	var result model.BulkResult

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		unique := dedupe(ids)
		if len(unique) == 0 {
			unique = dedupe(state.SelectedRecordIDs)
		}
		if len(unique) == 0 {
			return model.ErrEmptySelection
		}

		targets := make([]int, 0, len(unique))
		for _, id := range unique {
			idx, err := findRecord(state, id)
			if err != nil {
				return err
			}
			if err := check(state.Records[idx]); err != nil {
				return err
			}
			targets = append(targets, idx)
		}

		now := s.now()
		details := apply(state, targets, now)
		appendAudit(state, model.AuditLogEntry{
			Action:              action,
			UserName:            actor.Name(),
			Timestamp:           now,
			AffectedRecordCount: len(unique),
			Details:             details,
		})
		state.SelectedRecordIDs = []string{}

		result = model.BulkResult{Action: action, RecordIDs: unique, AffectedRecordCount: len(unique)}
		return nil
	})
	if err != nil {
		observeRejection(recycleBinModule, err)
		return model.BulkResult{}, err
	}

	s.afterMutation("bulk_"+action, bulkEventType(action), result, actor)
	return result, nil
}

func (s *RecycleBinService) PlaceHold(ctx context.Context, actor model.Actor, id string, reason string) (model.RecycledRecord, error) {
	reason = util.CleanText(reason, util.MaxNoteLength)
	if reason == "" {
		return model.RecycledRecord{}, fmt.Errorf("%w: hold reason is required", model.ErrInvalidInput)
	}

	return s.setHold(ctx, actor, id, true, reason)
}

func (s *RecycleBinService) RemoveHold(ctx context.Context, actor model.Actor, id string) (model.RecycledRecord, error) {
	return s.setHold(ctx, actor, id, false, "")
}

func (s *RecycleBinService) setHold(ctx context.Context, actor model.Actor, id string, onHold bool, reason string) (model.RecycledRecord, error) {
	var updated model.RecycledRecord
	action := model.AuditHoldRemoved
	if onHold {
		action = model.AuditHoldPlaced
	}

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		idx, err := findRecord(state, id)
		if err != nil {
			return err
		}

		record := &state.Records[idx]
		if record.OnHold == onHold {
			return fmt.Errorf("%w: record %s", model.ErrHoldConflict, id)
		}

		now := s.now()
		var details string
		if onHold {
			record.OnHold = true
			record.HoldReason = reason
			record.HeldBy = actor.Name()
			record.HeldAt = &now
			details = fmt.Sprintf("Legal hold placed on %s %q: %s", record.Module, record.Title, reason)
		} else {
			details = fmt.Sprintf("Legal hold removed from %s %q", record.Module, record.Title)
			if record.HoldReason != "" {
				details += " (was: " + record.HoldReason + ")"
			}
			record.OnHold = false
			record.HoldReason = ""
			record.HeldBy = ""
			record.HeldAt = nil
		}
		updated = *record

		appendAudit(state, model.AuditLogEntry{
			Action:       action,
			UserName:     actor.Name(),
			Timestamp:    now,
			RecordID:     record.ID,
			RecordModule: record.Module,
			Details:      details,
		})
		return nil
	})
	if err != nil {
		observeRejection(recycleBinModule, err)
		return model.RecycledRecord{}, err
	}

	s.afterMutation(action, event.TypeRecordHold, updated, actor)
	return updated, nil
}

func (s *RecycleBinService) ToggleRecordSelection(ctx context.Context, id string) ([]string, error) {
	var selected []string

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		for i, current := range state.SelectedRecordIDs {
			if current == id {
				state.SelectedRecordIDs = append(state.SelectedRecordIDs[:i], state.SelectedRecordIDs[i+1:]...)
				selected = append([]string(nil), state.SelectedRecordIDs...)
				return nil
			}
		}

		if _, err := findRecord(state, id); err != nil {
			return err
		}
		state.SelectedRecordIDs = append(state.SelectedRecordIDs, id)
		selected = append([]string(nil), state.SelectedRecordIDs...)
		return nil
	})

	return selected, err
}

// SelectAll replaces the selection with ids. Unknown ids are rejected.
func (s *RecycleBinService) SelectAll(ctx context.Context, ids []string) ([]string, error) {
	unique := dedupe(ids)

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		for _, id := range unique {
			if _, err := findRecord(state, id); err != nil {
				return err
			}
		}
		state.SelectedRecordIDs = append([]string{}, unique...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return unique, nil
}

func (s *RecycleBinService) ClearSelection(ctx context.Context) error {
	return s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		state.SelectedRecordIDs = []string{}
		return nil
	})
}

func (s *RecycleBinService) SelectedRecordIDs() []string {
	var ids []string
	s.store.Read(func(state *model.RecycleBinState) {
		ids = append([]string{}, state.SelectedRecordIDs...)
	})
	return ids
}

func (s *RecycleBinService) SetSort(ctx context.Context, field string, order string) error {
	cfg, err := normalizeSort(model.SortConfig{Field: field, Order: order})
	if err != nil {
		return err
	}

	return s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		state.Sort = cfg
		return nil
	})
}

// SetPagination stores the page and page size of the view. A page past the
// end of the filtered records yields an empty page.
func (s *RecycleBinService) SetPagination(ctx context.Context, page int, pageSize int) error {
	if page < 1 || pageSize < 1 || pageSize > maxRecyclePageSize {
		return fmt.Errorf("%w: page must be >= 1 and pageSize between 1 and %d", model.ErrInvalidInput, maxRecyclePageSize)
	}

	return s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		state.Pagination = model.Pagination{Page: page, PageSize: pageSize}
		return nil
	})
}

// SetFilter stores the active filter and moves back to the first page.
func (s *RecycleBinService) SetFilter(ctx context.Context, filter model.RecordFilter) error {
	if filter.DeletedFrom != nil && filter.DeletedTo != nil && filter.DeletedTo.Before(*filter.DeletedFrom) {
		return fmt.Errorf("%w: deletedTo is before deletedFrom", model.ErrInvalidInput)
	}

	return s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		state.Filter = filter
		state.Pagination.Page = 1
		return nil
	})
}

type RecycleBinView struct {
	Filter            model.RecordFilter    `json:"filter"`
	Sort              model.SortConfig      `json:"sort"`
	Pagination        model.Pagination      `json:"pagination"`
	SelectedRecordIDs []string              `json:"selectedRecordIds"`
	Policy            model.RetentionPolicy `json:"policy"`
}

func (s *RecycleBinService) View() RecycleBinView {
	var view RecycleBinView
	s.store.Read(func(state *model.RecycleBinState) {
		view = RecycleBinView{
			Filter:            state.Filter,
			Sort:              state.Sort,
			Pagination:        state.Pagination,
			SelectedRecordIDs: append([]string{}, state.SelectedRecordIDs...),
			Policy:            state.Policy,
		}
	})
	return view
}

func (s *RecycleBinService) GetRecord(id string) (model.RecycledRecord, error) {
	var record model.RecycledRecord
	var err error

	s.store.Read(func(state *model.RecycleBinState) {
		idx, findErr := findRecord(state, id)
		if findErr != nil {
			err = findErr
			return
		}
		record = state.Records[idx]
	})

	return record, err
}

// FilteredRecords applies the stored filter and sort to the working set.
func (s *RecycleBinService) FilteredRecords() []model.RecycledRecord {
	var out []model.RecycledRecord
	s.store.Read(func(state *model.RecycleBinState) {
		out = sortRecords(filterRecords(state.Records, state.Filter), state.Sort)
	})
	return out
}

// PagedRecords returns the stored page of FilteredRecords.
func (s *RecycleBinService) PagedRecords() ([]model.RecycledRecord, model.Meta) {
	var filtered []model.RecycledRecord
	var pagination model.Pagination
	s.store.Read(func(state *model.RecycleBinState) {
		filtered = sortRecords(filterRecords(state.Records, state.Filter), state.Sort)
		pagination = state.Pagination
	})

	page, size := normalizeRecyclePage(pagination)
	return paginate(filtered, page, size)
}

// ListRecords evaluates an ad-hoc view without touching the stored view state.
func (s *RecycleBinService) ListRecords(filter model.RecordFilter, sortCfg model.SortConfig, pagination model.Pagination) ([]model.RecycledRecord, model.Meta, error) {
	cfg, err := normalizeSort(sortCfg)
	if err != nil {
		return nil, model.Meta{}, err
	}

	var filtered []model.RecycledRecord
	s.store.Read(func(state *model.RecycleBinState) {
		filtered = sortRecords(filterRecords(state.Records, filter), cfg)
	})

	page, size := normalizeRecyclePage(pagination)
	items, meta := paginate(filtered, page, size)
	return items, meta, nil
}

func (s *RecycleBinService) Stats() model.RecycleBinStats {
	stats := model.RecycleBinStats{
		ByModule:          map[string]int{},
		ByRetentionStatus: map[string]int{},
		ByStorage:         map[string]int{},
	}

	s.store.Read(func(state *model.RecycleBinState) {
		stats.AuditEntries = len(state.AuditLog)
		for _, record := range state.Records {
			if record.Restored() {
				stats.Restored++
				continue
			}

			stats.Total++
			stats.ByModule[record.Module]++
			if record.RetentionStatus != "" {
				stats.ByRetentionStatus[record.RetentionStatus]++
			}
			if record.CurrentStorage != "" {
				stats.ByStorage[record.CurrentStorage]++
			}
			if record.IsProtected {
				stats.Protected++
			}
			if record.OnHold {
				stats.OnHold++
			}
			if record.RetentionStatus == model.RetentionEligibleForPurge {
				stats.EligibleForPurge++
			}
			stats.TotalSize += record.Size
		}
	})

	return stats
}

// AuditLog returns matching entries newest first, paginated.
func (s *RecycleBinService) AuditLog(query model.AuditLogQuery) ([]model.AuditLogEntry, model.Meta) {
	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(s.AuditEntries(query), page, limit)
}

// AuditEntries returns every matching entry newest first, ignoring paging.
func (s *RecycleBinService) AuditEntries(query model.AuditLogQuery) []model.AuditLogEntry {
	action := strings.ToLower(strings.TrimSpace(query.Action))
	user := normalizeSearch(query.UserName)
	recordID := strings.TrimSpace(query.RecordID)

	items := make([]model.AuditLogEntry, 0)
	s.store.Read(func(state *model.RecycleBinState) {
		for _, entry := range state.AuditLog {
			if action != "" && strings.ToLower(entry.Action) != action {
				continue
			}
			if user != "" && strings.ToLower(entry.UserName) != user {
				continue
			}
			if recordID != "" && entry.RecordID != recordID {
				continue
			}
			if query.From != nil && entry.Timestamp.Before(*query.From) {
				continue
			}
			if query.To != nil && entry.Timestamp.After(*query.To) {
				continue
			}
			items = append(items, entry)
		}
	})

	// The log is append-only, so reversing gives newest first with stable ties.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i int, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	return items
}

func (s *RecycleBinService) Policy() model.RetentionPolicy {
	var policy model.RetentionPolicy
	s.store.Read(func(state *model.RecycleBinState) {
		policy = state.Policy
	})
	return policy
}

// UpdatePolicy replaces the retention policy and re-evaluates every record against it.
func (s *RecycleBinService) UpdatePolicy(ctx context.Context, actor model.Actor, policy model.RetentionPolicy) (model.RetentionPolicy, error) {
	if policy.RetentionDays < 1 {
		return model.RetentionPolicy{}, fmt.Errorf("%w: retentionDays must be at least 1", model.ErrInvalidInput)
	}
	if policy.ArchiveAfterDays < 0 {
		return model.RetentionPolicy{}, fmt.Errorf("%w: archiveAfterDays cannot be negative", model.ErrInvalidInput)
	}

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		previous := state.Policy
		state.Policy = policy

		now := s.now()
		refreshRetention(state, now)
		appendAudit(state, model.AuditLogEntry{
			Action:    model.AuditPolicyChange,
			UserName:  actor.Name(),
			Timestamp: now,
			Details: fmt.Sprintf("Retention policy changed: retention %dd -> %dd, archive after %dd -> %dd, auto purge %t -> %t",
				previous.RetentionDays, policy.RetentionDays,
				previous.ArchiveAfterDays, policy.ArchiveAfterDays,
				previous.AutoPurge, policy.AutoPurge),
		})
		return nil
	})
	if err != nil {
		return model.RetentionPolicy{}, err
	}

	s.afterMutation(model.AuditPolicyChange, event.TypeRetentionPolicy, policy, actor)
	return policy, nil
}

// RefreshRetention recomputes days left and retention status as of now.
// It returns the number of records whose status or days left changed.
func (s *RecycleBinService) RefreshRetention(ctx context.Context, now time.Time) (int, error) {
	changed := 0
	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		changed = refreshRetention(state, now)
		return nil
	})
	return changed, err
}

// PurgeEligible permanently deletes every record whose retention has run out
// and that is neither protected nor on hold.
func (s *RecycleBinService) PurgeEligible(ctx context.Context, actor model.Actor) (model.BulkResult, error) {
	result := model.BulkResult{Action: model.AuditDelete, RecordIDs: []string{}}

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		drop := map[string]struct{}{}
		for _, record := range state.Records {
			if record.Restored() || record.IsProtected || record.OnHold {
				continue
			}
			if record.RetentionStatus != model.RetentionEligibleForPurge {
				continue
			}
			drop[record.ID] = struct{}{}
			result.RecordIDs = append(result.RecordIDs, record.ID)
		}
		if len(drop) == 0 {
			return nil
		}

		removeRecords(state, drop)
		result.AffectedRecordCount = len(drop)
		appendAudit(state, model.AuditLogEntry{
			Action:              model.AuditDelete,
			UserName:            actor.Name(),
			Timestamp:           s.now(),
			AffectedRecordCount: len(drop),
			Details:             fmt.Sprintf("Purged %d records past retention", len(drop)),
		})
		return nil
	})
	if err != nil {
		return model.BulkResult{}, err
	}

	if result.AffectedRecordCount > 0 {
		s.afterMutation("purge", event.TypeRecordDeleted, result, actor)
	}
	return result, nil
}

// AutoArchive moves records older than the policy's archiveAfterDays to archived
// storage. A zero archiveAfterDays disables it.
func (s *RecycleBinService) AutoArchive(ctx context.Context, now time.Time) (model.BulkResult, error) {
	result := model.BulkResult{Action: model.AuditArchive, RecordIDs: []string{}}

	err := s.store.Mutate(ctx, func(state *model.RecycleBinState) error {
		days := state.Policy.ArchiveAfterDays
		if days <= 0 {
			return nil
		}

		for i := range state.Records {
			record := &state.Records[i]
			if record.Restored() || record.CurrentStorage == model.StorageArchived {
				continue
			}
			if now.Sub(record.DeletedAt) < time.Duration(days)*24*time.Hour {
				continue
			}
			applyArchive(record, systemActor, autoArchiveTarget, now)
			result.RecordIDs = append(result.RecordIDs, record.ID)
		}
		if len(result.RecordIDs) == 0 {
			return nil
		}

		result.AffectedRecordCount = len(result.RecordIDs)
		appendAudit(state, model.AuditLogEntry{
			Action:              model.AuditArchive,
			UserName:            systemActor.Name(),
			Timestamp:           now,
			AffectedRecordCount: result.AffectedRecordCount,
			Details:             fmt.Sprintf("Archived %d records older than %d days", result.AffectedRecordCount, days),
		})
		return nil
	})
	if err != nil {
		return model.BulkResult{}, err
	}

	if result.AffectedRecordCount > 0 {
		s.afterMutation("auto_archive", event.TypeRecordArchived, result, systemActor)
	}
	return result, nil
}

// Sweep runs the periodic retention maintenance: refresh, auto-archive and,
// when the policy allows it, purge.
func (s *RecycleBinService) Sweep(ctx context.Context) error {
	now := s.now()

	if _, err := s.RefreshRetention(ctx, now); err != nil {
		return err
	}
	if _, err := s.AutoArchive(ctx, now); err != nil {
		return err
	}
	if s.Policy().AutoPurge {
		if _, err := s.PurgeEligible(ctx, systemActor); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecycleBinService) afterMutation(action string, eventType event.Type, payload any, actor model.Actor) {
	metrics.ObserveMutation(recycleBinModule, action)
	event.Emit(s.bus, eventType, payload, actor.UserID)
}

func findRecord(state *model.RecycleBinState, id string) (int, error) {
	for i, record := range state.Records {
		if record.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", model.ErrRecordNotFound, id)
}

func checkProtection(record model.RecycledRecord, op string) error {
	if record.IsProtected {
		return &model.ProtectedRecordError{RecordID: record.ID, Op: op, Reason: "record is protected"}
	}
	if record.OnHold {
		return &model.ProtectedRecordError{RecordID: record.ID, Op: op, Reason: "record is under legal hold"}
	}
	return nil
}

func checkRestorable(record model.RecycledRecord) error {
	if err := checkProtection(record, model.AuditRestore); err != nil {
		return err
	}
	if record.Restored() {
		return fmt.Errorf("%w: %s", model.ErrAlreadyRestored, record.ID)
	}
	return nil
}

func checkArchivable(record model.RecycledRecord) error {
	if record.Restored() {
		return fmt.Errorf("%w: %s", model.ErrAlreadyRestored, record.ID)
	}
	if record.CurrentStorage == model.StorageArchived {
		return fmt.Errorf("%w: %s", model.ErrAlreadyArchived, record.ID)
	}
	return nil
}

func checkDeletable(record model.RecycledRecord) error {
	return checkProtection(record, model.AuditDelete)
}

func applyRestore(record *model.RecycledRecord, actor model.Actor, now time.Time) {
	record.RetentionStatus = ""
	record.RetentionStatusDaysLeft = 0
	record.CurrentStorage = ""
	record.ArchivedAt = nil
	record.ArchivedBy = ""
	record.ArchiveTarget = ""
	record.RestoredAt = &now
	record.RestoredBy = actor.Name()
}

func applyArchive(record *model.RecycledRecord, actor model.Actor, target string, now time.Time) {
	record.CurrentStorage = model.StorageArchived
	record.ArchivedAt = &now
	record.ArchivedBy = actor.Name()
	record.ArchiveTarget = target
}

func removeRecords(state *model.RecycleBinState, drop map[string]struct{}) {
	kept := state.Records[:0]
	for _, record := range state.Records {
		if _, gone := drop[record.ID]; !gone {
			kept = append(kept, record)
		}
	}
	state.Records = kept

	selected := make([]string, 0, len(state.SelectedRecordIDs))
	for _, id := range state.SelectedRecordIDs {
		if _, gone := drop[id]; !gone {
			selected = append(selected, id)
		}
	}
	state.SelectedRecordIDs = selected
}

func appendAudit(state *model.RecycleBinState, entry model.AuditLogEntry) {
	entry.ID = uuid.NewString()
	state.AuditLog = append(state.AuditLog, entry)
}

// refreshRetention re-derives retention fields from deletedAt and the policy.
func refreshRetention(state *model.RecycleBinState, now time.Time) int {
	retentionDays := state.Policy.RetentionDays
	if retentionDays <= 0 {
		return 0
	}

	changed := 0
	for i := range state.Records {
		record := &state.Records[i]
		if record.Restored() {
			continue
		}

		status := record.RetentionStatus
		daysLeft := record.RetentionStatusDaysLeft

		if record.IsProtected {
			status = model.RetentionProtected
		} else {
			elapsed := int(now.Sub(record.DeletedAt).Hours() / 24)
			daysLeft = retentionDays - elapsed
			if daysLeft < 0 {
				daysLeft = 0
			}

			switch {
			case daysLeft == 0:
				status = model.RetentionEligibleForPurge
			case status == model.RetentionEligibleForPurge || status == model.RetentionProtected || status == "":
				status = model.RetentionActive
			}
		}

		if status != record.RetentionStatus || daysLeft != record.RetentionStatusDaysLeft {
			record.RetentionStatus = status
			record.RetentionStatusDaysLeft = daysLeft
			changed++
		}
	}

	return changed
}

func filterRecords(records []model.RecycledRecord, filter model.RecordFilter) []model.RecycledRecord {
	search := normalizeSearch(filter.Search)

	out := make([]model.RecycledRecord, 0, len(records))
	for _, record := range records {
		if record.Restored() && !filter.IncludeRestored {
			continue
		}
		if filter.Module != "" && !strings.EqualFold(record.Module, filter.Module) {
			continue
		}
		if filter.RetentionStatus != "" && record.RetentionStatus != filter.RetentionStatus {
			continue
		}
		if filter.Storage != "" && record.CurrentStorage != filter.Storage {
			continue
		}
		if filter.OnHold != nil && record.OnHold != *filter.OnHold {
			continue
		}
		if filter.DeletedFrom != nil && record.DeletedAt.Before(*filter.DeletedFrom) {
			continue
		}
		if filter.DeletedTo != nil && record.DeletedAt.After(*filter.DeletedTo) {
			continue
		}
		if search != "" &&
			!containsFold(record.Title, search) &&
			!containsFold(record.RecordID, search) &&
			!containsFold(record.DeletedBy, search) &&
			!containsFold(record.DeletionReason, search) {
			continue
		}
		out = append(out, record)
	}

	return out
}

// sortRecords sorts in place with a stable sort so ties keep their original order.
func sortRecords(records []model.RecycledRecord, cfg model.SortConfig) []model.RecycledRecord {
	desc := cfg.Order == model.SortDesc

	var less func(a, b model.RecycledRecord) int
	switch cfg.Field {
	case model.SortByTitle:
		less = func(a, b model.RecycledRecord) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case model.SortByModule:
		less = func(a, b model.RecycledRecord) int {
			return strings.Compare(a.Module, b.Module)
		}
	default:
		less = func(a, b model.RecycledRecord) int {
			return a.DeletedAt.Compare(b.DeletedAt)
		}
	}

	sort.SliceStable(records, func(i int, j int) bool {
		cmp := less(records[i], records[j])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	return records
}

func normalizeSort(cfg model.SortConfig) (model.SortConfig, error) {
	if cfg.Field == "" {
		cfg.Field = model.SortByDeletedAt
	}
	if cfg.Order == "" {
		cfg.Order = model.SortDesc
	}

	switch cfg.Field {
	case model.SortByDeletedAt, model.SortByTitle, model.SortByModule:
	default:
		return model.SortConfig{}, fmt.Errorf("%w: unsupported sort field %q", model.ErrInvalidInput, cfg.Field)
	}

	cfg.Order = strings.ToLower(cfg.Order)
	if cfg.Order != model.SortAsc && cfg.Order != model.SortDesc {
		return model.SortConfig{}, fmt.Errorf("%w: unsupported sort order %q", model.ErrInvalidInput, cfg.Order)
	}

	return cfg, nil
}

func normalizeRecyclePage(p model.Pagination) (int, int) {
	page, size := p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultRecyclePageSize
	}
	if size > maxRecyclePageSize {
		size = maxRecyclePageSize
	}
	return page, size
}

func archiveTargetOrDefault(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return "cold-storage"
	}
	return target
}

func locationOf(record model.RecycledRecord) string {
	if record.OriginalLocation == "" {
		return record.Module
	}
	return record.OriginalLocation
}

func withNote(details string, note string) string {
	note = util.CleanText(note, util.MaxNoteLength)
	if note == "" {
		return details
	}
	return details + ": " + note
}

func bulkEventType(action string) event.Type {
	switch action {
	case model.AuditRestore:
		return event.TypeRecordRestored
	case model.AuditArchive:
		return event.TypeRecordArchived
	default:
		return event.TypeRecordDeleted
	}
}
