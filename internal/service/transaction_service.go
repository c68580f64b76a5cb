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
	TransactionsStoreKey = "transactions-store"
	transactionsModule   = "transactions"
)

var transactionTypes = map[string]struct{}{
	"Issuance":     {},
	"Transfer":     {},
	"Repurchase":   {},
	"Conversion":   {},
	"Cancellation": {},
}

func DefaultTransactionsState() model.TransactionsState {
	return model.TransactionsState{Transactions: []model.Transaction{}}
}

// canTransition reports whether a transaction may move from one status to another.
func canTransition(from string, to string) bool {
	switch from {
	case model.TransactionDraft:
		return to == model.TransactionApproved || to == model.TransactionRejected
	case model.TransactionApproved:
		return to == model.TransactionExecuted
	default:
		return false
	}
}

type TransactionService struct {
	store *store.Store[model.TransactionsState]
	bus   event.Bus
	now   func() time.Time
}

func NewTransactionService(st *store.Store[model.TransactionsState], bus event.Bus) *TransactionService {
	return &TransactionService{store: st, bus: bus, now: utcNow}
}

func (s *TransactionService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *TransactionService) Seed(ctx context.Context, loader *demo.Loader) int {
	state := DefaultTransactionsState()
	state.Transactions = demo.LoadList[model.Transaction](ctx, loader, demo.TransactionsPath)
	for i := range state.Transactions {
		if state.Transactions[i].AuditTrail == nil {
			state.Transactions[i].AuditTrail = []model.TransactionAudit{}
		}
	}

	s.store.Replace(ctx, state)
	return len(state.Transactions)
}

// List returns matching transactions, newest first.
func (s *TransactionService) List(query model.ListQuery) ([]model.Transaction, model.Meta) {
	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(s.All(query), page, limit)
}

// All returns every matching transaction, newest first, ignoring paging.
func (s *TransactionService) All(query model.ListQuery) []model.Transaction {
	search := normalizeSearch(query.Search)

	filtered := make([]model.Transaction, 0)
	s.store.Read(func(state *model.TransactionsState) {
		for _, tx := range state.Transactions {
			if query.Status != "" && !strings.EqualFold(tx.Status, query.Status) {
				continue
			}
			if query.Type != "" && !strings.EqualFold(tx.Type, query.Type) {
				continue
			}
			if search != "" &&
				!containsFold(tx.FromShareholder, search) &&
				!containsFold(tx.ToShareholder, search) &&
				!containsFold(tx.Notes, search) &&
				!containsFold(tx.ID, search) {
				continue
			}
			filtered = append(filtered, cloneTransaction(tx))
		}
	})

	sort.SliceStable(filtered, func(i int, j int) bool {
		return filtered[i].CreatedDate.After(filtered[j].CreatedDate)
	})
	return filtered
}

func (s *TransactionService) Get(id string) (model.Transaction, error) {
	var found model.Transaction
	err := fmt.Errorf("%w: %s", model.ErrTransactionNotFound, id)

	s.store.Read(func(state *model.TransactionsState) {
		if idx := indexTransaction(state, id); idx >= 0 {
			found = cloneTransaction(state.Transactions[idx])
			err = nil
		}
	})
	return found, err
}

// Create records a Draft transaction. totalAmount is fixed here from quantity
// and unitPrice.
func (s *TransactionService) Create(ctx context.Context, actor model.Actor, input model.NewTransaction) (model.Transaction, error) {
	if err := validateNewTransaction(input); err != nil {
		observeRejection(transactionsModule, err)
		return model.Transaction{}, err
	}

	now := s.now()
	tx := model.Transaction{
		ID:              uuid.NewString(),
		Type:            input.Type,
		FromShareholder: strings.TrimSpace(input.FromShareholder),
		ToShareholder:   strings.TrimSpace(input.ToShareholder),
		EquityClass:     strings.TrimSpace(input.EquityClass),
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		TotalAmount:     float64(input.Quantity) * input.UnitPrice,
		Status:          model.TransactionDraft,
		CreatedDate:     now,
		CreatedBy:       actor.Name(),
		Notes:           input.Notes,
		AuditTrail: []model.TransactionAudit{
			{Action: "Created", User: actor.Name(), Timestamp: now},
		},
	}

	err := s.store.Mutate(ctx, func(state *model.TransactionsState) error {
		state.Transactions = append(state.Transactions, tx)
		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	s.afterMutation("created", tx, actor)
	return cloneTransaction(tx), nil
}

// Update applies a partial edit to a Draft transaction. totalAmount is only
// changed when the patch carries it; quantity and unitPrice edits leave it alone.
func (s *TransactionService) Update(ctx context.Context, actor model.Actor, id string, patch model.TransactionPatch) (model.Transaction, error) {
	return s.editDraft(ctx, actor, id, "Updated", func(tx *model.Transaction) error {
		if patch.Type != nil {
			if _, ok := transactionTypes[*patch.Type]; !ok {
				return fmt.Errorf("%w: unsupported transaction type %q", model.ErrInvalidInput, *patch.Type)
			}
			tx.Type = *patch.Type
		}
		if patch.FromShareholder != nil {
			tx.FromShareholder = strings.TrimSpace(*patch.FromShareholder)
		}
		if patch.ToShareholder != nil {
			tx.ToShareholder = strings.TrimSpace(*patch.ToShareholder)
		}
		if patch.EquityClass != nil {
			tx.EquityClass = strings.TrimSpace(*patch.EquityClass)
		}
		if patch.Quantity != nil {
			if *patch.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be positive", model.ErrInvalidInput)
			}
			tx.Quantity = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			if *patch.UnitPrice < 0 {
				return fmt.Errorf("%w: unitPrice cannot be negative", model.ErrInvalidInput)
			}
			tx.UnitPrice = *patch.UnitPrice
		}
		if patch.TotalAmount != nil {
			if *patch.TotalAmount < 0 {
				return fmt.Errorf("%w: totalAmount cannot be negative", model.ErrInvalidInput)
			}
			tx.TotalAmount = *patch.TotalAmount
		}
		if patch.Notes != nil {
			tx.Notes = *patch.Notes
		}
		return nil
	})
}

// Revise changes quantity and unit price of a Draft and recomputes totalAmount.
func (s *TransactionService) Revise(ctx context.Context, actor model.Actor, id string, quantity int64, unitPrice float64) (model.Transaction, error) {
	return s.editDraft(ctx, actor, id, "Revised", func(tx *model.Transaction) error {
		if quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", model.ErrInvalidInput)
		}
		if unitPrice < 0 {
			return fmt.Errorf("%w: unitPrice cannot be negative", model.ErrInvalidInput)
		}
		tx.Quantity = quantity
		tx.UnitPrice = unitPrice
		tx.TotalAmount = float64(quantity) * unitPrice
		return nil
	})
}

func (s *TransactionService) editDraft(ctx context.Context, actor model.Actor, id string, action string, edit func(tx *model.Transaction) error) (model.Transaction, error) {
	var updated model.Transaction

	err := s.store.Mutate(ctx, func(state *model.TransactionsState) error {
		idx := indexTransaction(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrTransactionNotFound, id)
		}

		tx := &state.Transactions[idx]
		if tx.Status != model.TransactionDraft {
			return &model.TransitionError{Entity: "transaction", ID: id, From: tx.Status, To: strings.ToLower(action)}
		}
		if err := edit(tx); err != nil {
			return err
		}

		tx.AuditTrail = append(tx.AuditTrail, model.TransactionAudit{Action: action, User: actor.Name(), Timestamp: s.now()})
		updated = cloneTransaction(*tx)
		return nil
	})
	if err != nil {
		observeRejection(transactionsModule, err)
		return model.Transaction{}, err
	}

	s.afterMutation(strings.ToLower(action), updated, actor)
	return updated, nil
}

// Approve moves a Draft to Approved. approver defaults to the acting user.
func (s *TransactionService) Approve(ctx context.Context, actor model.Actor, id string, approver string) (model.Transaction, error) {
	approver = strings.TrimSpace(approver)
	if approver == "" {
		approver = actor.Name()
	}

	return s.transition(ctx, actor, id, model.TransactionApproved, func(tx *model.Transaction, now time.Time) model.TransactionAudit {
		tx.ApprovedBy = approver
		tx.ApprovedDate = &now
		return model.TransactionAudit{Action: "Approved", User: approver, Timestamp: now}
	})
}

func (s *TransactionService) Reject(ctx context.Context, actor model.Actor, id string, reason string) (model.Transaction, error) {
	reason = util.CleanText(reason, util.MaxNoteLength)
	if reason == "" {
		return model.Transaction{}, fmt.Errorf("%w: rejection reason is required", model.ErrInvalidInput)
	}

	return s.transition(ctx, actor, id, model.TransactionRejected, func(tx *model.Transaction, now time.Time) model.TransactionAudit {
		tx.RejectedBy = actor.Name()
		tx.RejectionReason = reason
		return model.TransactionAudit{Action: "Rejected", User: actor.Name(), Timestamp: now, Notes: reason}
	})
}

func (s *TransactionService) Execute(ctx context.Context, actor model.Actor, id string) (model.Transaction, error) {
	return s.transition(ctx, actor, id, model.TransactionExecuted, func(tx *model.Transaction, now time.Time) model.TransactionAudit {
		tx.ExecutedDate = &now
		return model.TransactionAudit{Action: "Executed", User: actor.Name(), Timestamp: now}
	})
}

func (s *TransactionService) transition(ctx context.Context, actor model.Actor, id string, to string, apply func(tx *model.Transaction, now time.Time) model.TransactionAudit) (model.Transaction, error) {
	var updated model.Transaction

	err := s.store.Mutate(ctx, func(state *model.TransactionsState) error {
		idx := indexTransaction(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrTransactionNotFound, id)
		}

		tx := &state.Transactions[idx]
		if !canTransition(tx.Status, to) {
			return &model.TransitionError{Entity: "transaction", ID: id, From: tx.Status, To: to}
		}

		entry := apply(tx, s.now())
		tx.Status = to
		tx.AuditTrail = append(tx.AuditTrail, entry)
		updated = cloneTransaction(*tx)
		return nil
	})
	if err != nil {
		observeRejection(transactionsModule, err)
		return model.Transaction{}, err
	}

	s.afterMutation(strings.ToLower(to), updated, actor)
	return updated, nil
}

// Delete removes a transaction that never took effect (Draft or Rejected).
func (s *TransactionService) Delete(ctx context.Context, actor model.Actor, id string) error {
	var removed model.Transaction

	err := s.store.Mutate(ctx, func(state *model.TransactionsState) error {
		idx := indexTransaction(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrTransactionNotFound, id)
		}

		tx := state.Transactions[idx]
		if tx.Status != model.TransactionDraft && tx.Status != model.TransactionRejected {
			return &model.TransitionError{Entity: "transaction", ID: id, From: tx.Status, To: "deleted"}
		}

		removed = tx
		state.Transactions = append(state.Transactions[:idx], state.Transactions[idx+1:]...)
		return nil
	})
	if err != nil {
		observeRejection(transactionsModule, err)
		return err
	}

	s.afterMutation("deleted", removed, actor)
	return nil
}

func (s *TransactionService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(transactionsModule, action)
	event.Emit(s.bus, event.TypeTransactionChanged, payload, actor.UserID)
}

func indexTransaction(state *model.TransactionsState, id string) int {
	for i, tx := range state.Transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func cloneTransaction(tx model.Transaction) model.Transaction {
	tx.AuditTrail = append([]model.TransactionAudit{}, tx.AuditTrail...)
	return tx
}

func validateNewTransaction(input model.NewTransaction) error {
	if _, ok := transactionTypes[input.Type]; !ok {
		return fmt.Errorf("%w: unsupported transaction type %q", model.ErrInvalidInput, input.Type)
	}
	if strings.TrimSpace(input.EquityClass) == "" {
		return fmt.Errorf("%w: equityClass is required", model.ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", model.ErrInvalidInput)
	}
	if input.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice cannot be negative", model.ErrInvalidInput)
	}

	from := strings.TrimSpace(input.FromShareholder)
	to := strings.TrimSpace(input.ToShareholder)
	switch input.Type {
	case "Transfer":
		if from == "" || to == "" {
			return fmt.Errorf("%w: a transfer needs both fromShareholder and toShareholder", model.ErrInvalidInput)
		}
		if from == to {
			return fmt.Errorf("%w: cannot transfer to the same shareholder", model.ErrInvalidInput)
		}
	case "Issuance":
		if to == "" {
			return fmt.Errorf("%w: an issuance needs toShareholder", model.ErrInvalidInput)
		}
	case "Repurchase", "Cancellation":
		if from == "" {
			return fmt.Errorf("%w: fromShareholder is required", model.ErrInvalidInput)
		}
	}

	return nil
}
