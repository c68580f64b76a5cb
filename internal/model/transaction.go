package model

import "time"

const (
	TransactionDraft    = "Draft"
	TransactionApproved = "Approved"
	TransactionRejected = "Rejected"
	TransactionExecuted = "Executed"
)

type TransactionAudit struct {
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

type Transaction struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"`
	FromShareholder string             `json:"fromShareholder,omitempty"`
	ToShareholder   string             `json:"toShareholder,omitempty"`
	EquityClass     string             `json:"equityClass"`
	Quantity        int64              `json:"quantity"`
	UnitPrice       float64            `json:"unitPrice"`
	TotalAmount     float64            `json:"totalAmount"`
	Status          string             `json:"status"`
	CreatedDate     time.Time          `json:"createdDate"`
	CreatedBy       string             `json:"createdBy,omitempty"`
	ApprovedBy      string             `json:"approvedBy,omitempty"`
	ApprovedDate    *time.Time         `json:"approvedDate,omitempty"`
	RejectedBy      string             `json:"rejectedBy,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
	ExecutedDate    *time.Time         `json:"executedDate,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	AuditTrail      []TransactionAudit `json:"auditTrail"`
}

type NewTransaction struct {
	Type            string  `json:"type"`
	FromShareholder string  `json:"fromShareholder"`
	ToShareholder   string  `json:"toShareholder"`
	EquityClass     string  `json:"equityClass"`
	Quantity        int64   `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	Notes           string  `json:"notes"`
}

// TransactionPatch is a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Type            *string  `json:"type,omitempty"`
	FromShareholder *string  `json:"fromShareholder,omitempty"`
	ToShareholder   *string  `json:"toShareholder,omitempty"`
	EquityClass     *string  `json:"equityClass,omitempty"`
	Quantity        *int64   `json:"quantity,omitempty"`
	UnitPrice       *float64 `json:"unitPrice,omitempty"`
	TotalAmount     *float64 `json:"totalAmount,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

type TransactionsState struct {
	Transactions []Transaction `json:"transactions"`
}
