// Package export renders module data as CSV downloads.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"hotel-pms/internal/model"
)

type auditRow struct {
	ID                  string `csv:"id"`
	Timestamp           string `csv:"timestamp"`
	Action              string `csv:"action"`
	UserName            string `csv:"userName"`
	RecordID            string `csv:"recordId"`
	RecordModule        string `csv:"recordModule"`
	AffectedRecordCount string `csv:"affectedRecordCount"`
	Details             string `csv:"details"`
}

type transactionRow struct {
	ID              string `csv:"id"`
	Type            string `csv:"type"`
	Status          string `csv:"status"`
	FromShareholder string `csv:"fromShareholder"`
	ToShareholder   string `csv:"toShareholder"`
	EquityClass     string `csv:"equityClass"`
	Quantity        string `csv:"quantity"`
	UnitPrice       string `csv:"unitPrice"`
	TotalAmount     string `csv:"totalAmount"`
	CreatedDate     string `csv:"createdDate"`
	ApprovedBy      string `csv:"approvedBy"`
	ExecutedDate    string `csv:"executedDate"`
	Notes           string `csv:"notes"`
}

type userRow struct {
	ID         string `csv:"id"`
	Username   string `csv:"username"`
	FullName   string `csv:"fullName"`
	Email      string `csv:"email"`
	Department string `csv:"department"`
	Role       string `csv:"role"`
	Active     string `csv:"active"`
	CreatedAt  string `csv:"createdAt"`
}

type leadRow struct {
	ID             string `csv:"id"`
	Name           string `csv:"name"`
	Company        string `csv:"company"`
	Email          string `csv:"email"`
	Phone          string `csv:"phone"`
	Source         string `csv:"source"`
	Status         string `csv:"status"`
	EstimatedValue string `csv:"estimatedValue"`
	AssignedTo     string `csv:"assignedTo"`
	CreatedAt      string `csv:"createdAt"`
}

func AuditLog(w io.Writer, entries []model.AuditLogEntry) error {
	rows := make([]*auditRow, 0, len(entries))
	for _, entry := range entries {
		count := ""
		if entry.AffectedRecordCount > 0 {
			count = strconv.Itoa(entry.AffectedRecordCount)
		}
		rows = append(rows, &auditRow{
			ID:                  entry.ID,
			Timestamp:           formatTime(entry.Timestamp),
			Action:              entry.Action,
			UserName:            entry.UserName,
			RecordID:            entry.RecordID,
			RecordModule:        entry.RecordModule,
			AffectedRecordCount: count,
			Details:             entry.Details,
		})
	}
	return write(w, rows, "audit log")
}

func Transactions(w io.Writer, transactions []model.Transaction) error {
	rows := make([]*transactionRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, &transactionRow{
			ID:              tx.ID,
			Type:            tx.Type,
			Status:          tx.Status,
			FromShareholder: tx.FromShareholder,
			ToShareholder:   tx.ToShareholder,
			EquityClass:     tx.EquityClass,
			Quantity:        strconv.FormatInt(tx.Quantity, 10),
			UnitPrice:       formatMoney(tx.UnitPrice),
			TotalAmount:     formatMoney(tx.TotalAmount),
			CreatedDate:     formatTime(tx.CreatedDate),
			ApprovedBy:      tx.ApprovedBy,
			ExecutedDate:    formatOptionalTime(tx.ExecutedDate),
			Notes:           tx.Notes,
		})
	}
	return write(w, rows, "transactions")
}

// Users never includes password hashes.
func Users(w io.Writer, users []model.User) error {
	rows := make([]*userRow, 0, len(users))
	for _, user := range users {
		rows = append(rows, &userRow{
			ID:         user.ID,
			Username:   user.Username,
			FullName:   user.FullName,
			Email:      user.Email,
			Department: user.Department,
			Role:       user.Role,
			Active:     strconv.FormatBool(user.Active),
			CreatedAt:  formatTime(user.CreatedAt),
		})
	}
	return write(w, rows, "users")
}

func Leads(w io.Writer, leads []model.Lead) error {
	rows := make([]*leadRow, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, &leadRow{
			ID:             lead.ID,
			Name:           lead.Name,
			Company:        lead.Company,
			Email:          lead.Email,
			Phone:          lead.Phone,
			Source:         lead.Source,
			Status:         lead.Status,
			EstimatedValue: formatMoney(lead.EstimatedValue),
			AssignedTo:     lead.AssignedTo,
			CreatedAt:      formatTime(lead.CreatedAt),
		})
	}
	return write(w, rows, "leads")
}

func write[T any](w io.Writer, rows []*T, what string) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("export %s: %w", what, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
