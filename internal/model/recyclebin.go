package model

import "time"

// Retention status values for a soft-deleted record.
const (
	RetentionActive           = "active"
	RetentionEligibleForPurge = "eligible_for_purge"
	RetentionProtected        = "protected"
	RetentionArchived         = "archived"
)

// Storage tiers a recycled record can live in.
const (
	StorageActive   = "active"
	StorageArchived = "archived"
)

// Audit actions recorded by the recycle bin.
const (
	AuditRestore      = "restore"
	AuditArchive      = "archive"
	AuditDelete       = "delete"
	AuditPolicyChange = "policy_change"
	AuditHoldPlaced   = "hold_placed"
	AuditHoldRemoved  = "hold_removed"
)

// Sort fields and orders accepted by the recycle bin view.
const (
	SortByDeletedAt = "deletedAt"
	SortByTitle     = "title"
	SortByModule    = "module"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// RecycledRecord is a soft-deleted business object from any module, kept with
// enough metadata to restore, archive or purge it.
type RecycledRecord struct {
	ID                      string         `json:"id"`
	RecordID                string         `json:"recordId"`
	Module                  string         `json:"module"`
	Title                   string         `json:"title"`
	DeletedBy               string         `json:"deletedBy"`
	DeletedAt               time.Time      `json:"deletedAt"`
	DeletionReason          string         `json:"deletionReason,omitempty"`
	OriginalLocation        string         `json:"originalLocation,omitempty"`
	RetentionStatus         string         `json:"retentionStatus,omitempty"`
	RetentionStatusDaysLeft int            `json:"retentionStatusDaysLeft"`
	CurrentStorage          string         `json:"currentStorage,omitempty"`
	Size                    int64          `json:"size"`
	IsProtected             bool           `json:"isProtected"`
	OnHold                  bool           `json:"onHold"`
	HoldReason              string         `json:"holdReason,omitempty"`
	HeldBy                  string         `json:"heldBy,omitempty"`
	HeldAt                  *time.Time     `json:"heldAt,omitempty"`
	AuditNotes              string         `json:"auditNotes,omitempty"`
	ArchivedAt              *time.Time     `json:"archivedAt,omitempty"`
	ArchivedBy              string         `json:"archivedBy,omitempty"`
	ArchiveTarget           string         `json:"archiveTarget,omitempty"`
	RestoredAt              *time.Time     `json:"restoredAt,omitempty"`
	RestoredBy              string         `json:"restoredBy,omitempty"`
	Data                    map[string]any `json:"data,omitempty"`
}

// Restored reports whether the record has already been handed back to its module.
func (r RecycledRecord) Restored() bool {
	return r.RestoredAt != nil
}

// AuditLogEntry is one append-only line of the recycle bin audit trail.
type AuditLogEntry struct {
	ID                  string    `json:"id"`
	Action              string    `json:"action"`
	UserName            string    `json:"userName"`
	Timestamp           time.Time `json:"timestamp"`
	RecordID            string    `json:"recordId,omitempty"`
	RecordModule        string    `json:"recordModule,omitempty"`
	AffectedRecordCount int       `json:"affectedRecordCount,omitempty"`
	Details             string    `json:"details"`
}

type RecordFilter struct {
	Module          string     `json:"module,omitempty"`
	RetentionStatus string     `json:"retentionStatus,omitempty"`
	Storage         string     `json:"storage,omitempty"`
	OnHold          *bool      `json:"onHold,omitempty"`
	DeletedFrom     *time.Time `json:"deletedFrom,omitempty"`
	DeletedTo       *time.Time `json:"deletedTo,omitempty"`
	Search          string     `json:"search,omitempty"`
	IncludeRestored bool       `json:"includeRestored,omitempty"`
}

type SortConfig struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type RetentionPolicy struct {
	RetentionDays    int  `json:"retentionDays"`
	ArchiveAfterDays int  `json:"archiveAfterDays"`
	AutoPurge        bool `json:"autoPurge"`
}

// RecycleBinState is the complete persisted state of the recycle bin store.
type RecycleBinState struct {
	Records           []RecycledRecord `json:"records"`
	AuditLog          []AuditLogEntry  `json:"auditLog"`
	Filter            RecordFilter     `json:"filter"`
	Sort              SortConfig       `json:"sort"`
	Pagination        Pagination       `json:"pagination"`
	SelectedRecordIDs []string         `json:"selectedRecordIds"`
	Policy            RetentionPolicy  `json:"policy"`
}

type RecycleBinStats struct {
	Total             int            `json:"total"`
	Restored          int            `json:"restored"`
	ByModule          map[string]int `json:"byModule"`
	ByRetentionStatus map[string]int `json:"byRetentionStatus"`
	ByStorage         map[string]int `json:"byStorage"`
	Protected         int            `json:"protected"`
	OnHold            int            `json:"onHold"`
	EligibleForPurge  int            `json:"eligibleForPurge"`
	TotalSize         int64          `json:"totalSize"`
	AuditEntries      int            `json:"auditEntries"`
}

type AuditLogQuery struct {
	Action   string
	UserName string
	RecordID string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// BulkResult summarises a successful bulk action.
type BulkResult struct {
	Action              string   `json:"action"`
	RecordIDs           []string `json:"recordIds"`
	AffectedRecordCount int      `json:"affectedRecordCount"`
}
