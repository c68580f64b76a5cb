package model

import "time"

// ActivityEntry is an append-only change record kept by each business module store.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	EntityID  string    `json:"entityId,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// ListQuery carries the common search and paging parameters of list endpoints.
type ListQuery struct {
	Status     string
	Type       string
	AssignedTo string
	Search     string
	Sort       string
	Order      string
	Page       int
	Limit      int
}
