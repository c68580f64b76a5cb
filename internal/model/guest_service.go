package model

import "time"

const (
	RequestOpen       = "Open"
	RequestInProgress = "In Progress"
	RequestResolved   = "Resolved"
	RequestCancelled  = "Cancelled"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

type ServiceRequest struct {
	ID              string     `json:"id"`
	GuestName       string     `json:"guestName"`
	RoomNumber      string     `json:"roomNumber"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
}

type ServiceRequestStats struct {
	Total                 int            `json:"total"`
	ByStatus              map[string]int `json:"byStatus"`
	ByCategory            map[string]int `json:"byCategory"`
	OpenUrgent            int            `json:"openUrgent"`
	MeanResolutionMinutes float64        `json:"meanResolutionMinutes"`
}

type GuestServicesState struct {
	Requests []ServiceRequest `json:"requests"`
	Activity []ActivityEntry  `json:"activity"`
}
