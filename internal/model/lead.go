package model

import "time"

const (
	LeadNew       = "New"
	LeadContacted = "Contacted"
	LeadQualified = "Qualified"
	LeadProposal  = "Proposal"
	LeadWon       = "Won"
	LeadLost      = "Lost"
)

type Lead struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Company        string    `json:"company,omitempty"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Source         string    `json:"source,omitempty"`
	Status         string    `json:"status"`
	EstimatedValue float64   `json:"estimatedValue"`
	AssignedTo     string    `json:"assignedTo,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type LeadStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"byStatus"`
	BySource       map[string]int `json:"bySource"`
	PipelineValue  float64        `json:"pipelineValue"`
	WonValue       float64        `json:"wonValue"`
	ConversionRate float64        `json:"conversionRate"`
}

type LeadsState struct {
	Leads    []Lead          `json:"leads"`
	Activity []ActivityEntry `json:"activity"`
}
