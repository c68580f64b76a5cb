package model

import "time"

const (
	SecurityStatusActive    = "Active"
	SecurityStatusExercised = "Exercised"
	SecurityStatusExpired   = "Expired"
	SecurityStatusCancelled = "Cancelled"
)

type Security struct {
	ID                string     `json:"id"`
	Type              string     `json:"type"`
	HolderName        string     `json:"holderName"`
	EquityClass       string     `json:"equityClass"`
	Quantity          int64      `json:"quantity"`
	ExercisedQuantity int64      `json:"exercisedQuantity"`
	ExercisePrice     float64    `json:"exercisePrice"`
	VestedPercentage  float64    `json:"vestedPercentage"`
	IssueDate         time.Time  `json:"issueDate"`
	ExpirationDate    *time.Time `json:"expirationDate,omitempty"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
}

// Exercisable is the vested quantity not yet exercised.
func (s Security) Exercisable() int64 {
	vested := int64(float64(s.Quantity) * s.VestedPercentage / 100)
	if vested > s.Quantity {
		vested = s.Quantity
	}
	remaining := vested - s.ExercisedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

type SecurityStats struct {
	Total               int            `json:"total"`
	ByType              map[string]int `json:"byType"`
	ByStatus            map[string]int `json:"byStatus"`
	OutstandingQuantity int64          `json:"outstandingQuantity"`
	ExercisedQuantity   int64          `json:"exercisedQuantity"`
	IntrinsicValue      float64        `json:"intrinsicValue"`
}

type SecuritiesState struct {
	Securities []Security      `json:"securities"`
	Activity   []ActivityEntry `json:"activity"`
}
