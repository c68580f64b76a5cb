package model

import "time"

type Guest struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
	VIP          bool       `json:"vip"`
	LoyaltyTier  string     `json:"loyaltyTier,omitempty"`
	TotalStays   int        `json:"totalStays"`
	TotalSpent   float64    `json:"totalSpent"`
	LastStayDate *time.Time `json:"lastStayDate,omitempty"`
	Preferences  []string   `json:"preferences,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (g Guest) FullName() string {
	if g.LastName == "" {
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

type GuestStats struct {
	Total        int            `json:"total"`
	VIP          int            `json:"vip"`
	ByTier       map[string]int `json:"byTier"`
	TotalSpent   float64        `json:"totalSpent"`
	AverageSpend float64        `json:"averageSpend"`
}

type GuestsState struct {
	Guests   []Guest         `json:"guests"`
	Activity []ActivityEntry `json:"activity"`
}
