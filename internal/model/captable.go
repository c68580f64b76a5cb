package model

import "time"

type Shareholder struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Email            string    `json:"email,omitempty"`
	EquityClass      string    `json:"equityClass"`
	SharesHeld       int64     `json:"sharesHeld"`
	InvestmentAmount float64   `json:"investmentAmount"`
	InvestmentDate   time.Time `json:"investmentDate"`
}

// ShareholderView is a shareholder with its ownership derived at read time.
type ShareholderView struct {
	Shareholder
	OwnershipPercentage float64 `json:"ownershipPercentage"`
}

type EquityClass struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Type                  string  `json:"type"`
	AuthorizedShares      int64   `json:"authorizedShares"`
	ParValue              float64 `json:"parValue"`
	LiquidationPreference float64 `json:"liquidationPreference"`
	VotingRights          bool    `json:"votingRights"`
}

type EquityClassBreakdown struct {
	ClassID           string  `json:"classId"`
	Name              string  `json:"name"`
	AuthorizedShares  int64   `json:"authorizedShares"`
	IssuedShares      int64   `json:"issuedShares"`
	AvailableShares   int64   `json:"availableShares"`
	PercentageOfTotal float64 `json:"percentageOfTotal"`
	Holders           int     `json:"holders"`
}

type CapTableSummary struct {
	TotalSharesOutstanding int64   `json:"totalSharesOutstanding"`
	TotalAuthorizedShares  int64   `json:"totalAuthorizedShares"`
	Shareholders           int     `json:"shareholders"`
	EquityClasses          int     `json:"equityClasses"`
	TotalInvested          float64 `json:"totalInvested"`
}

type CapTableState struct {
	Shareholders  []Shareholder   `json:"shareholders"`
	EquityClasses []EquityClass   `json:"equityClasses"`
	Activity      []ActivityEntry `json:"activity"`
}
