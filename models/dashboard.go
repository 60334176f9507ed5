package models

type DashboardStats struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalPrizes     float64 `json:"total_prizes"`
	Net             float64 `json:"net"`
	PendingPayments int     `json:"pending_payments"`
	PendingRecords  int     `json:"pending_records"`
	PlayersTotal    int     `json:"players_total"`
}

// TournamentRevenue is the expected gate for a tournament:
// entry fee times the number of registered participants.
type TournamentRevenue struct {
	TournamentID int     `json:"tournament_id"`
	Name         string  `json:"name"`
	EntryFee     float64 `json:"entry_fee"`
	Participants int     `json:"participants"`
	Revenue      float64 `json:"revenue"`
}
