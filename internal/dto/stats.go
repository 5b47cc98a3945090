package dto

// StatsResponse is the dashboard aggregate.
type StatsResponse struct {
	TotalOrders  int64  `json:"total_orders"`
	Pending      int64  `json:"pending"`
	Preparing    int64  `json:"preparing"`
	Ready        int64  `json:"ready"`
	Delivered    int64  `json:"delivered"`
	Cancelled    int64  `json:"cancelled"`
	RevenueToday string `json:"revenue_today"`
	Date         string `json:"date"`
}
