package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"value"`
}

// Summary holds totals over the full transaction set.
type Summary struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"balance"`
}

// DayBucket is one calendar day of the daily expense breakdown.
type DayBucket struct {
	Date       Date             `json:"date"`
	Label      string           `json:"day"`
	Total      Money            `json:"total"`
	ByCategory map[string]Money `json:"byCategory"`
}

// DailyBreakdown is the fixed seven-day window, oldest day first. Keys lists
// only categories with at least one expense in the window.
type DailyBreakdown struct {
	Days []DayBucket `json:"data"`
	Keys []string    `json:"keys"`
}

// Period selects the window of a category distribution.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) Valid() bool {
	return p == PeriodWeek || p == PeriodMonth
}
