package domain

// StatsRecord is one account's cumulative farming tally. Both fields are
// monotonically non-decreasing.
type StatsRecord struct {
	Total int64
	Runs  int64
}
