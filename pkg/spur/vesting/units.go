package vesting

// Common vest interval lengths, in seconds. Months use a fixed 30 days
// so schedules stay deterministic.
const (
	IntervalDay   = 86400
	IntervalWeek  = 7 * IntervalDay
	IntervalMonth = 30 * IntervalDay
)
