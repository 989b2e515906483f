package domain

import "time"

// MaxDetailRetries bounds how many times a stub's detail fetch is
// reattempted across sync runs before it is left behind.
const MaxDetailRetries = 3

// Match is one stored match for an account. A row starts life as a stub
// (only the ID, HasDetails nil) created during ID collection; the detail
// fetch phase fills it in. HasDetails is tri-state: nil = never attempted,
// false = attempted and failed, true = details stored.
type Match struct {
	ID         int64 // upstream match ID
	AccountID  int64
	HasDetails *bool
	RetryCount int
	DetailJSON *string
	StartTime  *time.Time
	CreatedAt  time.Time
}

// MatchSummary is one row of an upstream player match-history page.
type MatchSummary struct {
	MatchID   int64
	StartTime time.Time
}

// MatchDetails is the raw upstream detail payload for one match.
type MatchDetails struct {
	MatchID   int64
	StartTime time.Time
	RawJSON   string
}
