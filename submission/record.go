package submission

import "time"

// State is one node of the submission state machine.
type State string

const (
	StateNotSubmitted       State = "NotSubmitted"
	StateSubmitting         State = "Submitting"
	StateAwaitingStatus     State = "AwaitingStatus"
	StatePatchingAttributes State = "PatchingAttributes"
	StateSucceeded          State = "Succeeded"
	StateFailed             State = "Failed"
	StateRetryExhausted     State = "RetryExhausted"
)

// Terminal reports whether the state ends the record's lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateRetryExhausted:
		return true
	}
	return false
}

// Record tracks one product through the submit/poll/patch loop. All
// transitions on one record are strictly sequential; the engine guarantees a
// single in-flight attempt per product key.
type Record struct {
	ProductKey string
	State      State

	// CategoryID is resolved once and cached for the record's lifetime, so
	// every retry attempt targets the same category.
	CategoryID int
	BrandID    int

	BatchID      string
	AttemptCount int

	// LastMissing holds the attribute names the remote most recently
	// reported missing, accumulated across attempts.
	LastMissing []string

	// TerminalReason explains Failed and RetryExhausted outcomes.
	TerminalReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord starts a record in NotSubmitted.
func NewRecord(productKey string) *Record {
	now := time.Now()
	return &Record{
		ProductKey: productKey,
		State:      StateNotSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *Record) transition(next State) {
	r.State = next
	r.UpdatedAt = time.Now()
}

func (r *Record) fail(reason string) {
	r.TerminalReason = reason
	r.transition(StateFailed)
}

func (r *Record) exhaust(reason string) {
	r.TerminalReason = reason
	r.transition(StateRetryExhausted)
}
