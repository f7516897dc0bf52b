package services

import "errors"

// Error kinds returned by the voting engine. Callers branch on these with
// errors.Is; messages are for humans only.
var (
	// ErrNotFound means the proposal (or tenant) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotEligible means the voter is not in the proposal's snapshot.
	ErrNotEligible = errors.New("voter not eligible")
	// ErrAlreadyVoted means this voter already has a vote on record; votes
	// are write-once.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrEmptyElectorate means the deduplicated voter set was empty.
	ErrEmptyElectorate = errors.New("empty electorate")
	// ErrInvalidThreshold means a fixed threshold fell outside [1, snapshot_n].
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrTooManyActive means the tenant hit the active-proposal cap.
	ErrTooManyActive = errors.New("too many active proposals")
	// ErrInvalidChoice means the vote choice was not approve/reject/abstain.
	ErrInvalidChoice = errors.New("invalid vote choice")
	// ErrSideEffectFailed means the pass side effect reported failure and
	// the transition was rolled back.
	ErrSideEffectFailed = errors.New("side effect failed")
	// ErrInsufficientFunds means a treasury transfer would overdraw the
	// source account.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
