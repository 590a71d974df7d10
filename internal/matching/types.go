package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

type Kind string

const (
	KindInterested Kind = "interested"
	KindIgnored    Kind = "ignored"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInterested, KindIgnored:
		return Kind(s), nil
	}
	return "", ErrInvalidKind
}

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccepted, DecisionRejected:
		return Decision(s), nil
	}
	return "", ErrInvalidDecision
}

// Outcome describes what an action did to the pair.
type Outcome string

const (
	OutcomeRequested      Outcome = "requested"
	OutcomePassed         Outcome = "passed"
	OutcomeMatched        Outcome = "matched"
	OutcomeDeclined       Outcome = "declined"
	OutcomeAlreadyIgnored Outcome = "already-ignored"
	OutcomeSaved          Outcome = "saved"
	OutcomeRejected       Outcome = "rejected"
)

// Result is returned by the like actions. DayLikesCount and SpecialLikeCount
// are the actor's counters after the action.
type Result struct {
	Outcome          Outcome                   `json:"outcome"`
	Edge             *models.ConnectionRequest `json:"request"`
	DayLikesCount    int                       `json:"dayLikesCount"`
	SpecialLikeCount int                       `json:"specialLikeCount"`
}

const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	StateNone         = "none"
)

// StatusView is the state of a pair as seen by one of its users.
type StatusView struct {
	State            string     `json:"state"`
	Direction        string     `json:"direction,omitempty"`
	RequestID        *uuid.UUID `json:"requestId,omitempty"`
	Saved            bool       `json:"saved"`
	ReminderSent     bool       `json:"reminderSent"`
	ReminderReviewed bool       `json:"reminderReviewed"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Counters is a snapshot of a user's quota counters.
type Counters struct {
	DayLikesCount    int `json:"dayLikesCount"`
	SpecialLikeCount int `json:"specialLikeCount"`
}

// Limits bounds the per-user counters.
type Limits struct {
	DailyLikes   int
	SpecialLikes int
}

func DefaultLimits() Limits {
	return Limits{DailyLikes: 8, SpecialLikes: 3}
}

// BatchOptions controls the cursor-batched maintenance jobs.
type BatchOptions struct {
	Size int
	// Pace is the minimum gap between two batches. Zero disables pacing.
	Pace time.Duration
}

func DefaultBatchOptions() BatchOptions {
	return BatchOptions{Size: 10, Pace: 50 * time.Millisecond}
}

// JobReport summarizes one maintenance run.
type JobReport struct {
	RunKey    string `json:"runKey"`
	Batches   int    `json:"batches"`
	Processed int64  `json:"processed"`
	Affected  int64  `json:"affected"`
	Resumed   bool   `json:"resumed"`
	Skipped   bool   `json:"skipped"`
}
