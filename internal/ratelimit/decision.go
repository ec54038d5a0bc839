package ratelimit

import (
	"errors"
	"time"
)

var (
	// ErrQuotaExceeded is returned when a daily or hourly quota is used up
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrTemporaryBlock is returned while a block, break or backoff delay is in force
	ErrTemporaryBlock = errors.New("temporarily blocked")
)

// Kind names the rule that refused an action
type Kind int

const (
	KindNone Kind = iota
	KindBlocked
	KindDailyLimit
	KindHourlyLimit
	KindBreak
	KindDelay
	KindFailureCeiling
)

var kindNames = map[Kind]string{
	KindNone:           "none",
	KindBlocked:        "blocked",
	KindDailyLimit:     "daily_limit",
	KindHourlyLimit:    "hourly_limit",
	KindBreak:          "break",
	KindDelay:          "delay",
	KindFailureCeiling: "failure_ceiling",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Sentinel maps the kind onto the public error taxonomy
func (k Kind) Sentinel() error {
	switch k {
	case KindDailyLimit, KindHourlyLimit, KindFailureCeiling:
		return ErrQuotaExceeded
	case KindNone:
		return nil
	}
	return ErrTemporaryBlock
}

// Decision is the outcome of a gate check
type Decision struct {
	Allowed    bool
	Reason     string
	Kind       Kind
	RetryAfter time.Duration
}

// Err returns nil for an allowed decision and a *RefusalError otherwise
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &RefusalError{Kind: d.Kind, Reason: d.Reason, RetryAfter: d.RetryAfter}
}

// RefusalError carries a refused decision to callers
type RefusalError struct {
	Kind       Kind
	Reason     string
	RetryAfter time.Duration
}

func (e *RefusalError) Error() string {
	return e.Reason
}

func (e *RefusalError) Unwrap() error {
	return e.Kind.Sentinel()
}

func allow() Decision {
	return Decision{Allowed: true, Reason: "OK"}
}

func refuse(kind Kind, reason string, retryAfter time.Duration) Decision {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{Kind: kind, Reason: reason, RetryAfter: retryAfter}
}
