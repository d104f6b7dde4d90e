package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrInvalidNonce means the nonce is missing or too short to carry a
	// timestamp plus entropy.
	ErrInvalidNonce = errors.New("invalid nonce")
	// ErrBadNonceTime means the nonce's embedded timestamp did not parse or
	// lies outside the allowed skew window.
	ErrBadNonceTime = errors.New("bad nonce time")
	// ErrUnknownNonce means the nonce was already consumed (admission) or was
	// never admitted (verification). Callers must not let clients tell this
	// apart from the other rejections.
	ErrUnknownNonce = errors.New("unknown nonce")
)

const (
	// minLength covers the 19-character timestamp plus at least one byte of
	// provider entropy.
	minLength  = 20
	timeLayout = "2006-01-02T15:04:05"
)

// Validator applies the replay-protection protocol to provider response
// nonces. Checks run cheap-to-expensive: format, timestamp parse, skew
// window, then the store lookup. A nonce admitted once is rejected on every
// later admission attempt.
type Validator struct {
	store        *Store
	clock        clockwork.Clock
	loginTimeout time.Duration
}

func NewValidator(store *Store, clock clockwork.Clock, loginTimeout time.Duration) *Validator {
	return &Validator{
		store:        store,
		clock:        clock,
		loginTimeout: loginTimeout,
	}
}

// CheckAndAdmit admits a nonce seen for the first time and records it as
// consumed. The record is written atomically, so two concurrent admissions of
// the same value yield exactly one success.
func (v *Validator) CheckAndAdmit(ctx context.Context, nonce string) error {
	nonceTime, err := v.screen(nonce)
	if err != nil {
		return err
	}

	admitted, err := v.store.PutIfAbsent(ctx, nonce, nonceTime.Add(v.loginTimeout))
	if err != nil {
		return fmt.Errorf("nonce store: %w", err)
	}
	if !admitted {
		return fmt.Errorf("%w: already consumed", ErrUnknownNonce)
	}

	return nil
}

// VerifyOnly re-checks a previously admitted nonce without consuming it. It
// never writes to the store; the nonce must still be on record.
func (v *Validator) VerifyOnly(ctx context.Context, nonce string) error {
	if _, err := v.screen(nonce); err != nil {
		return err
	}

	exists, err := v.store.Exists(ctx, nonce)
	if err != nil {
		return fmt.Errorf("nonce store: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: not on record", ErrUnknownNonce)
	}

	return nil
}

// screen runs the checks shared by both operations and returns the nonce's
// embedded timestamp.
func (v *Validator) screen(nonce string) (time.Time, error) {
	if len(nonce) < minLength {
		return time.Time{}, fmt.Errorf("%w: length %d", ErrInvalidNonce, len(nonce))
	}

	// The first 19 characters carry the provider's timestamp, always UTC.
	nonceTime, err := time.Parse(timeLayout, nonce[:19])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBadNonceTime, err)
	}

	skew := v.clock.Now().Sub(nonceTime)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.loginTimeout {
		return time.Time{}, fmt.Errorf("%w: skew %s exceeds %s", ErrBadNonceTime, skew, v.loginTimeout)
	}

	return nonceTime, nil
}
