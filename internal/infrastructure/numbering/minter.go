// Package numbering mints human-readable document numbers of the form
// PREFIX-YYYYMMDDHHMMSS-XXXXXXXX, where the suffix carries 40 random bits.
package numbering

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxAttempts is how many times an operation is retried after a number collision
const MaxAttempts = 3

const suffixLength = 8

var suffixEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Minter generates document numbers from a timestamp and uuid entropy
type Minter struct {
	entropy func() [16]byte
}

// NewMinter creates a Minter backed by random UUIDs
func NewMinter() *Minter {
	return &Minter{entropy: func() [16]byte { return uuid.New() }}
}

// Mint returns a new document number for the prefix
func (m *Minter) Mint(prefix billing.NumberPrefix, at time.Time) string {
	raw := m.entropy()
	// bytes 0-4 of a v4 uuid are fully random
	suffix := suffixEncoding.EncodeToString([]byte{raw[0], raw[1], raw[2], raw[3], raw[4]})
	return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("20060102150405"), suffix[:suffixLength])
}

// Parse splits a document number into its prefix and timestamp
func Parse(number string) (billing.NumberPrefix, time.Time, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || len(parts[2]) < 6 {
		return "", time.Time{}, fmt.Errorf("malformed document number %q", number)
	}
	at, err := time.Parse("20060102150405", parts[1])
	if err != nil {
		if at, err = time.Parse("20060102", parts[1]); err != nil {
			return "", time.Time{}, fmt.Errorf("malformed document number %q: %w", number, err)
		}
	}
	return billing.NumberPrefix(parts[0]), at, nil
}

// IsUniqueViolation reports whether err came from a unique constraint
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// WithUniqueRetry runs fn, which mints numbers and writes them, again when a
// unique constraint rejects the write. After MaxAttempts collisions it gives up
// with a CONFLICT error.
func WithUniqueRetry(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
		lastErr = err
		if log != nil {
			log.Warn("document number collision, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return shared.WrapDomainError(shared.CodeConflict,
		fmt.Sprintf("could not allocate a unique document number after %d attempts", MaxAttempts), lastErr)
}

var _ billing.NumberMinter = (*Minter)(nil)
