// Package limits enforces the capacity bounds for bulk operations. The
// limiter is pure: no I/O, no state beyond the configured bounds.
package limits

import (
	"fmt"

	"github.com/temmy762/jarvis/internal/domain"
)

// Default capacity bounds. The batch ceiling bounds the blast radius of a
// single confirmation step; the non-zero floor guarantees forward progress;
// the total cap forces users to narrow very large requests instead of
// triggering them by accident.
const (
	DefaultMinBatchSize  = 5
	DefaultMaxBatchSize  = 20
	DefaultMaxTotalItems = 200
)

// Limits holds the configured capacity bounds.
type Limits struct {
	MinBatchSize  int
	MaxBatchSize  int
	MaxTotalItems int
}

// Defaults returns the standard bounds.
func Defaults() Limits {
	return Limits{
		MinBatchSize:  DefaultMinBatchSize,
		MaxBatchSize:  DefaultMaxBatchSize,
		MaxTotalItems: DefaultMaxTotalItems,
	}
}

// Validate checks that the bounds themselves are coherent.
func (l Limits) Validate() error {
	if l.MinBatchSize <= 0 {
		return fmt.Errorf("min batch size must be positive, got %d", l.MinBatchSize)
	}
	if l.MaxBatchSize < l.MinBatchSize {
		return fmt.Errorf("max batch size %d must be >= min batch size %d", l.MaxBatchSize, l.MinBatchSize)
	}
	if l.MaxTotalItems <= 0 {
		return fmt.Errorf("max total items must be positive, got %d", l.MaxTotalItems)
	}
	return nil
}

// ValidateTotal rejects operations whose total exceeds the item cap.
func (l Limits) ValidateTotal(count int) error {
	if count > l.MaxTotalItems {
		return fmt.Errorf("%w: %d items requested, limit is %d",
			domain.ErrTooManyItems, count, l.MaxTotalItems)
	}
	return nil
}

// ClampBatchSize forces a requested batch size into [MinBatchSize, MaxBatchSize].
func (l Limits) ClampBatchSize(requested int) int {
	if requested < l.MinBatchSize {
		return l.MinBatchSize
	}
	if requested > l.MaxBatchSize {
		return l.MaxBatchSize
	}
	return requested
}
