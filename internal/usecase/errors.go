package usecase

import (
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrUnauthorized          = crerr.New("unauthorized")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	// Settlement taxonomy.
	ErrMissingStatistic = crerr.New("missing statistic")
	ErrAlreadySettled   = crerr.New("competition already settled")
	ErrLockContention   = crerr.New("settlement lock held by another worker")
	ErrConfiguration    = crerr.New("invalid competition configuration")
	ErrPersistence      = crerr.New("settlement persistence failed")
)

// MissingStatisticError lists the squad slots of an entry that had neither a
// main nor a substitute statistic.
type MissingStatisticError struct {
	EntryID string
	Slots   []int
}

func (e *MissingStatisticError) Error() string {
	parts := make([]string, 0, len(e.Slots))
	for _, slot := range e.Slots {
		parts = append(parts, fmt.Sprintf("%d", slot))
	}
	return fmt.Sprintf("missing statistic: entry=%s slots=[%s]", e.EntryID, strings.Join(parts, ","))
}

func (e *MissingStatisticError) Is(target error) bool {
	return target == ErrMissingStatistic
}
