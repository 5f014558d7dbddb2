package competition

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusLocked   Status = "locked"
	StatusScoring  Status = "scoring"
	StatusFinished Status = "finished"
)

var (
	ErrInvalidTransition = errors.New("invalid competition status transition")
	// ErrStatusConflict means the stored status no longer matches the
	// expected precondition of a compare-and-swap.
	ErrStatusConflict = errors.New("competition status changed concurrently")
	ErrNotOpen        = errors.New("competition is not open")
	ErrEntryExists    = errors.New("user already has an entry in this competition")
	ErrFull           = errors.New("competition is full")
	ErrPrecision      = errors.New("competition amount exceeds stored precision")
)

var order = map[Status]int{
	StatusOpen:     0,
	StatusLocked:   1,
	StatusScoring:  2,
	StatusFinished: 3,
}

func (s Status) Valid() bool {
	_, ok := order[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusFinished
}

// AcceptsEntries reports whether joins and squad edits are allowed.
func (s Status) AcceptsEntries() bool {
	return s == StatusOpen
}

// CanTransition allows only single forward steps:
// open -> locked -> scoring -> finished.
func CanTransition(from, to Status) bool {
	fromIdx, okFrom := order[from]
	toIdx, okTo := order[to]
	return okFrom && okTo && toIdx == fromIdx+1
}

func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
