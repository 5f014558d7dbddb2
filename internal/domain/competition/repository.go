package competition

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, c Competition) error
	GetByID(ctx context.Context, competitionID string) (Competition, bool, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Competition, error)
	// TransitionStatus applies from -> to only when the stored status still
	// equals from. It reports false when the precondition did not hold.
	TransitionStatus(ctx context.Context, competitionID string, from, to Status, at time.Time) (bool, error)

	ListEntries(ctx context.Context, competitionID string) ([]Entry, error)
	GetEntryByUser(ctx context.Context, competitionID, userID string) (Entry, bool, error)
	// CreateEntry inserts entry while the competition is open and below its
	// participant cap. Returns ErrNotOpen, ErrFull or ErrEntryExists.
	CreateEntry(ctx context.Context, entry Entry) error
	// UpdateSquad replaces an entry's squad while the competition is open.
	UpdateSquad(ctx context.Context, competitionID, entryID string, squad []Slot, at time.Time) error
}
