package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
)

// CompetitionRepository keeps competitions and their entries in memory. It
// also implements settlement.Finalizer against the wallet repository it was
// built with, holding its own lock for the whole finalization.
type CompetitionRepository struct {
	mu           sync.RWMutex
	competitions map[string]competition.Competition
	entries      map[string][]competition.Entry
	outbox       []notification.Event
	wallets      *WalletRepository
}

func NewCompetitionRepository(wallets *WalletRepository) *CompetitionRepository {
	if wallets == nil {
		wallets = NewWalletRepository()
	}
	return &CompetitionRepository{
		competitions: make(map[string]competition.Competition),
		entries:      make(map[string][]competition.Entry),
		wallets:      wallets,
	}
}

func (r *CompetitionRepository) Create(_ context.Context, c competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.Info().ID
	if _, exists := r.competitions[id]; exists {
		return fmt.Errorf("competition %s already exists", id)
	}
	r.competitions[id] = competition.Clone(c)
	return nil
}

func (r *CompetitionRepository) GetByID(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.competitions[competitionID]
	if !ok {
		return nil, false, nil
	}
	return competition.Clone(item), true, nil
}

func (r *CompetitionRepository) ListByStatus(_ context.Context, statuses ...competition.Status) ([]competition.Competition, error) {
	wanted := make(map[competition.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	r.mu.RLock()
	out := make([]competition.Competition, 0, len(r.competitions))
	for _, item := range r.competitions {
		if _, ok := wanted[item.Info().Status]; ok || len(wanted) == 0 {
			out = append(out, competition.Clone(item))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Info().ID < out[j].Info().ID })
	return out, nil
}

func (r *CompetitionRepository) TransitionStatus(_ context.Context, competitionID string, from, to competition.Status, at time.Time) (bool, error) {
	if err := competition.ValidateTransition(from, to); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.competitions[competitionID]
	if !ok || item.Info().Status != from {
		return false, nil
	}
	r.competitions[competitionID] = competition.WithStatus(item, to, at)
	return true, nil
}

func (r *CompetitionRepository) ListEntries(_ context.Context, competitionID string) ([]competition.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.entries[competitionID]
	out := make([]competition.Entry, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (r *CompetitionRepository) GetEntryByUser(_ context.Context, competitionID, userID string) (competition.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.entries[competitionID] {
		if item.UserID == userID {
			return item.Clone(), true, nil
		}
	}
	return competition.Entry{}, false, nil
}

func (r *CompetitionRepository) CreateEntry(_ context.Context, entry competition.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.competitions[entry.CompetitionID]
	if !ok {
		return fmt.Errorf("competition %s not found", entry.CompetitionID)
	}
	info := item.Info()
	if !info.Status.AcceptsEntries() {
		return competition.ErrNotOpen
	}

	current := r.entries[entry.CompetitionID]
	for _, existing := range current {
		if existing.UserID == entry.UserID {
			return competition.ErrEntryExists
		}
	}
	if info.MaxParticipants > 0 && len(current) >= info.MaxParticipants {
		return competition.ErrFull
	}

	r.entries[entry.CompetitionID] = append(current, entry.Clone())
	return nil
}

func (r *CompetitionRepository) UpdateSquad(_ context.Context, competitionID, entryID string, squad []competition.Slot, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.competitions[competitionID]
	if !ok {
		return fmt.Errorf("competition %s not found", competitionID)
	}
	if !item.Info().Status.AcceptsEntries() {
		return competition.ErrNotOpen
	}

	items := r.entries[competitionID]
	for idx := range items {
		if items[idx].ID != entryID {
			continue
		}
		items[idx].Squad = append([]competition.Slot(nil), squad...)
		items[idx].UpdatedAt = at
		return nil
	}
	return fmt.Errorf("entry %s not found", entryID)
}

func (r *CompetitionRepository) Finalize(_ context.Context, f settlement.Finalization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.competitions[f.CompetitionID]
	if !ok {
		return fmt.Errorf("competition %s not found", f.CompetitionID)
	}
	if item.Info().Status != competition.StatusScoring {
		return competition.ErrStatusConflict
	}

	if err := r.wallets.apply(f.Credits(), f.SettledAt); err != nil {
		return err
	}

	results := make(map[string]competition.Entry, len(f.Entries))
	for _, entry := range f.Entries {
		results[entry.ID] = entry
	}
	items := r.entries[f.CompetitionID]
	for idx := range items {
		result, ok := results[items[idx].ID]
		if !ok {
			continue
		}
		items[idx].Score = result.Score
		items[idx].Rank = result.Rank
		items[idx].IsWinner = result.IsWinner
		items[idx].Incomplete = result.Incomplete
		items[idx].Prize = result.Prize
		items[idx].UpdatedAt = f.SettledAt
	}

	r.outbox = append(r.outbox, f.Events...)
	r.competitions[f.CompetitionID] = competition.WithStatus(item, competition.StatusFinished, f.SettledAt)
	return nil
}

// Outbox returns the notifications committed by finalizations, oldest first.
func (r *CompetitionRepository) Outbox() []notification.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notification.Event, len(r.outbox))
	copy(out, r.outbox)
	return out
}
