package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
)

// CompetitionRepository stores competitions and entries, and finalizes
// settlements together with the wallet ledger in one transaction.
type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) Create(ctx context.Context, c competition.Competition) error {
	if err := competition.CheckPrecision(c); err != nil {
		return err
	}
	query, args, err := qb.InsertModel("competitions", competitionInsertModelFrom(c), "")
	if err != nil {
		return fmt.Errorf("build insert competition query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "insert competition %s", c.Info().ID)
	}
	return nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	return getCompetition(ctx, r.db, competitionID, false)
}

func (r *CompetitionRepository) ListByStatus(ctx context.Context, statuses ...competition.Status) ([]competition.Competition, error) {
	builder := qb.Select("*").From("competitions").OrderBy("public_id")
	if len(statuses) > 0 {
		values := make([]any, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		builder = builder.Where(qb.In("status", values))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select competitions by status query: %w", err)
	}

	var rows []competitionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "select competitions by status")
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *CompetitionRepository) TransitionStatus(ctx context.Context, competitionID string, from, to competition.Status, at time.Time) (bool, error) {
	if err := competition.ValidateTransition(from, to); err != nil {
		return false, err
	}
	return transitionStatus(ctx, r.db, competitionID, from, to, at)
}

func (r *CompetitionRepository) ListEntries(ctx context.Context, competitionID string) ([]competition.Entry, error) {
	query, args, err := qb.Select("*").From("competition_entries").
		Where(qb.Eq("competition_public_id", competitionID)).
		OrderBy("joined_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select entries query: %w", err)
	}

	var rows []entryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select entries competition=%s", competitionID)
	}

	out := make([]competition.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *CompetitionRepository) GetEntryByUser(ctx context.Context, competitionID, userID string) (competition.Entry, bool, error) {
	query, args, err := qb.Select("*").From("competition_entries").
		Where(
			qb.Eq("competition_public_id", competitionID),
			qb.Eq("user_id", userID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return competition.Entry{}, false, fmt.Errorf("build select entry by user query: %w", err)
	}

	var row entryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Entry{}, false, nil
		}
		return competition.Entry{}, false, crerr.Wrap(err, "select entry by user")
	}

	entry, err := row.toDomain()
	if err != nil {
		return competition.Entry{}, false, err
	}
	return entry, true, nil
}

func (r *CompetitionRepository) CreateEntry(ctx context.Context, entry competition.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for create entry: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	comp, exists, err := getCompetition(ctx, tx, entry.CompetitionID, true)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("competition %s not found", entry.CompetitionID)
	}
	info := comp.Info()
	if !info.Status.AcceptsEntries() {
		return competition.ErrNotOpen
	}

	if info.MaxParticipants > 0 {
		var count int
		const countQuery = `SELECT COUNT(1) FROM competition_entries WHERE competition_public_id = $1`
		if err := tx.GetContext(ctx, &count, countQuery, entry.CompetitionID); err != nil {
			return crerr.Wrap(err, "count competition entries")
		}
		if count >= info.MaxParticipants {
			return competition.ErrFull
		}
	}

	squad, err := encodeSquad(entry.Squad)
	if err != nil {
		return fmt.Errorf("encode squad: %w", err)
	}
	query, args, err := qb.InsertModel("competition_entries", entryInsertModel{
		PublicID:      entry.ID,
		CompetitionID: entry.CompetitionID,
		UserID:        entry.UserID,
		Squad:         squad,
		Score:         entry.Score,
		Prize:         entry.Prize,
		JoinedAt:      entry.JoinedAt,
		UpdatedAt:     entry.UpdatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert entry query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return competition.ErrEntryExists
		}
		return crerr.Wrapf(err, "insert entry %s", entry.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create entry tx: %w", err)
	}
	return nil
}

func (r *CompetitionRepository) UpdateSquad(ctx context.Context, competitionID, entryID string, squad []competition.Slot, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for update squad: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	comp, exists, err := getCompetition(ctx, tx, competitionID, true)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("competition %s not found", competitionID)
	}
	if !comp.Info().Status.AcceptsEntries() {
		return competition.ErrNotOpen
	}

	encoded, err := encodeSquad(squad)
	if err != nil {
		return fmt.Errorf("encode squad: %w", err)
	}
	query, args, err := qb.Update("competition_entries").
		Set("squad", encoded).
		Set("updated_at", at).
		Where(
			qb.Eq("public_id", entryID),
			qb.Eq("competition_public_id", competitionID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update squad query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "update squad entry=%s", entryID)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("entry %s not found", entryID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update squad tx: %w", err)
	}
	return nil
}

// Finalize moves the competition from scoring to finished, writes entry
// results, applies every prize credit and queues the notifications in a
// single transaction.
func (r *CompetitionRepository) Finalize(ctx context.Context, f settlement.Finalization) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for finalize: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	swapped, err := transitionStatus(ctx, tx, f.CompetitionID, competition.StatusScoring, competition.StatusFinished, f.SettledAt)
	if err != nil {
		return err
	}
	if !swapped {
		return competition.ErrStatusConflict
	}

	for _, entry := range f.Entries {
		query, args, err := qb.Update("competition_entries").
			Set("score", entry.Score).
			Set("rank", entry.Rank).
			Set("is_winner", entry.IsWinner).
			Set("incomplete", entry.Incomplete).
			Set("prize", entry.Prize).
			Set("updated_at", f.SettledAt).
			Where(
				qb.Eq("public_id", entry.ID),
				qb.Eq("competition_public_id", f.CompetitionID),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update entry result query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "update entry result entry=%s", entry.ID)
		}
	}

	if err := applyCredits(ctx, tx, f.Credits()); err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, f.Events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit finalize tx")
	}
	return nil
}

func getCompetition(ctx context.Context, q sqlx.QueryerContext, competitionID string, forUpdate bool) (competition.Competition, bool, error) {
	builder := qb.Select("*").From("competitions").
		Where(qb.Eq("public_id", competitionID)).
		Limit(1)
	if forUpdate {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build select competition query: %w", err)
	}

	var row competitionTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, crerr.Wrapf(err, "select competition %s", competitionID)
	}

	item, err := row.toDomain()
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func transitionStatus(ctx context.Context, exec sqlx.ExecerContext, competitionID string, from, to competition.Status, at time.Time) (bool, error) {
	builder := qb.Update("competitions").
		Set("status", string(to)).
		Set("updated_at", at)
	if to == competition.StatusFinished {
		builder = builder.Set("settled_at", at)
	}
	query, args, err := builder.
		Where(
			qb.Eq("public_id", competitionID),
			qb.Eq("status", string(from)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build transition status query: %w", err)
	}

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, crerr.Wrapf(err, "transition competition=%s %s->%s", competitionID, from, to)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, crerr.Wrap(err, "read transition rows affected")
	}
	return affected == 1, nil
}
