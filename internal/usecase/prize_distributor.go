package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

var hundred = decimal.NewFromInt(100)

// Distribution is the computed payout plan of a competition.
type Distribution struct {
	Distributable decimal.Decimal
	Payouts       []settlement.Payout
}

func (d Distribution) Total() decimal.Decimal {
	total := decimal.Zero
	for _, payout := range d.Payouts {
		total = total.Add(payout.Amount)
	}
	return total
}

type PrizeDistributorConfig struct {
	// CurrencyScale is the number of minor-unit digits payouts are rounded to.
	CurrencyScale int32
}

// PrizeDistributor computes payouts and commits them exactly once.
type PrizeDistributor struct {
	finalizer settlement.Finalizer
	publisher notification.Publisher
	cfg       PrizeDistributorConfig
	logger    *logging.Logger
}

func NewPrizeDistributor(
	finalizer settlement.Finalizer,
	publisher notification.Publisher,
	cfg PrizeDistributorConfig,
	logger *logging.Logger,
) *PrizeDistributor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CurrencyScale < 0 {
		cfg.CurrencyScale = 0
	}
	return &PrizeDistributor{
		finalizer: finalizer,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Distribute splits pool × (1 − fee/100) among the winners of ranked, which
// must already carry ranks. Amounts are allocated in minor units by largest
// remainder: every winner gets the floor share and leftover units go one
// each to winners in ranked order, so the total equals the distributable
// amount exactly.
func (d *PrizeDistributor) Distribute(terms competition.Terms, ranked []competition.Entry) (Distribution, error) {
	if terms.FeePct.IsNegative() || terms.FeePct.GreaterThanOrEqual(hundred) {
		return Distribution{}, fmt.Errorf("%w: fee percentage %s out of range", ErrConfiguration, terms.FeePct)
	}
	if terms.PoolAmount.IsNegative() {
		return Distribution{}, fmt.Errorf("%w: negative prize pool", ErrConfiguration)
	}

	distributable := terms.PoolAmount.
		Mul(hundred.Sub(terms.FeePct)).
		Div(hundred).
		RoundDown(d.cfg.CurrencyScale)

	winners := selectWinners(terms.Policy, ranked)
	out := Distribution{Distributable: distributable}
	if len(winners) == 0 {
		return out, nil
	}

	units := distributable.Shift(d.cfg.CurrencyScale).IntPart()
	count := int64(len(winners))
	base, remainder := units/count, units%count

	out.Payouts = make([]settlement.Payout, 0, len(winners))
	for idx, entry := range winners {
		share := base
		if int64(idx) < remainder {
			share++
		}
		out.Payouts = append(out.Payouts, settlement.Payout{
			EntryID: entry.ID,
			UserID:  entry.UserID,
			Rank:    entry.Rank,
			Amount:  decimal.New(share, -d.cfg.CurrencyScale),
		})
	}

	return out, nil
}

func selectWinners(policy competition.PayoutPolicy, ranked []competition.Entry) []competition.Entry {
	winners := make([]competition.Entry, 0, 1)
	for _, entry := range ranked {
		switch policy {
		case competition.PolicyWinnerTakesAll:
			if entry.Rank == 1 {
				winners = append(winners, entry)
			}
		default:
			if entry.IsWinner {
				winners = append(winners, entry)
			}
		}
	}
	return winners
}

// SettleInput carries a scored competition to Settle. Events are extra
// notifications committed alongside the prize_won ones.
type SettleInput struct {
	CompetitionID string
	RunID         string
	Ranked        []competition.Entry
	Distribution  Distribution
	Events        []notification.Event
	SettledAt     time.Time
}

// Settle commits ranks, prizes, wallet credits and notifications together
// with the scoring -> finished transition, then hands the notifications to
// the publisher. A competition that already left scoring yields
// ErrAlreadySettled and no credit.
func (d *PrizeDistributor) Settle(ctx context.Context, input SettleInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrizeDistributor.Settle",
		attribute.String("competition.id", input.CompetitionID),
	)
	defer span.End()

	prizeByEntry := make(map[string]decimal.Decimal, len(input.Distribution.Payouts))
	for _, payout := range input.Distribution.Payouts {
		prizeByEntry[payout.EntryID] = payout.Amount
	}

	entries := make([]competition.Entry, 0, len(input.Ranked))
	for _, entry := range input.Ranked {
		entry.Prize = decimal.Zero
		if amount, ok := prizeByEntry[entry.ID]; ok {
			entry.Prize = amount
		}
		entry.UpdatedAt = input.SettledAt
		entries = append(entries, entry)
	}

	events := append(d.prizeEvents(input), input.Events...)
	err := d.finalizer.Finalize(ctx, settlement.Finalization{
		CompetitionID: input.CompetitionID,
		RunID:         input.RunID,
		Entries:       entries,
		Payouts:       input.Distribution.Payouts,
		Events:        events,
		SettledAt:     input.SettledAt,
	})
	switch {
	case errors.Is(err, competition.ErrStatusConflict):
		return fmt.Errorf("%w: competition=%s", ErrAlreadySettled, input.CompetitionID)
	case err != nil:
		span.RecordError(err)
		return fmt.Errorf("%w: finalize competition=%s: %w", ErrPersistence, input.CompetitionID, err)
	}

	d.publish(ctx, input.CompetitionID, events)
	return nil
}

func (d *PrizeDistributor) prizeEvents(input SettleInput) []notification.Event {
	events := make([]notification.Event, 0, len(input.Distribution.Payouts)+len(input.Events))
	for _, payout := range input.Distribution.Payouts {
		events = append(events, notification.Event{
			ID:     "prize_won:" + input.CompetitionID + ":" + payout.EntryID,
			UserID: payout.UserID,
			Kind:   notification.KindPrizeWon,
			Payload: map[string]any{
				"competition_id": input.CompetitionID,
				"entry_id":       payout.EntryID,
				"rank":           payout.Rank,
				"amount":         payout.Amount.StringFixed(d.cfg.CurrencyScale),
			},
			CreatedAt: input.SettledAt,
		})
	}
	return events
}

// publish is best effort: the events are already committed to the outbox.
func (d *PrizeDistributor) publish(ctx context.Context, competitionID string, events []notification.Event) {
	if d.publisher == nil || len(events) == 0 {
		return
	}
	if err := d.publisher.Publish(ctx, events...); err != nil {
		d.logger.WarnContext(ctx, "publish settlement notifications failed",
			"competition_id", competitionID,
			"events", len(events),
			"error", err,
		)
	}
}
