package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
	settlementmock "github.com/riskibarqy/fantasy-contest/internal/mocks/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/platform/id"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type settlementHarness struct {
	competitions  *memory.CompetitionRepository
	wallets       *memory.WalletRepository
	fixtures      *memory.FixtureRepository
	stats         *memory.MatchStatRepository
	notifications *memory.NotificationRecorder
	locker        *memory.SettlementLocker
	compService   *CompetitionService
	service       *SettlementService
}

func newSettlementHarness(t *testing.T) *settlementHarness {
	t.Helper()

	h := &settlementHarness{
		wallets:       memory.NewWalletRepository(),
		fixtures:      memory.NewFixtureRepository(nil),
		stats:         memory.NewMatchStatRepository(nil),
		notifications: memory.NewNotificationRecorder(nil),
		locker:        memory.NewSettlementLocker(),
	}
	h.competitions = memory.NewCompetitionRepository(h.wallets)
	if err := memory.Seed(context.Background(), h.competitions, h.fixtures, h.stats); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.compService = NewCompetitionService(h.competitions, h.fixtures, id.NewSequence("entry"), nil)
	h.service = h.newService(h.competitions)
	return h
}

func (h *settlementHarness) newService(finalizer settlement.Finalizer) *SettlementService {
	distributor := NewPrizeDistributor(finalizer, h.notifications, PrizeDistributorConfig{CurrencyScale: 2}, nil)
	return NewSettlementService(
		h.competitions,
		h.stats,
		memory.NewRulesRepository(),
		h.locker,
		h.compService,
		distributor,
		id.NewSequence("run"),
		SettlementConfig{LockTTL: time.Minute},
		nil,
	)
}

func (h *settlementHarness) finishFixtures(t *testing.T) {
	t.Helper()

	items := memory.SeedFixtures()
	for idx := range items {
		items[idx].Status = fixture.StatusFinished
	}
	if err := h.fixtures.Upsert(context.Background(), items); err != nil {
		t.Fatalf("finish fixtures: %v", err)
	}
}

func (h *settlementHarness) status(t *testing.T, competitionID string) competition.Status {
	t.Helper()

	item, ok, err := h.competitions.GetByID(context.Background(), competitionID)
	if err != nil || !ok {
		t.Fatalf("get competition %s: ok=%v err=%v", competitionID, ok, err)
	}
	return item.Info().Status
}

func (h *settlementHarness) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()

	item, ok, err := h.wallets.GetByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet %s: %v", userID, err)
	}
	if !ok {
		return decimal.Zero
	}
	return item.Balance
}

func TestSettlementService_SettlesPeerCompetition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	result, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("trigger settlement: %v", err)
	}
	if result.Outcome != settlement.OutcomeFinished {
		t.Fatalf("unexpected outcome: %+v", result)
	}
	if result.Participants != 2 || result.Winners != 1 || !result.Distributed.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := h.status(t, memory.CompetitionIDDemoPeer); got != competition.StatusFinished {
		t.Fatalf("unexpected status: %s", got)
	}

	// budi: 10 points x3 stars + 6 = 36; andi: 9 x2 + substitute 5 = 23.
	view, err := h.compService.GetSettlementView(ctx, memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("settlement view: %v", err)
	}
	first, second := view.Entries[0], view.Entries[1]
	if first.UserID != "user-budi" || first.Rank != 1 || !first.Score.Equal(decimal.NewFromInt(36)) || !first.IsWinner {
		t.Fatalf("unexpected winner entry: %+v", first)
	}
	if second.UserID != "user-andi" || second.Rank != 2 || !second.Score.Equal(decimal.NewFromInt(23)) || !second.Prize.IsZero() {
		t.Fatalf("unexpected runner-up entry: %+v", second)
	}

	if got := h.balance(t, "user-budi"); !got.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("unexpected winner balance: %s", got)
	}
	if got := h.balance(t, "user-andi"); !got.IsZero() {
		t.Fatalf("unexpected runner-up balance: %s", got)
	}
	if got := len(h.notifications.EventsOfKind(notification.KindPrizeWon)); got != 1 {
		t.Fatalf("expected one prize notification, got %d", got)
	}
	if got := len(h.notifications.EventsOfKind(notification.KindSettlementCompleted)); got != 2 {
		t.Fatalf("expected two completion notifications, got %d", got)
	}

	outbox := h.competitions.Outbox()
	if len(outbox) != 3 {
		t.Fatalf("expected 3 committed notifications, got %d", len(outbox))
	}
	if outbox[0].Kind != notification.KindPrizeWon || outbox[0].UserID != "user-budi" {
		t.Fatalf("unexpected first committed notification: %+v", outbox[0])
	}
}

func TestSettlementService_SettlesTournamentDividingThePool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	result, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoCup)
	if err != nil {
		t.Fatalf("trigger settlement: %v", err)
	}
	if result.Outcome != settlement.OutcomeFinished || result.Winners != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, userID := range []string{"user-andi", "user-budi"} {
		if got := h.balance(t, userID); !got.Equal(decimal.NewFromInt(47500)) {
			t.Fatalf("%s: unexpected balance %s", userID, got)
		}
	}
}

func TestSettlementService_RepeatedTriggerIsSkipped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	if _, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoPeer); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	result, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	if result.Outcome != settlement.OutcomeSkipped || result.Reason != settlement.ReasonAlreadySettled {
		t.Fatalf("unexpected second result: %+v", result)
	}
	if result.SettledAt == nil {
		t.Fatalf("expected settled time of the first run")
	}
	if got := h.balance(t, "user-budi"); !got.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("winner credited more than once: %s", got)
	}
}

func TestSettlementService_ConcurrentTriggersPayOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	const callers = 16
	results := make([]settlement.Result, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoPeer)
		}(i)
	}
	wg.Wait()

	finished := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		switch results[i].Outcome {
		case settlement.OutcomeFinished:
			finished++
		case settlement.OutcomeSkipped:
		default:
			t.Fatalf("caller %d: unexpected outcome %+v", i, results[i])
		}
	}
	if finished != 1 {
		t.Fatalf("expected exactly one finishing run, got %d", finished)
	}

	credits, err := h.wallets.ListCredits(ctx, "user-budi")
	if err != nil {
		t.Fatalf("list credits: %v", err)
	}
	if len(credits) != 1 {
		t.Fatalf("expected one ledger credit, got %d", len(credits))
	}
	if got := len(h.notifications.EventsOfKind(notification.KindPrizeWon)); got != 1 {
		t.Fatalf("expected one prize notification, got %d", got)
	}
}

func TestSettlementService_HeldLeaseSkips(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	if _, ok, _ := h.locker.TryAcquire(ctx, memory.CompetitionIDDemoPeer, "other-worker", time.Minute); !ok {
		t.Fatalf("expected to take the lease")
	}

	result, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Outcome != settlement.OutcomeSkipped || result.Reason != settlement.ReasonLockHeld {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := h.status(t, memory.CompetitionIDDemoPeer); got != competition.StatusOpen {
		t.Fatalf("status changed while lease was held: %s", got)
	}
}

func TestSettlementService_OpenMatchWindowSkips(t *testing.T) {
	t.Parallel()

	h := newSettlementHarness(t)

	result, err := h.service.TriggerSettlement(context.Background(), memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Outcome != settlement.OutcomeSkipped || result.Reason != settlement.ReasonMatchWindowOpen {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := h.status(t, memory.CompetitionIDDemoPeer); got != competition.StatusOpen {
		t.Fatalf("unexpected status: %s", got)
	}
}

func TestSettlementService_PartialDataStillSettles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	ghost := competition.Entry{
		ID:            "cup-ghost",
		CompetitionID: memory.CompetitionIDDemoCup,
		UserID:        "user-citra",
		Squad: []competition.Slot{{
			Main:       competition.PlayerRef{PlayerID: "unknown-1", FixtureID: memory.FixtureIDPersijaPersib},
			Substitute: competition.PlayerRef{PlayerID: "unknown-2", FixtureID: memory.FixtureIDPersijaPersib},
			StarRating: decimal.NewFromInt(5),
		}},
		JoinedAt: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := h.competitions.CreateEntry(ctx, ghost); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	result, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoCup)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Outcome != settlement.OutcomePartial {
		t.Fatalf("expected partial outcome, got %+v", result)
	}
	if len(result.IncompleteEntries) != 1 || result.IncompleteEntries[0] != ghost.ID {
		t.Fatalf("unexpected incomplete entries: %v", result.IncompleteEntries)
	}
	if got := h.status(t, memory.CompetitionIDDemoCup); got != competition.StatusFinished {
		t.Fatalf("unexpected status: %s", got)
	}

	view, err := h.compService.GetSettlementView(ctx, memory.CompetitionIDDemoCup)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	last := view.Entries[len(view.Entries)-1]
	if last.ID != ghost.ID || !last.Incomplete || !last.Score.IsZero() || last.Rank != 3 {
		t.Fatalf("unexpected incomplete entry: %+v", last)
	}
	if got := h.balance(t, "user-citra"); !got.IsZero() {
		t.Fatalf("incomplete entry was paid: %s", got)
	}
}

func TestSettlementService_InvalidConfigurationLeavesStateAlone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	broken := competition.Tournament{
		Header: competition.Header{
			ID:         "cmp-broken",
			Kind:       competition.KindTournament,
			Sport:      scoring.SportFootball,
			Status:     competition.StatusOpen,
			FixtureIDs: []string{memory.FixtureIDPersijaPersib},
			FeePct:     decimal.NewFromInt(5),
		},
		PoolAmount:  decimal.Zero,
		Policy:      competition.PolicyWinnerTakesAll,
		WinnerCount: 1,
	}
	if err := h.competitions.Create(ctx, broken); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := h.service.TriggerSettlement(ctx, broken.ID)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if got := h.status(t, broken.ID); got != competition.StatusOpen {
		t.Fatalf("status changed on invalid configuration: %s", got)
	}
}

func TestSettlementService_TooFewParticipantsLeavesStateAlone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	cup := competition.Tournament{
		Header: competition.Header{
			ID:              "cmp-short-field",
			Kind:            competition.KindTournament,
			Sport:           scoring.SportFootball,
			Status:          competition.StatusOpen,
			FixtureIDs:      []string{memory.FixtureIDPersijaPersib},
			MinParticipants: 3,
			FeePct:          decimal.NewFromInt(10),
		},
		PoolAmount:  decimal.NewFromInt(100000),
		Policy:      competition.PolicyWinnerTakesAll,
		WinnerCount: 1,
	}
	if err := h.competitions.Create(ctx, cup); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := h.competitions.CreateEntry(ctx, competition.Entry{
		ID:            "cmp-short-field-e1",
		CompetitionID: cup.ID,
		UserID:        "user-solo",
		Squad: []competition.Slot{{
			Main:       competition.PlayerRef{PlayerID: "idn-fwd-01", FixtureID: memory.FixtureIDPersijaPersib},
			Substitute: competition.PlayerRef{PlayerID: "idn-mid-02", FixtureID: memory.FixtureIDPersijaPersib},
			StarRating: decimal.NewFromInt(1),
		}},
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	_, err = h.service.TriggerSettlement(ctx, cup.ID)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if got := h.status(t, cup.ID); got != competition.StatusOpen {
		t.Fatalf("status changed with too few participants: %s", got)
	}
	if got := h.balance(t, "user-solo"); !got.IsZero() {
		t.Fatalf("expected no payout, got %s", got)
	}
}

func TestSettlementService_PersistenceFailureIsRetryable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)

	failing := settlementmock.NewFinalizer(t)
	failing.On("Finalize", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	_, err := h.newService(failing).TriggerSettlement(ctx, memory.CompetitionIDDemoPeer)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if got := h.status(t, memory.CompetitionIDDemoPeer); got != competition.StatusScoring {
		t.Fatalf("expected competition to stay in scoring, got %s", got)
	}
	if got := h.balance(t, "user-budi"); !got.IsZero() {
		t.Fatalf("credit leaked from failed run: %s", got)
	}

	result, err := h.service.TriggerSettlement(ctx, memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Outcome != settlement.OutcomeFinished {
		t.Fatalf("expected retry to finish, got %+v", result)
	}
	if got := h.balance(t, "user-budi"); !got.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("unexpected balance after retry: %s", got)
	}
}

func TestSettlementService_UnknownCompetition(t *testing.T) {
	t.Parallel()

	h := newSettlementHarness(t)
	if _, err := h.service.TriggerSettlement(context.Background(), "cmp-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.service.TriggerSettlement(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
