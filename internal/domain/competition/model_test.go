package competition

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCanTransitionIsMonotonic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusOpen, StatusLocked, true},
		{StatusLocked, StatusScoring, true},
		{StatusScoring, StatusFinished, true},
		{StatusOpen, StatusScoring, false},
		{StatusLocked, StatusOpen, false},
		{StatusFinished, StatusScoring, false},
		{StatusFinished, StatusFinished, false},
		{"closed", StatusFinished, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}

	if err := ValidateTransition(StatusFinished, StatusOpen); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPeerTermsScaleWithParticipants(t *testing.T) {
	t.Parallel()

	peer := Peer{
		Header: Header{ID: "peer-1", Kind: KindPeer, FeePct: decimal.NewFromInt(10)},
		Stake:  decimal.NewFromInt(500),
	}

	terms := peer.Terms(4)
	if !terms.PoolAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected pool: %s", terms.PoolAmount)
	}
	if terms.Policy != PolicyWinnerTakesAll || terms.WinnerCount != 1 {
		t.Fatalf("peer must be winner-takes-all with one winner: %+v", terms)
	}
}

func TestTournamentTerms(t *testing.T) {
	t.Parallel()

	tournament := Tournament{
		Header:      Header{ID: "t-1", Kind: KindTournament},
		PoolAmount:  decimal.NewFromInt(5000),
		Policy:      PolicyWinnerTakesAll,
		WinnerCount: 3,
	}
	if got := tournament.Terms(10).WinnerCount; got != 1 {
		t.Fatalf("winner-takes-all must force one winner slot, got %d", got)
	}

	tournament.Policy = PolicyDivideAmongParticipants
	if got := tournament.Terms(10).WinnerCount; got != 3 {
		t.Fatalf("expected configured winner count, got %d", got)
	}
}

func TestWithStatusStampsSettlement(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	base := Tournament{Header: Header{ID: "t-1", Status: StatusScoring, FixtureIDs: []string{"f1"}}}

	finished := WithStatus(base, StatusFinished, at)
	info := finished.Info()
	if info.Status != StatusFinished || info.SettledAt == nil || !info.SettledAt.Equal(at) {
		t.Fatalf("unexpected header after finish: %+v", info)
	}
	if base.Status != StatusScoring {
		t.Fatalf("WithStatus must not mutate its input")
	}
	if _, ok := finished.(Tournament); !ok {
		t.Fatalf("variant must be preserved, got %T", finished)
	}

	cloned := Clone(base)
	cloned.Info().FixtureIDs[0] = "changed"
	if base.FixtureIDs[0] != "f1" {
		t.Fatalf("Clone must copy fixture ids")
	}
}

func TestCheckPrecision(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		comp Competition
		ok   bool
	}{
		{name: "stored scale", comp: Peer{Header: Header{FeePct: decimal.RequireFromString("12.3456")}, Stake: decimal.RequireFromString("10.0001")}, ok: true},
		{name: "trailing zeros", comp: Tournament{Header: Header{FeePct: decimal.RequireFromString("10.000000")}, PoolAmount: decimal.NewFromInt(5000)}, ok: true},
		{name: "fee too fine", comp: Tournament{Header: Header{FeePct: decimal.RequireFromString("12.34567")}, PoolAmount: decimal.NewFromInt(5000)}},
		{name: "stake too fine", comp: Peer{Stake: decimal.RequireFromString("0.00001")}},
		{name: "pool too fine", comp: Tournament{PoolAmount: decimal.RequireFromString("5000.12345")}},
	}

	for _, tc := range cases {
		err := CheckPrecision(tc.comp)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrPrecision) {
			t.Fatalf("%s: expected ErrPrecision, got %v", tc.name, err)
		}
	}
}
