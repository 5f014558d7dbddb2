package competition

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPeer       Kind = "peer"
	KindTournament Kind = "tournament"
)

type PayoutPolicy string

const (
	PolicyWinnerTakesAll          PayoutPolicy = "winner_takes_all"
	PolicyDivideAmongParticipants PayoutPolicy = "divide_among_participants"
)

// Header holds the fields shared by every competition kind.
type Header struct {
	ID              string
	Name            string
	Kind            Kind
	Sport           string
	Status          Status
	FixtureIDs      []string
	MinParticipants int
	MaxParticipants int
	FeePct          decimal.Decimal
	SettledAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Storage keeps money and fee percentages at these scales.
const (
	MoneyScale int32 = 4
	FeeScale   int32 = 4
)

// CheckPrecision fails when an amount or the fee needs more decimal places
// than storage keeps, which would round it silently.
func CheckPrecision(c Competition) error {
	info := c.Info()
	if !fitsScale(info.FeePct, FeeScale) {
		return fmt.Errorf("%w: fee_pct %s has more than %d decimal places", ErrPrecision, info.FeePct, FeeScale)
	}
	var amount decimal.Decimal
	switch item := c.(type) {
	case Peer:
		amount = item.Stake
	case Tournament:
		amount = item.PoolAmount
	}
	if !fitsScale(amount, MoneyScale) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrPrecision, amount, MoneyScale)
	}
	return nil
}

func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Terms is the settlement configuration derived for a participant count.
type Terms struct {
	PoolAmount  decimal.Decimal `validate:"gte=0"`
	FeePct      decimal.Decimal `validate:"gte=0,lt=100"`
	Policy      PayoutPolicy    `validate:"oneof=winner_takes_all divide_among_participants"`
	WinnerCount int             `validate:"gte=1"`
}

// Competition is either a Peer or a Tournament.
type Competition interface {
	Info() Header
	Terms(participants int) Terms
	withHeader(Header) Competition
}

// Peer is a small stake-based contest: every participant pays Stake and the
// top entry takes the pot.
type Peer struct {
	Header
	Stake decimal.Decimal
}

func (p Peer) Info() Header { return p.Header }

func (p Peer) Terms(participants int) Terms {
	return Terms{
		PoolAmount:  p.Stake.Mul(decimal.NewFromInt(int64(participants))),
		FeePct:      p.FeePct,
		Policy:      PolicyWinnerTakesAll,
		WinnerCount: 1,
	}
}

func (p Peer) withHeader(h Header) Competition {
	p.Header = h
	return p
}

// Tournament has a fixed guaranteed pool and a configurable payout policy.
type Tournament struct {
	Header
	PoolAmount  decimal.Decimal
	Policy      PayoutPolicy
	WinnerCount int
}

func (t Tournament) Info() Header { return t.Header }

func (t Tournament) Terms(int) Terms {
	winners := t.WinnerCount
	if t.Policy == PolicyWinnerTakesAll {
		winners = 1
	}
	return Terms{
		PoolAmount:  t.PoolAmount,
		FeePct:      t.FeePct,
		Policy:      t.Policy,
		WinnerCount: winners,
	}
}

func (t Tournament) withHeader(h Header) Competition {
	t.Header = h
	return t
}

// WithStatus returns a copy of c with the new status applied.
func WithStatus(c Competition, status Status, at time.Time) Competition {
	h := c.Info()
	h.Status = status
	h.UpdatedAt = at
	if status == StatusFinished {
		settled := at
		h.SettledAt = &settled
	}
	return c.withHeader(h)
}

// Clone deep-copies slice fields so callers can mutate the result safely.
func Clone(c Competition) Competition {
	h := c.Info()
	h.FixtureIDs = slices.Clone(h.FixtureIDs)
	if h.SettledAt != nil {
		settled := *h.SettledAt
		h.SettledAt = &settled
	}
	return c.withHeader(h)
}

type PlayerRef struct {
	PlayerID  string
	FixtureID string
}

// Slot is one squad position: a main pick, a substitute and the star-rating
// multiplier applied to whichever of the two is scored.
type Slot struct {
	Main       PlayerRef
	Substitute PlayerRef
	StarRating decimal.Decimal
}

// Entry is a user's participation in a competition.
type Entry struct {
	ID            string
	CompetitionID string
	UserID        string
	Squad         []Slot
	Score         decimal.Decimal
	Rank          int
	IsWinner      bool
	Incomplete    bool
	Prize         decimal.Decimal
	JoinedAt      time.Time
	UpdatedAt     time.Time
}

func (e Entry) Clone() Entry {
	out := e
	out.Squad = slices.Clone(e.Squad)
	return out
}
