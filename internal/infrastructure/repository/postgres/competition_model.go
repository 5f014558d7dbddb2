package postgres

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/shopspring/decimal"
)

type competitionTableModel struct {
	ID              int64           `db:"id"`
	PublicID        string          `db:"public_id"`
	Name            string          `db:"name"`
	Kind            string          `db:"kind"`
	Sport           string          `db:"sport"`
	Status          string          `db:"status"`
	FixtureIDs      pq.StringArray  `db:"fixture_ids"`
	MinParticipants int             `db:"min_participants"`
	MaxParticipants int             `db:"max_participants"`
	FeePct          decimal.Decimal `db:"fee_pct"`
	Stake           decimal.Decimal `db:"stake"`
	PoolAmount      decimal.Decimal `db:"pool_amount"`
	PayoutPolicy    string          `db:"payout_policy"`
	WinnerCount     int             `db:"winner_count"`
	SettledAt       *time.Time      `db:"settled_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type competitionInsertModel struct {
	PublicID        string          `db:"public_id"`
	Name            string          `db:"name"`
	Kind            string          `db:"kind"`
	Sport           string          `db:"sport"`
	Status          string          `db:"status"`
	FixtureIDs      pq.StringArray  `db:"fixture_ids"`
	MinParticipants int             `db:"min_participants"`
	MaxParticipants int             `db:"max_participants"`
	FeePct          decimal.Decimal `db:"fee_pct"`
	Stake           decimal.Decimal `db:"stake"`
	PoolAmount      decimal.Decimal `db:"pool_amount"`
	PayoutPolicy    string          `db:"payout_policy"`
	WinnerCount     int             `db:"winner_count"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (m competitionTableModel) toDomain() (competition.Competition, error) {
	header := competition.Header{
		ID:              m.PublicID,
		Name:            m.Name,
		Kind:            competition.Kind(m.Kind),
		Sport:           m.Sport,
		Status:          competition.Status(m.Status),
		FixtureIDs:      []string(m.FixtureIDs),
		MinParticipants: m.MinParticipants,
		MaxParticipants: m.MaxParticipants,
		FeePct:          m.FeePct,
		SettledAt:       m.SettledAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	switch header.Kind {
	case competition.KindPeer:
		return competition.Peer{Header: header, Stake: m.Stake}, nil
	case competition.KindTournament:
		return competition.Tournament{
			Header:      header,
			PoolAmount:  m.PoolAmount,
			Policy:      competition.PayoutPolicy(m.PayoutPolicy),
			WinnerCount: m.WinnerCount,
		}, nil
	default:
		return nil, fmt.Errorf("competition %s has unknown kind %q", m.PublicID, m.Kind)
	}
}

func competitionInsertModelFrom(c competition.Competition) competitionInsertModel {
	info := c.Info()
	out := competitionInsertModel{
		PublicID:        info.ID,
		Name:            info.Name,
		Kind:            string(info.Kind),
		Sport:           info.Sport,
		Status:          string(info.Status),
		FixtureIDs:      pq.StringArray(info.FixtureIDs),
		MinParticipants: info.MinParticipants,
		MaxParticipants: info.MaxParticipants,
		FeePct:          info.FeePct,
		Stake:           decimal.Zero,
		PoolAmount:      decimal.Zero,
		PayoutPolicy:    string(competition.PolicyWinnerTakesAll),
		WinnerCount:     1,
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
	}
	if out.FixtureIDs == nil {
		out.FixtureIDs = pq.StringArray{}
	}

	switch item := c.(type) {
	case competition.Peer:
		out.Kind = string(competition.KindPeer)
		out.Stake = item.Stake
	case competition.Tournament:
		out.Kind = string(competition.KindTournament)
		out.PoolAmount = item.PoolAmount
		out.PayoutPolicy = string(item.Policy)
		out.WinnerCount = item.WinnerCount
	}
	return out
}

type entryTableModel struct {
	ID            int64           `db:"id"`
	PublicID      string          `db:"public_id"`
	CompetitionID string          `db:"competition_public_id"`
	UserID        string          `db:"user_id"`
	Squad         []byte          `db:"squad"`
	Score         decimal.Decimal `db:"score"`
	Rank          int             `db:"rank"`
	IsWinner      bool            `db:"is_winner"`
	Incomplete    bool            `db:"incomplete"`
	Prize         decimal.Decimal `db:"prize"`
	JoinedAt      time.Time       `db:"joined_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type entryInsertModel struct {
	PublicID      string          `db:"public_id"`
	CompetitionID string          `db:"competition_public_id"`
	UserID        string          `db:"user_id"`
	Squad         string          `db:"squad"`
	Score         decimal.Decimal `db:"score"`
	Prize         decimal.Decimal `db:"prize"`
	JoinedAt      time.Time       `db:"joined_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// slotJSON is the stored shape of one squad slot.
type slotJSON struct {
	MainPlayerID        string `json:"main_player_id"`
	MainFixtureID       string `json:"main_fixture_id"`
	SubstitutePlayerID  string `json:"substitute_player_id"`
	SubstituteFixtureID string `json:"substitute_fixture_id"`
	StarRating          string `json:"star_rating"`
}

func encodeSquad(squad []competition.Slot) (string, error) {
	rows := make([]slotJSON, 0, len(squad))
	for _, slot := range squad {
		rows = append(rows, slotJSON{
			MainPlayerID:        slot.Main.PlayerID,
			MainFixtureID:       slot.Main.FixtureID,
			SubstitutePlayerID:  slot.Substitute.PlayerID,
			SubstituteFixtureID: slot.Substitute.FixtureID,
			StarRating:          slot.StarRating.String(),
		})
	}
	return marshalJSON(rows)
}

func decodeSquad(raw []byte) ([]competition.Slot, error) {
	var rows []slotJSON
	if err := unmarshalJSON(raw, &rows); err != nil {
		return nil, err
	}

	out := make([]competition.Slot, 0, len(rows))
	for idx, row := range rows {
		stars, err := decimal.NewFromString(row.StarRating)
		if err != nil {
			return nil, fmt.Errorf("slot %d star rating: %w", idx, err)
		}
		out = append(out, competition.Slot{
			Main:       competition.PlayerRef{PlayerID: row.MainPlayerID, FixtureID: row.MainFixtureID},
			Substitute: competition.PlayerRef{PlayerID: row.SubstitutePlayerID, FixtureID: row.SubstituteFixtureID},
			StarRating: stars,
		})
	}
	return out, nil
}

func (m entryTableModel) toDomain() (competition.Entry, error) {
	squad, err := decodeSquad(m.Squad)
	if err != nil {
		return competition.Entry{}, fmt.Errorf("decode squad of entry %s: %w", m.PublicID, err)
	}
	return competition.Entry{
		ID:            m.PublicID,
		CompetitionID: m.CompetitionID,
		UserID:        m.UserID,
		Squad:         squad,
		Score:         m.Score,
		Rank:          m.Rank,
		IsWinner:      m.IsWinner,
		Incomplete:    m.Incomplete,
		Prize:         m.Prize,
		JoinedAt:      m.JoinedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}
