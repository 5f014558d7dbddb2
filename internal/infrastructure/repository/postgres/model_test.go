package postgres

import (
	"testing"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
)

func TestSquadJSONKeepsStarRatingPrecision(t *testing.T) {
	t.Parallel()

	squad := []competition.Slot{{
		Main:       competition.PlayerRef{PlayerID: "idn-fwd-01", FixtureID: "fx-1"},
		Substitute: competition.PlayerRef{PlayerID: "idn-mid-03", FixtureID: "fx-2"},
		StarRating: decimal.RequireFromString("1.5"),
	}}

	raw, err := encodeSquad(squad)
	if err != nil {
		t.Fatalf("encode squad: %v", err)
	}
	decoded, err := decodeSquad([]byte(raw))
	if err != nil {
		t.Fatalf("decode squad: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one slot, got %d", len(decoded))
	}
	if decoded[0].Main != squad[0].Main || decoded[0].Substitute != squad[0].Substitute {
		t.Fatalf("player refs changed: %+v", decoded[0])
	}
	if !decoded[0].StarRating.Equal(squad[0].StarRating) {
		t.Fatalf("star rating changed: %s", decoded[0].StarRating)
	}
}

func TestDecodeSquadRejectsBadStarRating(t *testing.T) {
	t.Parallel()

	if _, err := decodeSquad([]byte(`[{"main_player_id":"p-1","star_rating":"lots"}]`)); err == nil {
		t.Fatalf("expected star rating error")
	}
}

func TestCompetitionRowRoundTripsKind(t *testing.T) {
	t.Parallel()

	for _, item := range memory.SeedCompetitions() {
		insert := competitionInsertModelFrom(item)
		row := competitionTableModel{
			PublicID:        insert.PublicID,
			Name:            insert.Name,
			Kind:            insert.Kind,
			Sport:           insert.Sport,
			Status:          insert.Status,
			FixtureIDs:      insert.FixtureIDs,
			MinParticipants: insert.MinParticipants,
			MaxParticipants: insert.MaxParticipants,
			FeePct:          insert.FeePct,
			Stake:           insert.Stake,
			PoolAmount:      insert.PoolAmount,
			PayoutPolicy:    insert.PayoutPolicy,
			WinnerCount:     insert.WinnerCount,
			CreatedAt:       insert.CreatedAt,
			UpdatedAt:       insert.UpdatedAt,
		}

		got, err := row.toDomain()
		if err != nil {
			t.Fatalf("decode competition %s: %v", insert.PublicID, err)
		}
		if got.Info().Kind != item.Info().Kind {
			t.Fatalf("kind mismatch for %s: got %s want %s", insert.PublicID, got.Info().Kind, item.Info().Kind)
		}
		if !got.Terms(2).PoolAmount.Equal(item.Terms(2).PoolAmount) {
			t.Fatalf("prize pool mismatch for %s: got %s want %s", insert.PublicID, got.Terms(2).PoolAmount, item.Terms(2).PoolAmount)
		}
	}

	if _, err := (competitionTableModel{PublicID: "cmp-x", Kind: "lottery"}).toDomain(); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestRuleSetModelsFlattenDefaultAndPositions(t *testing.T) {
	t.Parallel()

	rs := scoring.RuleSet{
		Sport: scoring.SportFootball,
		Default: scoring.Rule{Points: map[matchstat.StatType]decimal.Decimal{
			matchstat.StatGoals: decimal.NewFromInt(6),
		}},
		ByPosition: map[matchstat.Position]scoring.Rule{
			matchstat.PositionForward: {Points: map[matchstat.StatType]decimal.Decimal{
				matchstat.StatGoals:   decimal.NewFromInt(4),
				matchstat.StatAssists: decimal.NewFromInt(3),
			}},
		},
	}

	models := ruleSetModels(rs)
	if len(models) != 3 {
		t.Fatalf("expected 3 rule rows, got %d", len(models))
	}
	first := models[0].(pointsRuleModel)
	if first.Position != "" || first.StatType != string(matchstat.StatGoals) {
		t.Fatalf("default rule should come first: %+v", first)
	}
	last := models[2].(pointsRuleModel)
	if last.Position != string(matchstat.PositionForward) || !last.Points.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("unexpected forward goal rule: %+v", last)
	}
}
