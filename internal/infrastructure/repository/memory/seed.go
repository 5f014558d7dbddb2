package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/shopspring/decimal"
)

const (
	FixtureIDPersijaPersib = "fx-persija-persib"
	FixtureIDBaliPersebaya = "fx-bali-persebaya"
	CompetitionIDDemoPeer  = "cmp-demo-peer"
	CompetitionIDDemoCup   = "cmp-demo-cup"
)

var seedKickoff = time.Date(2025, time.August, 16, 12, 0, 0, 0, time.UTC)

func SeedFixtures() []fixture.Fixture {
	return []fixture.Fixture{
		{ID: FixtureIDPersijaPersib, HomeTeam: "Persija Jakarta", AwayTeam: "Persib Bandung", KickoffAt: seedKickoff, Status: fixture.StatusScheduled},
		{ID: FixtureIDBaliPersebaya, HomeTeam: "Bali United", AwayTeam: "Persebaya Surabaya", KickoffAt: seedKickoff.Add(3 * time.Hour), Status: fixture.StatusScheduled},
	}
}

func SeedStatistics() []matchstat.Statistic {
	return []matchstat.Statistic{
		{PlayerID: "idn-gk-01", FixtureID: FixtureIDPersijaPersib, Position: matchstat.PositionGoalkeeper, Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: 90, matchstat.StatSaves: 4, matchstat.StatGoalsConceded: 1,
		}},
		{PlayerID: "idn-mid-02", FixtureID: FixtureIDPersijaPersib, Position: matchstat.PositionMidfielder, Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: 90, matchstat.StatGoals: 1, matchstat.StatAssists: 1,
		}},
		{PlayerID: "idn-fwd-01", FixtureID: FixtureIDPersijaPersib, Position: matchstat.PositionForward, Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: 75, matchstat.StatGoals: 2, matchstat.StatYellowCards: 1,
		}},
		{PlayerID: "idn-def-04", FixtureID: FixtureIDBaliPersebaya, Position: matchstat.PositionDefender, Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: 90, matchstat.StatCleanSheet: 1,
		}},
		{PlayerID: "idn-mid-04", FixtureID: FixtureIDBaliPersebaya, Position: matchstat.PositionMidfielder, Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: 0,
		}},
		{PlayerID: "idn-mid-03", FixtureID: FixtureIDBaliPersebaya, Position: matchstat.PositionMidfielder, Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: 64, matchstat.StatAssists: 1,
		}},
	}
}

func SeedCompetitions() []competition.Competition {
	fixtures := []string{FixtureIDPersijaPersib, FixtureIDBaliPersebaya}
	return []competition.Competition{
		competition.Peer{
			Header: competition.Header{
				ID:              CompetitionIDDemoPeer,
				Name:            "Derby Duel",
				Kind:            competition.KindPeer,
				Sport:           scoring.SportFootball,
				Status:          competition.StatusOpen,
				FixtureIDs:      fixtures,
				MinParticipants: 2,
				MaxParticipants: 2,
				FeePct:          decimal.NewFromInt(10),
				CreatedAt:       seedKickoff.Add(-72 * time.Hour),
				UpdatedAt:       seedKickoff.Add(-72 * time.Hour),
			},
			Stake: decimal.NewFromInt(2500),
		},
		competition.Tournament{
			Header: competition.Header{
				ID:              CompetitionIDDemoCup,
				Name:            "Weekend Cup",
				Kind:            competition.KindTournament,
				Sport:           scoring.SportFootball,
				Status:          competition.StatusOpen,
				FixtureIDs:      fixtures,
				MinParticipants: 2,
				MaxParticipants: 100,
				FeePct:          decimal.NewFromInt(5),
				CreatedAt:       seedKickoff.Add(-72 * time.Hour),
				UpdatedAt:       seedKickoff.Add(-72 * time.Hour),
			},
			PoolAmount:  decimal.NewFromInt(100000),
			Policy:      competition.PolicyDivideAmongParticipants,
			WinnerCount: 2,
		},
	}
}

func seedSquad(main, sub, fixtureID string, stars int64) competition.Slot {
	return competition.Slot{
		Main:       competition.PlayerRef{PlayerID: main, FixtureID: fixtureID},
		Substitute: competition.PlayerRef{PlayerID: sub, FixtureID: fixtureID},
		StarRating: decimal.NewFromInt(stars),
	}
}

func SeedEntries() []competition.Entry {
	joined := seedKickoff.Add(-48 * time.Hour)
	squadA := []competition.Slot{
		seedSquad("idn-fwd-01", "idn-gk-01", FixtureIDPersijaPersib, 2),
		seedSquad("idn-mid-04", "idn-mid-03", FixtureIDBaliPersebaya, 1),
	}
	squadB := []competition.Slot{
		seedSquad("idn-mid-02", "idn-gk-01", FixtureIDPersijaPersib, 3),
		seedSquad("idn-def-04", "idn-mid-03", FixtureIDBaliPersebaya, 1),
	}

	out := make([]competition.Entry, 0, 4)
	for _, competitionID := range []string{CompetitionIDDemoPeer, CompetitionIDDemoCup} {
		out = append(out,
			competition.Entry{ID: competitionID + "-e1", CompetitionID: competitionID, UserID: "user-andi", Squad: squadA, JoinedAt: joined, UpdatedAt: joined},
			competition.Entry{ID: competitionID + "-e2", CompetitionID: competitionID, UserID: "user-budi", Squad: squadB, JoinedAt: joined.Add(time.Minute), UpdatedAt: joined.Add(time.Minute)},
		)
	}
	return out
}

// Seed loads the demo dataset into the given repositories.
func Seed(ctx context.Context, competitions *CompetitionRepository, fixtures *FixtureRepository, stats *MatchStatRepository) error {
	if err := fixtures.Upsert(ctx, SeedFixtures()); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}
	seeded := SeedStatistics()
	for idx := range seeded {
		seeded[idx] = seeded[idx].Normalize()
	}
	if _, err := stats.Upsert(ctx, seeded); err != nil {
		return fmt.Errorf("seed statistics: %w", err)
	}
	for _, item := range SeedCompetitions() {
		if err := competitions.Create(ctx, item); err != nil {
			return fmt.Errorf("seed competition %s: %w", item.Info().ID, err)
		}
	}
	for _, entry := range SeedEntries() {
		if err := competitions.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("seed entry %s: %w", entry.ID, err)
		}
	}
	return nil
}
