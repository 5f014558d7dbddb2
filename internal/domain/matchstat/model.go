package matchstat

import (
	"maps"
	"time"
)

// StatType names one recorded statistic column.
type StatType string

const (
	StatAppearance      StatType = "appearance"
	StatSixtyMinutes    StatType = "sixty_minutes"
	StatMinutesPlayed   StatType = "minutes_played"
	StatGoals           StatType = "goals"
	StatAssists         StatType = "assists"
	StatCleanSheet      StatType = "clean_sheet"
	StatGoalsConceded   StatType = "goals_conceded"
	StatSaves           StatType = "saves"
	StatPenaltiesSaved  StatType = "penalties_saved"
	StatPenaltiesMissed StatType = "penalties_missed"
	StatYellowCards     StatType = "yellow_cards"
	StatRedCards        StatType = "red_cards"
	StatOwnGoals        StatType = "own_goals"
)

// Position selects the points rule applied to a statistic.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

// Key identifies a statistic: one player in one fixture.
type Key struct {
	PlayerID  string
	FixtureID string
}

func (k Key) String() string {
	return k.PlayerID + "::" + k.FixtureID
}

// Statistic is one player's recorded performance in one fixture. It is
// frozen once Finalized is set.
type Statistic struct {
	PlayerID  string
	FixtureID string
	Position  Position
	Values    map[StatType]int64
	Finalized bool
	UpdatedAt time.Time
}

func (s Statistic) Key() Key {
	return Key{PlayerID: s.PlayerID, FixtureID: s.FixtureID}
}

func (s Statistic) Value(statType StatType) int64 {
	return s.Values[statType]
}

// Played reports whether the player's participation is recorded.
func (s Statistic) Played() bool {
	return s.Value(StatMinutesPlayed) > 0 || s.Value(StatAppearance) > 0
}

func (s Statistic) Clone() Statistic {
	out := s
	out.Values = maps.Clone(s.Values)
	return out
}

// Normalize derives the appearance and sixty-minute flags from minutes played
// so linear points rules can reward them.
func (s Statistic) Normalize() Statistic {
	out := s.Clone()
	if out.Values == nil {
		out.Values = make(map[StatType]int64)
	}
	minutes := out.Values[StatMinutesPlayed]
	delete(out.Values, StatAppearance)
	delete(out.Values, StatSixtyMinutes)
	if minutes > 0 {
		out.Values[StatAppearance] = 1
	}
	if minutes >= 60 {
		out.Values[StatSixtyMinutes] = 1
	}
	return out
}
