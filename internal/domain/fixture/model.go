package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Fixture is one match whose player statistics feed competitions.
type Fixture struct {
	ID         string
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Status     string
	FinishedAt *time.Time
	UpdatedAt  time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "IN_PLAY", "HT", "1H", "2H", "ET":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}

// IsTerminalStatus reports whether no more statistics will arrive for the fixture.
func IsTerminalStatus(status string) bool {
	return IsFinishedStatus(status) || IsCancelledLikeStatus(status)
}

// AllTerminal reports whether every listed fixture is terminal. Missing
// fixtures count as not terminal.
func AllTerminal(ids []string, fixtures []Fixture) bool {
	byID := make(map[string]Fixture, len(fixtures))
	for _, item := range fixtures {
		byID[item.ID] = item
	}
	for _, id := range ids {
		item, ok := byID[id]
		if !ok || !IsTerminalStatus(item.Status) {
			return false
		}
	}
	return true
}
