package usecase

import (
	"sort"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
)

// CompetitionRanker assigns standard competition ranks ("1224"): tied scores
// share a rank and the next distinct score skips by the size of the tie.
type CompetitionRanker struct{}

func NewCompetitionRanker() *CompetitionRanker {
	return &CompetitionRanker{}
}

// Rank returns a ranked copy of entries ordered by score descending. Ties are
// listed by join time, then entry ID, for a stable display order.
func (r *CompetitionRanker) Rank(entries []competition.Entry, winnerCount int) []competition.Entry {
	if winnerCount < 1 {
		winnerCount = 1
	}

	ranked := make([]competition.Entry, len(entries))
	for i := range entries {
		ranked[i] = entries[i].Clone()
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		left, right := ranked[i], ranked[j]
		if cmp := left.Score.Cmp(right.Score); cmp != 0 {
			return cmp > 0
		}
		if !left.JoinedAt.Equal(right.JoinedAt) {
			return left.JoinedAt.Before(right.JoinedAt)
		}
		return left.ID < right.ID
	})

	rank := 0
	for idx := range ranked {
		if idx == 0 || !ranked[idx].Score.Equal(ranked[idx-1].Score) {
			rank = idx + 1
		}
		ranked[idx].Rank = rank
		ranked[idx].IsWinner = rank <= winnerCount
	}

	return ranked
}
