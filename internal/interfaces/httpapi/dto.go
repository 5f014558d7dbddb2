package httpapi

import (
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

type slotDTO struct {
	MainPlayerID        string `json:"main_player_id"`
	MainFixtureID       string `json:"main_fixture_id"`
	SubstitutePlayerID  string `json:"substitute_player_id"`
	SubstituteFixtureID string `json:"substitute_fixture_id"`
	StarRating          string `json:"star_rating"`
}

type entryDTO struct {
	ID            string    `json:"id"`
	CompetitionID string    `json:"competition_id"`
	UserID        string    `json:"user_id"`
	Squad         []slotDTO `json:"squad,omitempty"`
	Score         string    `json:"score"`
	Rank          int       `json:"rank"`
	IsWinner      bool      `json:"is_winner"`
	Incomplete    bool      `json:"incomplete"`
	Prize         string    `json:"prize"`
	JoinedAt      string    `json:"joined_at"`
}

type competitionDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Kind            string   `json:"kind"`
	Sport           string   `json:"sport"`
	Status          string   `json:"status"`
	FixtureIDs      []string `json:"fixture_ids"`
	MinParticipants int      `json:"min_participants"`
	MaxParticipants int      `json:"max_participants"`
	FeePct          string   `json:"fee_pct"`
	Stake           string   `json:"stake,omitempty"`
	PoolAmount      string   `json:"pool_amount"`
	PayoutPolicy    string   `json:"payout_policy"`
	WinnerCount     int      `json:"winner_count"`
	SettledAt       string   `json:"settled_at,omitempty"`
}

type settlementViewDTO struct {
	Competition competitionDTO `json:"competition"`
	Entries     []entryDTO     `json:"entries"`
}

type settlementResultDTO struct {
	CompetitionID     string   `json:"competition_id"`
	RunID             string   `json:"run_id"`
	Outcome           string   `json:"outcome"`
	Reason            string   `json:"reason,omitempty"`
	Participants      int      `json:"participants"`
	Winners           int      `json:"winners"`
	IncompleteEntries []string `json:"incomplete_entries,omitempty"`
	Distributed       string   `json:"distributed"`
	SettledAt         string   `json:"settled_at,omitempty"`
}

type creditDTO struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	CreatedAt string `json:"created_at"`
}

type walletDTO struct {
	UserID  string      `json:"user_id"`
	Balance string      `json:"balance"`
	Credits []creditDTO `json:"credits"`
}

type dispatchEventDTO struct {
	DispatchID   string `json:"dispatch_id"`
	JobName      string `json:"job_name"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	OccurredAt   string `json:"occurred_at"`
	TraceID      string `json:"trace_id,omitempty"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}

func competitionToDTO(c competition.Competition, participants int) competitionDTO {
	info := c.Info()
	terms := c.Terms(participants)
	out := competitionDTO{
		ID:              info.ID,
		Name:            info.Name,
		Kind:            string(info.Kind),
		Sport:           info.Sport,
		Status:          string(info.Status),
		FixtureIDs:      append([]string{}, info.FixtureIDs...),
		MinParticipants: info.MinParticipants,
		MaxParticipants: info.MaxParticipants,
		FeePct:          info.FeePct.String(),
		PoolAmount:      terms.PoolAmount.String(),
		PayoutPolicy:    string(terms.Policy),
		WinnerCount:     terms.WinnerCount,
		SettledAt:       formatOptionalTime(info.SettledAt),
	}
	if peer, ok := c.(competition.Peer); ok {
		out.Stake = peer.Stake.String()
	}
	return out
}

func entryToDTO(e competition.Entry, withSquad bool) entryDTO {
	out := entryDTO{
		ID:            e.ID,
		CompetitionID: e.CompetitionID,
		UserID:        e.UserID,
		Score:         e.Score.String(),
		Rank:          e.Rank,
		IsWinner:      e.IsWinner,
		Incomplete:    e.Incomplete,
		Prize:         e.Prize.String(),
		JoinedAt:      formatTime(e.JoinedAt),
	}
	if withSquad {
		out.Squad = make([]slotDTO, 0, len(e.Squad))
		for _, slot := range e.Squad {
			out.Squad = append(out.Squad, slotDTO{
				MainPlayerID:        slot.Main.PlayerID,
				MainFixtureID:       slot.Main.FixtureID,
				SubstitutePlayerID:  slot.Substitute.PlayerID,
				SubstituteFixtureID: slot.Substitute.FixtureID,
				StarRating:          slot.StarRating.String(),
			})
		}
	}
	return out
}

func settlementViewToDTO(v usecase.SettlementView) settlementViewDTO {
	entries := make([]entryDTO, 0, len(v.Entries))
	for _, entry := range v.Entries {
		entries = append(entries, entryToDTO(entry, false))
	}
	return settlementViewDTO{
		Competition: competitionToDTO(v.Competition, len(v.Entries)),
		Entries:     entries,
	}
}

func settlementResultToDTO(r settlement.Result) settlementResultDTO {
	return settlementResultDTO{
		CompetitionID:     r.CompetitionID,
		RunID:             r.RunID,
		Outcome:           string(r.Outcome),
		Reason:            r.Reason,
		Participants:      r.Participants,
		Winners:           r.Winners,
		IncompleteEntries: r.IncompleteEntries,
		Distributed:       r.Distributed.String(),
		SettledAt:         formatOptionalTime(r.SettledAt),
	}
}

func walletToDTO(s usecase.WalletStatement) walletDTO {
	credits := make([]creditDTO, 0, len(s.Credits))
	for _, credit := range s.Credits {
		credits = append(credits, creditToDTO(credit))
	}
	return walletDTO{
		UserID:  s.Wallet.UserID,
		Balance: s.Wallet.Balance.String(),
		Credits: credits,
	}
}

func creditToDTO(c wallet.Credit) creditDTO {
	return creditDTO{
		ID:        c.ID,
		Amount:    c.Amount.String(),
		Reason:    c.Reason,
		Reference: c.Reference,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func dispatchEventToDTO(e jobscheduler.DispatchEvent) dispatchEventDTO {
	return dispatchEventDTO{
		DispatchID:   e.DispatchID,
		JobName:      e.JobName,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		OccurredAt:   formatTime(e.OccurredAt),
		TraceID:      e.TraceID,
	}
}
