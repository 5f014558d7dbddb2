package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-contest/internal/platform/id"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type SlotInput struct {
	MainPlayerID        string          `json:"main_player_id" validate:"required"`
	MainFixtureID       string          `json:"main_fixture_id" validate:"required"`
	SubstitutePlayerID  string          `json:"substitute_player_id" validate:"required,nefield=MainPlayerID"`
	SubstituteFixtureID string          `json:"substitute_fixture_id" validate:"required"`
	StarRating          decimal.Decimal `json:"star_rating" validate:"gt=0,lte=5"`
}

type JoinInput struct {
	CompetitionID string      `json:"competition_id" validate:"required"`
	UserID        string      `json:"user_id" validate:"required"`
	Squad         []SlotInput `json:"squad" validate:"required,min=1,dive"`
}

type UpdateSquadInput = JoinInput

type SettlementView struct {
	Competition competition.Competition
	Entries     []competition.Entry
}

type CompetitionService struct {
	competitionRepo competition.Repository
	fixtureRepo     fixture.Repository
	ids             id.Generator
	validate        *validator.Validate
	logger          *logging.Logger
	now             func() time.Time
}

func NewCompetitionService(
	competitionRepo competition.Repository,
	fixtureRepo fixture.Repository,
	ids id.Generator,
	logger *logging.Logger,
) *CompetitionService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &CompetitionService{
		competitionRepo: competitionRepo,
		fixtureRepo:     fixtureRepo,
		ids:             ids,
		validate:        newValidator(),
		logger:          logger,
		now:             time.Now,
	}
}

func (s *CompetitionService) Join(ctx context.Context, input JoinInput) (competition.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Join",
		attribute.String("competition.id", input.CompetitionID),
	)
	defer span.End()

	comp, squad, err := s.prepareSquad(ctx, input)
	if err != nil {
		return competition.Entry{}, err
	}

	entryID, err := s.ids.NewID()
	if err != nil {
		return competition.Entry{}, fmt.Errorf("generate entry id: %w", err)
	}

	now := s.now().UTC()
	entry := competition.Entry{
		ID:            entryID,
		CompetitionID: comp.Info().ID,
		UserID:        strings.TrimSpace(input.UserID),
		Squad:         squad,
		Score:         decimal.Zero,
		Prize:         decimal.Zero,
		JoinedAt:      now,
		UpdatedAt:     now,
	}

	if err := s.competitionRepo.CreateEntry(ctx, entry); err != nil {
		if mapped := mapEntryError(err); mapped != nil {
			return competition.Entry{}, mapped
		}
		return competition.Entry{}, fmt.Errorf("create competition entry: %w", err)
	}

	s.logger.InfoContext(ctx, "competition joined",
		"competition_id", entry.CompetitionID,
		"entry_id", entry.ID,
		"user_id", entry.UserID,
	)
	return entry, nil
}

func (s *CompetitionService) UpdateSquad(ctx context.Context, input UpdateSquadInput) (competition.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.UpdateSquad",
		attribute.String("competition.id", input.CompetitionID),
	)
	defer span.End()

	comp, squad, err := s.prepareSquad(ctx, input)
	if err != nil {
		return competition.Entry{}, err
	}

	entry, exists, err := s.competitionRepo.GetEntryByUser(ctx, comp.Info().ID, strings.TrimSpace(input.UserID))
	if err != nil {
		return competition.Entry{}, fmt.Errorf("get entry by user: %w", err)
	}
	if !exists {
		return competition.Entry{}, fmt.Errorf("%w: no entry for user=%s in competition=%s", ErrNotFound, input.UserID, input.CompetitionID)
	}

	now := s.now().UTC()
	if err := s.competitionRepo.UpdateSquad(ctx, entry.CompetitionID, entry.ID, squad, now); err != nil {
		if mapped := mapEntryError(err); mapped != nil {
			return competition.Entry{}, mapped
		}
		return competition.Entry{}, fmt.Errorf("update squad: %w", err)
	}

	entry.Squad = squad
	entry.UpdatedAt = now
	return entry, nil
}

// LockCompetition is the admin open -> locked action. Locking an already
// locked competition is a no-op.
func (s *CompetitionService) LockCompetition(ctx context.Context, competitionID string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.LockCompetition",
		attribute.String("competition.id", competitionID),
	)
	defer span.End()

	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	switch status := comp.Info().Status; status {
	case competition.StatusLocked:
		return comp, nil
	case competition.StatusOpen:
	default:
		return nil, competition.ValidateTransition(status, competition.StatusLocked)
	}

	now := s.now().UTC()
	swapped, err := s.competitionRepo.TransitionStatus(ctx, comp.Info().ID, competition.StatusOpen, competition.StatusLocked, now)
	if err != nil {
		return nil, fmt.Errorf("lock competition: %w", err)
	}
	if !swapped {
		// Someone else moved it first; report what is stored now.
		return s.getCompetition(ctx, competitionID)
	}

	s.logger.InfoContext(ctx, "competition locked by admin", "competition_id", comp.Info().ID)
	return competition.WithStatus(comp, competition.StatusLocked, now), nil
}

// CloseMatchWindow locks an open competition once all its fixtures are
// terminal. It reports whether the competition is locked afterwards.
func (s *CompetitionService) CloseMatchWindow(ctx context.Context, comp competition.Competition) (bool, error) {
	info := comp.Info()
	if info.Status != competition.StatusOpen {
		return info.Status == competition.StatusLocked, nil
	}

	fixtures, err := s.fixtureRepo.ListByIDs(ctx, info.FixtureIDs)
	if err != nil {
		return false, fmt.Errorf("list fixtures for competition=%s: %w", info.ID, err)
	}
	if len(info.FixtureIDs) == 0 || !fixture.AllTerminal(info.FixtureIDs, fixtures) {
		return false, nil
	}

	if _, err := s.competitionRepo.TransitionStatus(ctx, info.ID, competition.StatusOpen, competition.StatusLocked, s.now().UTC()); err != nil {
		return false, fmt.Errorf("lock competition=%s after match window: %w", info.ID, err)
	}

	current, err := s.getCompetition(ctx, info.ID)
	if err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "match window closed", "competition_id", info.ID, "status", current.Info().Status)
	return current.Info().Status != competition.StatusOpen, nil
}

func (s *CompetitionService) GetSettlementView(ctx context.Context, competitionID string) (SettlementView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.GetSettlementView",
		attribute.String("competition.id", competitionID),
	)
	defer span.End()

	comp, err := s.getCompetition(ctx, competitionID)
	if err != nil {
		return SettlementView{}, err
	}
	entries, err := s.competitionRepo.ListEntries(ctx, comp.Info().ID)
	if err != nil {
		return SettlementView{}, fmt.Errorf("list entries for settlement view: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		left, right := entries[i], entries[j]
		if left.Rank != right.Rank {
			if left.Rank == 0 || right.Rank == 0 {
				return right.Rank == 0
			}
			return left.Rank < right.Rank
		}
		return left.ID < right.ID
	})

	return SettlementView{Competition: comp, Entries: entries}, nil
}

func (s *CompetitionService) getCompetition(ctx context.Context, competitionID string) (competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}
	return comp, nil
}

func (s *CompetitionService) prepareSquad(ctx context.Context, input JoinInput) (competition.Competition, []competition.Slot, error) {
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	comp, err := s.getCompetition(ctx, input.CompetitionID)
	if err != nil {
		return nil, nil, err
	}
	if !comp.Info().Status.AcceptsEntries() {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, competition.ErrNotOpen)
	}

	fixtures := make(map[string]struct{}, len(comp.Info().FixtureIDs))
	for _, fixtureID := range comp.Info().FixtureIDs {
		fixtures[fixtureID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(input.Squad)*2)
	squad := make([]competition.Slot, 0, len(input.Squad))
	for idx, slot := range input.Squad {
		for _, ref := range []competition.PlayerRef{
			{PlayerID: slot.MainPlayerID, FixtureID: slot.MainFixtureID},
			{PlayerID: slot.SubstitutePlayerID, FixtureID: slot.SubstituteFixtureID},
		} {
			if _, ok := fixtures[ref.FixtureID]; !ok {
				return nil, nil, fmt.Errorf("%w: slot %d fixture=%s is not part of the competition", ErrInvalidInput, idx, ref.FixtureID)
			}
			if _, dup := seen[ref.PlayerID]; dup {
				return nil, nil, fmt.Errorf("%w: player=%s appears more than once", ErrInvalidInput, ref.PlayerID)
			}
			seen[ref.PlayerID] = struct{}{}
		}

		squad = append(squad, competition.Slot{
			Main:       competition.PlayerRef{PlayerID: slot.MainPlayerID, FixtureID: slot.MainFixtureID},
			Substitute: competition.PlayerRef{PlayerID: slot.SubstitutePlayerID, FixtureID: slot.SubstituteFixtureID},
			StarRating: slot.StarRating,
		})
	}

	return comp, squad, nil
}

func mapEntryError(err error) error {
	switch {
	case errors.Is(err, competition.ErrNotOpen),
		errors.Is(err, competition.ErrFull),
		errors.Is(err, competition.ErrEntryExists):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return nil
	}
}
