package postgres

import (
	"context"
	"fmt"
	"sort"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

// pointsRuleModel is one (sport, position, stat type) weight. An empty
// position holds the sport's default rule.
type pointsRuleModel struct {
	Sport    string          `db:"sport"`
	Position string          `db:"position"`
	StatType string          `db:"stat_type"`
	Points   decimal.Decimal `db:"points"`
}

type RulesRepository struct {
	db *sqlx.DB
}

func NewRulesRepository(db *sqlx.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

func (r *RulesRepository) GetRuleSet(ctx context.Context, sport string) (scoring.RuleSet, bool, error) {
	query, args, err := qb.Select("sport", "position", "stat_type", "points").
		From("points_rules").
		Where(qb.Eq("sport", sport)).
		ToSQL()
	if err != nil {
		return scoring.RuleSet{}, false, fmt.Errorf("build select points rules query: %w", err)
	}

	var rows []pointsRuleModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return scoring.RuleSet{}, false, crerr.Wrapf(err, "select points rules sport=%s", sport)
	}
	if len(rows) == 0 {
		return scoring.RuleSet{}, false, nil
	}

	out := scoring.RuleSet{
		Sport:      sport,
		Default:    scoring.Rule{Points: make(map[matchstat.StatType]decimal.Decimal)},
		ByPosition: make(map[matchstat.Position]scoring.Rule),
	}
	for _, row := range rows {
		statType := matchstat.StatType(row.StatType)
		if row.Position == "" {
			out.Default.Points[statType] = row.Points
			continue
		}
		position := matchstat.Position(row.Position)
		rule, ok := out.ByPosition[position]
		if !ok {
			rule = scoring.Rule{Points: make(map[matchstat.StatType]decimal.Decimal)}
			out.ByPosition[position] = rule
		}
		rule.Points[statType] = row.Points
	}
	return out, true, nil
}

// SaveRuleSet replaces the stored rules of rs.Sport.
func (r *RulesRepository) SaveRuleSet(ctx context.Context, rs scoring.RuleSet) error {
	models := ruleSetModels(rs)
	if len(models) == 0 {
		return fmt.Errorf("rule set %s has no rules", rs.Sport)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for save rule set: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM points_rules WHERE sport = $1`, rs.Sport); err != nil {
		return crerr.Wrapf(err, "clear points rules sport=%s", rs.Sport)
	}
	query, args, err := qb.InsertModels("points_rules", models, "")
	if err != nil {
		return fmt.Errorf("build insert points rules query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "insert points rules sport=%s", rs.Sport)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save rule set tx: %w", err)
	}
	return nil
}

func ruleSetModels(rs scoring.RuleSet) []any {
	out := make([]any, 0)
	appendRule := func(position string, rule scoring.Rule) {
		statTypes := make([]string, 0, len(rule.Points))
		for statType := range rule.Points {
			statTypes = append(statTypes, string(statType))
		}
		sort.Strings(statTypes)
		for _, statType := range statTypes {
			out = append(out, pointsRuleModel{
				Sport:    rs.Sport,
				Position: position,
				StatType: statType,
				Points:   rule.Points[matchstat.StatType(statType)],
			})
		}
	}

	appendRule("", rs.Default)
	positions := make([]string, 0, len(rs.ByPosition))
	for position := range rs.ByPosition {
		positions = append(positions, string(position))
	}
	sort.Strings(positions)
	for _, position := range positions {
		appendRule(position, rs.ByPosition[matchstat.Position(position)])
	}
	return out
}
