package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/extremevalue/research-kit/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS strategies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	state TEXT NOT NULL,
	definition_hash TEXT NOT NULL,
	lineage_root TEXT NOT NULL,
	edge_category TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_strategies_state ON strategies(state);
CREATE INDEX IF NOT EXISTS idx_strategies_lineage_root ON strategies(lineage_root);
CREATE INDEX IF NOT EXISTS idx_strategies_definition_hash ON strategies(definition_hash);

CREATE TABLE IF NOT EXISTS validations (
	strategy_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	verdict TEXT NOT NULL,
	adjusted_p_value REAL,
	PRIMARY KEY (strategy_id, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_validations_strategy ON validations(strategy_id);

CREATE TABLE IF NOT EXISTS learnings (
	id TEXT PRIMARY KEY,
	strategy_id TEXT NOT NULL,
	category TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learnings_strategy ON learnings(strategy_id);
`

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

func (s *Store) lineageRoot(strat domain.Strategy) string {
	if len(strat.Lineage.Parents) == 0 {
		return strat.ID
	}
	chain, err := s.ResolveLineage(strat.Lineage.Parents[0])
	if err != nil || len(chain) == 0 {
		return strat.ID
	}
	return chain[0]
}

func (s *Store) indexStrategy(strat domain.Strategy) error {
	_, err := s.db.Exec(`
		INSERT INTO strategies (id, name, state, definition_hash, lineage_root, edge_category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, state=excluded.state, definition_hash=excluded.definition_hash,
			lineage_root=excluded.lineage_root, edge_category=excluded.edge_category`,
		strat.ID, strat.Name, string(strat.State), strat.DefinitionHash,
		s.lineageRoot(strat), string(strat.Edge.Category), strat.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if err != nil {
		return fmt.Errorf("index strategy %s: %w", strat.ID, err)
	}
	return nil
}

func (s *Store) indexValidation(rec domain.ValidationRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO validations (strategy_id, timestamp, verdict, adjusted_p_value)
		VALUES (?, ?, ?, ?)`,
		rec.StrategyID, rec.Timestamp.Format("2006-01-02T15:04:05Z07:00"), string(rec.Verdict), rec.Significance.AdjustedPValue)
	if err != nil {
		return fmt.Errorf("index validation for %s: %w", rec.StrategyID, err)
	}
	return nil
}

func (s *Store) indexLearning(rec domain.LearningRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO learnings (id, strategy_id, category, created_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.StrategyID, string(rec.Category), rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if err != nil {
		return fmt.Errorf("index learning %s: %w", rec.ID, err)
	}
	return nil
}

// StrategySummary is a lightweight projection for list queries.
type StrategySummary struct {
	ID             string
	Name           string
	State          domain.StrategyState
	DefinitionHash string
}

// ListByState returns every strategy currently in the given state.
func (s *Store) ListByState(state domain.StrategyState) ([]StrategySummary, error) {
	rows, err := s.db.Query(`SELECT id, name, state, definition_hash FROM strategies WHERE state = ? ORDER BY id`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list by state %s: %w", state, err)
	}
	defer rows.Close()

	var out []StrategySummary
	for rows.Next() {
		var sm StrategySummary
		var state string
		if err := rows.Scan(&sm.ID, &sm.Name, &state, &sm.DefinitionHash); err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		sm.State = domain.StrategyState(state)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// FindByDefinitionHash returns every strategy id sharing the given
// definition hash, used by the similarity index (C2) for exact-duplicate
// detection before falling back to fuzzy comparison.
func (s *Store) FindByDefinitionHash(hash string) ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM strategies WHERE definition_hash = ?`, hash)
	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AllStrategies returns every indexed strategy summary, used by the
// similarity index to build its in-memory fingerprint set.
func (s *Store) AllStrategies() ([]StrategySummary, error) {
	rows, err := s.db.Query(`SELECT id, name, state, definition_hash FROM strategies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list all strategies: %w", err)
	}
	defer rows.Close()
	var out []StrategySummary
	for rows.Next() {
		var sm StrategySummary
		var state string
		if err := rows.Scan(&sm.ID, &sm.Name, &state, &sm.DefinitionHash); err != nil {
			return nil, err
		}
		sm.State = domain.StrategyState(state)
		out = append(out, sm)
	}
	return out, rows.Err()
}
