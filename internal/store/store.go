// Package store implements the Record Store (C1): file-addressed YAML
// persistence for every record type plus a SQLite query index kept in
// sync on every write.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/pipeline"
	"github.com/extremevalue/research-kit/internal/reliability"
)

// Store is the Record Store. One Store per workspace; safe for concurrent
// use, serialized internally by SQLite's own locking plus per-record file
// replace-by-rename.
type Store struct {
	root       string
	db         *sql.DB
	log        zerolog.Logger
	replicator *reliability.Replicator
}

// SetReplicator attaches an off-site replication target. Validation
// records are shipped there after the local write succeeds; a nil
// replicator (the default) disables replication entirely.
func (s *Store) SetReplicator(r *reliability.Replicator) {
	s.replicator = r
}

// Open initializes (or reopens) the record store rooted at workspaceDir,
// creating the directory layout and query index if absent.
func Open(workspaceDir string, log zerolog.Logger) (*Store, error) {
	dirs := []string{
		"strategies",
		"validations",
		"learnings",
		"ideas",
		"proposals",
		"state",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(workspaceDir, d), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	for _, state := range allStrategyStateDirs() {
		if err := os.MkdirAll(filepath.Join(workspaceDir, "strategies", state), 0o755); err != nil {
			return nil, fmt.Errorf("create strategies/%s: %w", state, err)
		}
	}

	dbPath := filepath.Join(workspaceDir, "state", "index.sqlite")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{root: workspaceDir, db: db, log: log.With().Str("component", "store").Logger()}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error { return s.db.Close() }

func allStrategyStateDirs() []string {
	return []string{
		string(domain.StatePending), string(domain.StateVerifying), string(domain.StateBlocked),
		string(domain.StateReadyToGenerate), string(domain.StateGenerating), string(domain.StateGenFailed),
		string(domain.StateNeedsReview), string(domain.StateReadyToExecute), string(domain.StateExecuting),
		string(domain.StateAnalyzing), string(domain.StateValidated), string(domain.StateConditional),
		string(domain.StateInvalidated), string(domain.StateArchived), string(domain.StateRejected),
		string(domain.StateError),
	}
}

func (s *Store) strategyPath(id string, state domain.StrategyState) string {
	return filepath.Join(s.root, "strategies", string(state), id+".yaml")
}

// CreateStrategy persists a brand-new strategy record in PENDING state.
// Fails with pipeline.KindConflict if the id already exists anywhere in
// the state tree.
func (s *Store) CreateStrategy(strat domain.Strategy) error {
	if existing, _ := s.findStrategyPath(strat.ID); existing != "" {
		return pipeline.Wrap("store", pipeline.KindConflict, fmt.Errorf("strategy %s already exists", strat.ID))
	}
	strat.State = domain.StatePending
	if err := s.writeStrategyFile(strat); err != nil {
		return err
	}
	return s.indexStrategy(strat)
}

// GetStrategy loads a strategy record by ID, searching across state
// directories since the record's file lives under its current state.
func (s *Store) GetStrategy(id string) (domain.Strategy, error) {
	path, err := s.findStrategyPath(id)
	if err != nil {
		return domain.Strategy{}, err
	}
	return readStrategyFile(path)
}

func (s *Store) findStrategyPath(id string) (string, error) {
	row := s.db.QueryRow(`SELECT state FROM strategies WHERE id = ?`, id)
	var state string
	if err := row.Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return "", pipeline.Wrap("store", pipeline.KindNotFound, fmt.Errorf("strategy %s not found", id))
		}
		return "", fmt.Errorf("query strategy %s: %w", id, err)
	}
	return s.strategyPath(id, domain.StrategyState(state)), nil
}

// UpdateState performs an optimistic-concurrency state transition: it
// fails with pipeline.KindConflict if the record's on-disk state is not
// `from`, and with pipeline.KindValidationFailed if from->to is not a
// legal edge in the lifecycle state machine.
func (s *Store) UpdateState(id string, from, to domain.StrategyState, mutate func(*domain.Strategy)) (domain.Strategy, error) {
	if !domain.CanTransition(from, to) {
		return domain.Strategy{}, pipeline.Wrap("store", pipeline.KindValidationFailed,
			fmt.Errorf("illegal transition %s -> %s for %s", from, to, id))
	}

	oldPath, err := s.findStrategyPath(id)
	if err != nil {
		return domain.Strategy{}, err
	}
	strat, err := readStrategyFile(oldPath)
	if err != nil {
		return domain.Strategy{}, err
	}
	if strat.State != from {
		return domain.Strategy{}, pipeline.Wrap("store", pipeline.KindConflict,
			fmt.Errorf("strategy %s is in state %s, expected %s", id, strat.State, from))
	}

	if mutate != nil {
		mutate(&strat)
	}
	strat.State = to

	newPath := s.strategyPath(id, to)
	if err := writeYAMLFile(newPath, strat); err != nil {
		return domain.Strategy{}, err
	}
	if newPath != oldPath {
		if err := os.Remove(oldPath); err != nil {
			s.log.Warn().Err(err).Str("path", oldPath).Msg("failed to remove stale state file")
		}
	}
	if err := s.indexStrategy(strat); err != nil {
		return domain.Strategy{}, err
	}
	s.log.Info().Str("strategy_id", id).Str("from", string(from)).Str("to", string(to)).Msg("state transition")
	return strat, nil
}

func (s *Store) writeStrategyFile(strat domain.Strategy) error {
	return writeYAMLFile(s.strategyPath(strat.ID, strat.State), strat)
}

func readStrategyFile(path string) (domain.Strategy, error) {
	var strat domain.Strategy
	data, err := os.ReadFile(path)
	if err != nil {
		return strat, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &strat); err != nil {
		return strat, fmt.Errorf("parse %s: %w", path, err)
	}
	return strat, nil
}

func unmarshalYAML(data []byte, v interface{}) error {
	return yaml.Unmarshal(data, v)
}

func writeYAMLFile(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// AppendValidation persists a new validation attempt under
// validations/{id}/{iso-timestamp}-{run-id}/record.yaml. The run id
// disambiguates two validation attempts that land in the same second,
// which a bare timestamp directory name cannot.
func (s *Store) AppendValidation(rec domain.ValidationRecord) error {
	ts := rec.Timestamp.UTC().Format(time.RFC3339)
	dir := filepath.Join(s.root, "validations", rec.StrategyID, ts+"-"+rec.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create validation dir: %w", err)
	}
	if err := writeYAMLFile(filepath.Join(dir, "record.yaml"), rec); err != nil {
		return err
	}
	if err := s.indexValidation(rec); err != nil {
		return err
	}
	s.replicate(rec)
	return nil
}

// replicate ships a validation record off-site if a replicator is
// attached. Replication failure is logged, never returned: a durable
// off-site copy is a bonus on top of the local write, not a precondition
// for the validation to count as recorded.
func (s *Store) replicate(rec domain.ValidationRecord) {
	if s.replicator == nil {
		return
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		s.log.Warn().Err(err).Str("strategy_id", rec.StrategyID).Msg("failed to marshal validation for replication")
		return
	}
	key := fmt.Sprintf("validations/%s/%s-%s.yaml", rec.StrategyID, rec.Timestamp.UTC().Format(time.RFC3339), rec.RunID)
	if err := s.replicator.Put(context.Background(), key, data); err != nil {
		s.log.Warn().Err(err).Str("strategy_id", rec.StrategyID).Msg("off-site replication failed")
	}
}

// AppendLearning persists a new learning record under learnings/{id}.yaml.
func (s *Store) AppendLearning(rec domain.LearningRecord) error {
	path := filepath.Join(s.root, "learnings", rec.ID+".yaml")
	if err := writeYAMLFile(path, rec); err != nil {
		return err
	}
	return s.indexLearning(rec)
}

// LatestValidation loads the most recent validation attempt for a
// strategy, ordered by its directory timestamp prefix.
func (s *Store) LatestValidation(strategyID string) (domain.ValidationRecord, error) {
	dir := filepath.Join(s.root, "validations", strategyID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.ValidationRecord{}, fmt.Errorf("list validations for %s: %w", strategyID, err)
	}
	if len(entries) == 0 {
		return domain.ValidationRecord{}, pipeline.Wrap("store", pipeline.KindNotFound, fmt.Errorf("no validations for %s", strategyID))
	}
	latest := entries[0].Name()
	for _, e := range entries {
		if e.Name() > latest {
			latest = e.Name()
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, latest, "record.yaml"))
	if err != nil {
		return domain.ValidationRecord{}, fmt.Errorf("read validation %s/%s: %w", strategyID, latest, err)
	}
	var rec domain.ValidationRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return domain.ValidationRecord{}, fmt.Errorf("parse validation %s/%s: %w", strategyID, latest, err)
	}
	return rec, nil
}

// ResolveLineage walks a strategy's lineage.parents chain back to its
// root ancestor, returning the full chain from root to the given id
// (inclusive). Used to scope multiple-testing-correction family size to
// a lineage rather than the whole workspace.
func (s *Store) ResolveLineage(id string) ([]string, error) {
	chain := []string{id}
	cur := id
	seen := map[string]bool{id: true}
	for {
		strat, err := s.GetStrategy(cur)
		if err != nil {
			return nil, err
		}
		if len(strat.Lineage.Parents) == 0 {
			break
		}
		parent := strat.Lineage.Parents[0]
		if seen[parent] {
			return nil, pipeline.Wrap("store", pipeline.KindInternal, fmt.Errorf("lineage cycle detected at %s", parent))
		}
		seen[parent] = true
		chain = append([]string{parent}, chain...)
		cur = parent
	}
	return chain, nil
}

// LineageFamilySize counts validation records across every strategy
// sharing id's lineage-root chain, used as the FDR/Bonferroni family size.
func (s *Store) LineageFamilySize(id string) (int, error) {
	chain, err := s.ResolveLineage(id)
	if err != nil {
		return 0, err
	}
	root := chain[0]
	row := s.db.QueryRow(`
		SELECT COUNT(*) FROM validations v
		JOIN strategies st ON st.id = v.strategy_id
		WHERE st.lineage_root = ?`, root)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count lineage family: %w", err)
	}
	if count == 0 {
		count = 1
	}
	return count, nil
}
