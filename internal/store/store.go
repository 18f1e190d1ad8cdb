// File: internal/store/store.go
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// Store persists run state snapshots as JSON files, one per run. Snapshots
// are exports for inspection and audit; a run is never resumed from one.
type Store struct {
	dir string
	log *zap.Logger
}

// New creates a snapshot store rooted at dir, creating it if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{
		dir: dir,
		log: logger.Named("store"),
	}, nil
}

func (s *Store) pathFor(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// Save writes the run state snapshot and returns the file path.
func (s *Store) Save(state schemas.RunState) (string, error) {
	if state.RunID == "" {
		return "", fmt.Errorf("run state has no runId")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run state: %w", err)
	}

	path := s.pathFor(state.RunID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.log.Info("Run snapshot saved",
		zap.String("run_id", state.RunID),
		zap.String("path", path),
		zap.Int("steps", state.Step),
	)
	return path, nil
}

// Load reads a snapshot back by run id.
func (s *Store) Load(runID string) (schemas.RunState, error) {
	data, err := os.ReadFile(s.pathFor(runID))
	if err != nil {
		return schemas.RunState{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var state schemas.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return schemas.RunState{}, fmt.Errorf("failed to parse snapshot for run %s: %w", runID, err)
	}
	return state, nil
}

// List returns the run ids with a stored snapshot.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot directory: %w", err)
	}
	var runIDs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		runIDs = append(runIDs, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return runIDs, nil
}
