package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/model"
)

const (
	snapshotFile = "snapshot.json"
	historyFile  = "history.json"

	// HistoryLimit bounds the rolling log; oldest entries are evicted first.
	HistoryLimit = 90
)

// SnapshotStore persists the current snapshot and the rolling history log.
type SnapshotStore interface {
	SaveSnapshot(snapshot model.Snapshot) error
	LoadSnapshot() *model.Snapshot
	LoadHistory() []model.HistoryEntry
}

// Store keeps both records as JSON files under a data directory. Missing or
// unreadable records load as absence, never as an error: the tracker must
// come up cleanly on an empty data dir and survive a mangled file.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore wires a data directory into a Store.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "storage").Logger(),
	}
}

// SaveSnapshot overwrites the current-snapshot record, appends the derived
// history entry, and truncates the log to the most recent HistoryLimit
// entries. Both files are replaced via temp-file rename, so a crash mid-save
// leaves the previous records intact.
func (s *Store) SaveSnapshot(snapshot model.Snapshot) error {
	history := s.LoadHistory()
	history = append(history, snapshot.HistoryEntry())
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	if err := s.writeRecord(snapshotFile, snapshot); err != nil {
		return fmt.Errorf("write snapshot record: %w", err)
	}
	if err := s.writeRecord(historyFile, history); err != nil {
		return fmt.Errorf("write history record: %w", err)
	}

	s.logger.Debug().Int("history_len", len(history)).Str("date", snapshot.Date).Msg("snapshot persisted")
	return nil
}

// LoadSnapshot returns the current snapshot, or nil when none exists yet.
func (s *Store) LoadSnapshot() *model.Snapshot {
	var snapshot model.Snapshot
	if !s.readRecord(snapshotFile, &snapshot) {
		return nil
	}
	return &snapshot
}

// LoadHistory returns the rolling log oldest-first, empty when absent.
func (s *Store) LoadHistory() []model.HistoryEntry {
	history := make([]model.HistoryEntry, 0, HistoryLimit)
	if !s.readRecord(historyFile, &history) {
		return history[:0]
	}
	return history
}

func (s *Store) readRecord(name string, out any) bool {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("record", name).Msg("record unreadable, treating as absent")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn().Err(err).Str("record", name).Msg("record corrupt, treating as absent")
		return false
	}
	return true
}

func (s *Store) writeRecord(name string, record any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

var _ SnapshotStore = (*Store)(nil)
