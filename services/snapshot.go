package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"taaltoren/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists named JSON snapshots. The broadcaster uses it
// to keep the global leaderboard aggregates across restarts.
type SnapshotStore interface {
	Save(key string, value interface{}) error
	Load(key string, out interface{}) error
}

// DBSnapshotStore keeps snapshots in the score_snapshots table.
type DBSnapshotStore struct {
	db *gorm.DB
}

func NewDBSnapshotStore(db *gorm.DB) *DBSnapshotStore {
	return &DBSnapshotStore{db: db}
}

func (s *DBSnapshotStore) Save(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	row := models.ScoreSnapshot{Key: key, Data: string(data)}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

func (s *DBSnapshotStore) Load(key string, out interface{}) error {
	var row models.ScoreSnapshot
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSnapshotNotFound
		}
		return err
	}
	return json.Unmarshal([]byte(row.Data), out)
}

// FileSnapshotStore keeps snapshots as JSON files in a directory, the
// legacy durable fallback for deployments without a database for the
// leaderboard state.
type FileSnapshotStore struct {
	dir string
}

func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileSnapshotStore) Save(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	// Write-then-rename so a crash never leaves a truncated snapshot.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

func (s *FileSnapshotStore) Load(key string, out interface{}) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrSnapshotNotFound
		}
		return err
	}
	return json.Unmarshal(data, out)
}
