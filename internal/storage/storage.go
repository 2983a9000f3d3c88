package storage

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Persisted key space for player preferences.
const (
	KeyNickname     = "playerNickname"
	KeyLastRoom     = "lastRoom"
	KeyControlType  = "controlType"
	KeySelectedMode = "selectedMode"
)

const (
	DefaultNickname    = "Player"
	DefaultControlType = "keyboard"
)

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

type WinRecord struct {
	Nickname string `gorm:"primaryKey"`
	Count    int
}

// Store persists preferences and the win tally. Every read fails soft to a
// default: a corrupt or missing database never takes the client down.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Setting{}, &WinRecord{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Save(key, value string) {
	err := s.db.Save(&Setting{Key: key, Value: value}).Error
	if err != nil {
		s.log.Warn("setting not saved", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) Load(key, def string) string {
	var row Setting
	err := s.db.First(&row, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("setting not read", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return row.Value
}

// PlayerSettings is the preference bundle the join screen works with.
type PlayerSettings struct {
	Nickname    string
	Room        string
	ControlType string
}

func (s *Store) SavePlayerSettings(p PlayerSettings) {
	s.Save(KeyNickname, p.Nickname)
	s.Save(KeyLastRoom, p.Room)
	s.Save(KeyControlType, p.ControlType)
}

func (s *Store) LoadPlayerSettings() PlayerSettings {
	return PlayerSettings{
		Nickname:    s.Load(KeyNickname, DefaultNickname),
		Room:        s.Load(KeyLastRoom, ""),
		ControlType: s.Load(KeyControlType, DefaultControlType),
	}
}

// AddWin bumps the local tally for one round winner.
func (s *Store) AddWin(nickname string) {
	wins := s.Wins()
	wins[nickname]++
	s.saveWins(wins)
}

// MergeWins folds the server's authoritative tally into the local one with a
// per-key maximum. Idempotent and order-independent: replaying the same
// round_end twice cannot double-count, and a client that missed rounds
// converges to the server's count.
func (s *Store) MergeWins(server map[string]int) {
	s.saveWins(MergeWinCounts(s.Wins(), server))
}

// Wins returns the local tally, empty on any read failure.
func (s *Store) Wins() map[string]int {
	var rows []WinRecord
	if err := s.db.Find(&rows).Error; err != nil {
		s.log.Warn("win tally not read", zap.Error(err))
		return map[string]int{}
	}
	wins := make(map[string]int, len(rows))
	for _, r := range rows {
		wins[r.Nickname] = r.Count
	}
	return wins
}

func (s *Store) saveWins(wins map[string]int) {
	for name, count := range wins {
		err := s.db.Save(&WinRecord{Nickname: name, Count: count}).Error
		if err != nil {
			s.log.Warn("win tally not saved", zap.String("nickname", name), zap.Error(err))
		}
	}
}

// MergeWinCounts is the merge policy itself, kept pure so it can be checked
// in isolation: merged[name] = max(local[name] or 0, server[name]).
func MergeWinCounts(local, server map[string]int) map[string]int {
	merged := make(map[string]int, len(local)+len(server))
	for name, count := range local {
		merged[name] = count
	}
	for name, count := range server {
		if count > merged[name] {
			merged[name] = count
		}
	}
	return merged
}
