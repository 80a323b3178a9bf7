package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	gormSqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type guildSettings struct {
	Guild    string `gorm:"primaryKey"`
	Settings string `gorm:"not null"`
}

func (guildSettings) TableName() string { return "settings" }

// SQLite is a Provider keeping one JSON row per guild. All rows are cached in
// memory on open; writes go through to the database.
type SQLite struct {
	db *gorm.DB

	mu       sync.RWMutex
	settings map[string]map[string]any
}

// OpenSQLite opens (or creates) the database at dsn, ":memory:" included.
func OpenSQLite(dsn string) (*SQLite, error) {
	gormLog := logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(gormSqlite.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("settings db failed gorm-ing connection: %w", err)
	}
	if err := db.AutoMigrate(&guildSettings{}); err != nil {
		return nil, fmt.Errorf("settings db migrate: %w", err)
	}

	s := &SQLite{db: db, settings: make(map[string]map[string]any)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) load() error {
	var rows []guildSettings
	if err := s.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("settings db load: %w", err)
	}
	for _, row := range rows {
		values := map[string]any{}
		if err := json.Unmarshal([]byte(row.Settings), &values); err != nil {
			log.Warnf("[Storage] skipping malformed settings of %s: %v", row.Guild, err)
			continue
		}
		s.settings[row.Guild] = values
	}
	return nil
}

func (s *SQLite) Get(guildID, key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.settings[GuildKey(guildID)][key]; ok {
		return v
	}
	return def
}

func (s *SQLite) Set(guildID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := GuildKey(guildID)
	values := maps.Clone(s.settings[id])
	if values == nil {
		values = map[string]any{}
	}
	values[key] = value
	return s.write(id, values)
}

func (s *SQLite) Remove(guildID, key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := GuildKey(guildID)
	old, ok := s.settings[id][key]
	if !ok {
		return nil, nil
	}
	values := maps.Clone(s.settings[id])
	delete(values, key)
	return old, s.write(id, values)
}

func (s *SQLite) Clear(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := GuildKey(guildID)
	if err := s.db.Delete(&guildSettings{Guild: id}).Error; err != nil {
		return fmt.Errorf("clear settings of %s: %w", id, err)
	}
	delete(s.settings, id)
	return nil
}

func (s *SQLite) Guilds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.settings))
	for id := range s.settings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// write upserts the row of id and replaces the cache entry. Callers hold mu.
func (s *SQLite) write(id string, values map[string]any) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings of %s: %w", id, err)
	}
	row := guildSettings{Guild: id, Settings: string(raw)}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save settings of %s: %w", id, err)
	}
	s.settings[id] = values
	return nil
}
