package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/keshon/commando/pkg/datastore"
)

// Storage is a Provider backed by a JSON datastore, one record per guild.
type Storage struct {
	ds *datastore.DataStore
}

type Record struct {
	Settings map[string]any `json:"settings"`
}

func New(filePath string) (*Storage, error) {
	return NewWithInterval(filePath, 0)
}

// NewWithInterval opens filePath and saves it every interval. Zero keeps the
// datastore default.
func NewWithInterval(filePath string, interval time.Duration) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	if interval > 0 {
		cfg.SaveInterval = interval
	}
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Flush writes pending changes to disk.
func (s *Storage) Flush() error {
	return s.ds.Flush()
}

func toRecord(data any) (*Record, error) {
	if r, ok := data.(*Record); ok {
		return &Record{Settings: maps.Clone(r.Settings)}, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}
	if record.Settings == nil {
		record.Settings = map[string]any{}
	}
	return &record, nil
}

// update applies fn to a copy of the guild's record and stores the result.
func (s *Storage) update(guildID string, fn func(r *Record) bool) error {
	var convErr error
	err := s.ds.Update(GuildKey(guildID), func(old any, exists bool) (any, bool) {
		record := &Record{Settings: map[string]any{}}
		if exists {
			if record, convErr = toRecord(old); convErr != nil {
				return nil, false
			}
		}
		if !fn(record) {
			return nil, false
		}
		return record, true
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", GuildKey(guildID), err)
	}
	return convErr
}

func (s *Storage) Get(guildID, key string, def any) any {
	data, exists := s.ds.Get(GuildKey(guildID))
	if !exists {
		return def
	}
	record, err := toRecord(data)
	if err != nil {
		return def
	}
	if v, ok := record.Settings[key]; ok {
		return v
	}
	return def
}

func (s *Storage) Set(guildID, key string, value any) error {
	return s.update(guildID, func(r *Record) bool {
		r.Settings[key] = value
		return true
	})
}

func (s *Storage) Remove(guildID, key string) (any, error) {
	var old any
	err := s.update(guildID, func(r *Record) bool {
		v, ok := r.Settings[key]
		if !ok {
			return false
		}
		old = v
		delete(r.Settings, key)
		return true
	})
	return old, err
}

func (s *Storage) Clear(guildID string) error {
	return s.ds.Delete(GuildKey(guildID))
}

func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}
