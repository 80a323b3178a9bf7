// Package datastore keeps a JSON object in memory and writes it to a file
// periodically and on Close.
package datastore

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrClosed is returned by writes to a closed store.
var ErrClosed = errors.New("datastore: closed")

type Config struct {
	FilePath     string
	SaveInterval time.Duration
	Backups      int // backup files kept next to FilePath, 0 disables them
	Logger       log.FieldLogger
}

func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:     filePath,
		SaveInterval: 10 * time.Second,
		Backups:      3,
		Logger:       log.WithField("component", "datastore"),
	}
}

type DataStore struct {
	cfg Config

	mu     sync.RWMutex
	data   map[string]any
	closed bool

	saveMu sync.Mutex
	saved  [sha256.Size]byte

	stop chan struct{}
	done chan struct{}
}

func New(filePath string) (*DataStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig loads cfg.FilePath, creating it when missing, and starts the
// periodic save loop.
func NewWithConfig(cfg *Config) (*DataStore, error) {
	if cfg == nil || cfg.FilePath == "" {
		return nil, errors.New("datastore: file path is required")
	}
	c := *cfg
	if c.SaveInterval <= 0 {
		c.SaveInterval = DefaultConfig(c.FilePath).SaveInterval
	}
	if c.Logger == nil {
		c.Logger = log.WithField("component", "datastore")
	}
	if err := os.MkdirAll(filepath.Dir(c.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	ds := &DataStore{
		cfg:  c,
		data: map[string]any{},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if err := ds.load(); err != nil {
		return nil, err
	}
	go ds.loop()
	return ds, nil
}

func (ds *DataStore) load() error {
	raw, err := os.ReadFile(ds.cfg.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return ds.write([]byte("{}"))
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", ds.cfg.FilePath, err)
	}
	if err := json.Unmarshal(raw, &ds.data); err != nil {
		return fmt.Errorf("decode %s: %w", ds.cfg.FilePath, err)
	}
	if ds.data == nil {
		ds.data = map[string]any{}
	}
	ds.saved = sha256.Sum256(raw)
	return nil
}

// Update stores the value fn returns for key, under the write lock. fn
// returning false leaves key untouched.
func (ds *DataStore) Update(key string, fn func(old any, exists bool) (any, bool)) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}
	old, exists := ds.data[key]
	if value, ok := fn(old, exists); ok {
		ds.data[key] = value
	}
	return nil
}

func (ds *DataStore) Add(key string, value any) error {
	return ds.Update(key, func(any, bool) (any, bool) { return value, true })
}

func (ds *DataStore) Get(key string) (any, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.closed {
		return nil, false
	}
	v, ok := ds.data[key]
	return v, ok
}

func (ds *DataStore) Delete(key string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}
	delete(ds.data, key)
	return nil
}

// Keys returns the stored keys, sorted.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	keys := make([]string, 0, len(ds.data))
	if !ds.closed {
		for k := range ds.data {
			keys = append(keys, k)
		}
	}
	ds.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Flush writes the current contents to disk now.
func (ds *DataStore) Flush() error {
	ds.mu.RLock()
	closed := ds.closed
	ds.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ds.save()
}

// Close stops the save loop and writes a final snapshot. Closing twice is a no-op.
func (ds *DataStore) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	ds.mu.Unlock()

	close(ds.stop)
	<-ds.done
	return ds.save()
}

func (ds *DataStore) loop() {
	defer close(ds.done)
	ticker := time.NewTicker(ds.cfg.SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ds.stop:
			return
		case <-ticker.C:
			if err := ds.save(); err != nil {
				ds.cfg.Logger.Errorf("[Datastore] auto-save: %v", err)
			}
		}
	}
}

// save writes a snapshot when it differs from the last one written.
func (ds *DataStore) save() error {
	ds.mu.RLock()
	raw, err := json.MarshalIndent(ds.data, "", "  ")
	ds.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	ds.saveMu.Lock()
	defer ds.saveMu.Unlock()
	sum := sha256.Sum256(raw)
	if sum == ds.saved {
		return nil
	}
	if ds.cfg.Backups > 0 {
		if err := ds.backup(); err != nil {
			ds.cfg.Logger.Warnf("[Datastore] backup failed: %v", err)
		}
	}
	if err := ds.write(raw); err != nil {
		return err
	}
	ds.saved = sum
	return nil
}

// write replaces the file through a synced temp file and checks what landed.
func (ds *DataStore) write(raw []byte) error {
	path := ds.cfg.FilePath
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if !bytes.Equal(written, raw) {
		return fmt.Errorf("verify %s: content mismatch", path)
	}
	return nil
}

// backup copies the current file aside and prunes the oldest copies.
func (ds *DataStore) backup() error {
	path := ds.cfg.FilePath
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	name := path + ".backup." + time.Now().UTC().Format("20060102T150405.000000000")
	if err := os.WriteFile(name, raw, 0o644); err != nil {
		return err
	}

	// Timestamps sort lexically, oldest first.
	old, err := filepath.Glob(path + ".backup.*")
	if err != nil {
		return err
	}
	sort.Strings(old)
	for len(old) > ds.cfg.Backups {
		if err := os.Remove(old[0]); err != nil {
			return err
		}
		old = old[1:]
	}
	return nil
}
