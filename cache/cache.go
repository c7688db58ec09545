// Package cache keeps parsed songs keyed by the identity of the file they
// came from. Entries live until the caller invalidates them or the file
// changes size or modification time.
package cache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Key struct {
	Path    string
	Size    int64
	ModTime int64
}

// KeyFor stats path and builds its cache key.
func KeyFor(path string) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Key{}, err
	}
	return Key{Path: abs, Size: info.Size(), ModTime: info.ModTime().UnixNano()}, nil
}

type Loader func(path string) (*model.Song, error)

type Cache struct {
	mu      sync.Mutex
	entries map[Key]*model.Song
	load    Loader

	snapshotPath string
	flush        func(func())
}

// New creates a cache filled through load. With a non-empty snapshotPath the
// entries are restored from it and written back shortly after every change.
func New(load Loader, snapshotPath string, flushDelay time.Duration) *Cache {
	c := &Cache{
		entries:      make(map[Key]*model.Song),
		load:         load,
		snapshotPath: snapshotPath,
	}
	if snapshotPath == "" {
		return c
	}
	c.flush = debounce.New(flushDelay)
	entries, err := util.ReadBinary[map[Key]*model.Song](snapshotPath)
	switch {
	case err == nil:
		c.entries = entries
		logrus.WithField("entries", len(entries)).Debug("restored song cache")
	case !os.IsNotExist(errors.Cause(err)):
		logrus.WithError(err).Warn("ignoring unreadable cache snapshot")
	}
	return c
}

// Get returns the song for path, parsing it if the file is new or changed.
func (c *Cache) Get(path string) (*model.Song, error) {
	key, err := KeyFor(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	song, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return song, nil
	}

	song, err = c.load(key.Path)
	if err != nil {
		return nil, err
	}
	c.Put(key, song)
	return song, nil
}

func (c *Cache) Put(key Key, song *model.Song) {
	c.mu.Lock()
	// older versions of the same file are dead weight
	for k := range c.entries {
		if k.Path == key.Path {
			delete(c.entries, k)
		}
	}
	c.entries[key] = song
	c.mu.Unlock()
	c.changed()
}

// Invalidate drops every entry for path, whatever version it was.
func (c *Cache) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c.mu.Lock()
	for k := range c.entries {
		if k.Path == abs {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	c.changed()
}

func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[Key]*model.Song)
	c.mu.Unlock()
	c.changed()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) changed() {
	if c.flush != nil {
		c.flush(func() {
			if err := c.Snapshot(); err != nil {
				logrus.WithError(err).Warn("could not write cache snapshot")
			}
		})
	}
}

// Snapshot writes the current entries to the snapshot path right away.
func (c *Cache) Snapshot() error {
	if c.snapshotPath == "" {
		return nil
	}
	c.mu.Lock()
	entries := make(map[Key]*model.Song, len(c.entries))
	for k, v := range c.entries {
		entries[k] = v
	}
	c.mu.Unlock()
	return util.CreateBinary(c.snapshotPath, entries)
}
