// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Entry represents a cached HTTP body on disk.
// Key is the clear-text key (the URL); EncodedKey is the hashed filename.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
	ModTime    time.Time
}

// Cache stores raw response bodies beneath Dir. Entries older than MaxAge are
// treated as misses; a zero MaxAge never expires entries.
type Cache struct {
	Dir    string
	MaxAge time.Duration
}

// Dir resolves the base cache directory.
// Precedence:
//  1. DPCVIZ_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/dpcviz
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("DPCVIZ_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "dpcviz"), true
	}
	return "", false
}

// Enabled reports whether DPCVIZ_CACHE opts in ("1"/"true"). The cache is off
// by default so every new dataset descriptor goes to the network.
func Enabled() bool {
	enabled, _ := os.LookupEnv("DPCVIZ_CACHE")
	return enabled == "1" || enabled == "true"
}

// FromEnv returns a Cache when caching is enabled and a directory can be
// resolved.
func FromEnv(maxAge time.Duration) (*Cache, bool) {
	if !Enabled() {
		return nil, false
	}
	base, ok := Dir()
	if !ok {
		return nil, false
	}
	return &Cache{Dir: base, MaxAge: maxAge}, true
}

// EnsureDir creates the cache directory.
func (c *Cache) EnsureDir() error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// EntryPath returns the path where the entry for clearKey would live and
// whether a file currently exists there.
func (c *Cache) EntryPath(clearKey string) (string, bool) {
	p := filepath.Join(c.Dir, encodeKey(clearKey))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Read returns the entry for clearKey unless it is missing or expired.
func (c *Cache) Read(clearKey string) (*Entry, bool) {
	p, ok := c.EntryPath(clearKey)
	if !ok {
		return nil, false
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if c.MaxAge > 0 && time.Since(info.ModTime()) > c.MaxAge {
		log.Debugf("cache entry expired: %s", p)
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       b,
		ModTime:    info.ModTime(),
	}, true
}

// Write stores data for clearKey. Creates the directory as needed.
func (c *Cache) Write(clearKey string, data []byte) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	p := filepath.Join(c.Dir, encodeKey(clearKey))
	if err := os.WriteFile(p, data, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Purge removes entries older than MaxAge. A zero MaxAge is a no-op.
func (c *Cache) Purge() error {
	if c.MaxAge <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}
	if err := filepath.Walk(c.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		if !info.IsDir() && time.Since(info.ModTime()) > c.MaxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// encodeKey hashes k with MD5 and returns the hex string.
func encodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
