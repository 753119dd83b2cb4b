package filter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// WordList holds the forbidden words. Single words match whole tokens of a message,
// entries with spaces match as phrases. Matching ignores case.
type WordList struct {
	path string

	mu      sync.RWMutex
	words   map[string]struct{}
	phrases []string
}

// Load reads path, one entry per line. Blank lines and lines starting with '#' are skipped.
// A missing file yields an empty list.
func Load(path string) (*WordList, error) {
	w := &WordList{path: path}
	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// NewWordList builds a list from entries without a backing file.
func NewWordList(entries ...string) *WordList {
	w := &WordList{}
	w.set(entries)
	return w
}

// Reload re-reads the backing file.
func (w *WordList) Reload() error {
	entries, err := readEntries(w.path)
	if err != nil {
		return err
	}
	w.set(entries)
	log.Info().Str("path", w.path).Int("entries", len(entries)).Msg("forbidden word list loaded")
	return nil
}

func readEntries(path string) ([]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("forbidden word list not found, filtering disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open forbidden word list: %w", err)
	}
	defer file.Close()

	var entries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read forbidden word list: %w", err)
	}
	return entries, nil
}

func (w *WordList) set(entries []string) {
	words := make(map[string]struct{}, len(entries))
	var phrases []string
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.ContainsFunc(entry, unicode.IsSpace) {
			phrases = append(phrases, strings.Join(strings.Fields(entry), " "))
			continue
		}
		words[entry] = struct{}{}
	}

	w.mu.Lock()
	w.words = words
	w.phrases = phrases
	w.mu.Unlock()
}

// Len returns the number of entries.
func (w *WordList) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.words) + len(w.phrases)
}

// ContainsForbidden reports whether text contains any entry of the list.
func (w *WordList) ContainsForbidden(text string) bool {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, token := range tokens {
		if _, ok := w.words[token]; ok {
			return true
		}
	}
	if len(w.phrases) > 0 {
		normalized := strings.Join(tokens, " ")
		for _, phrase := range w.phrases {
			if strings.Contains(normalized, phrase) {
				return true
			}
		}
	}
	return false
}

// Watch reloads the list whenever its file is written, until ctx is done.
// The parent directory is watched so editors that replace the file are handled.
func (w *WordList) Watch(ctx context.Context) error {
	if w.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if err := w.Reload(); err != nil {
					log.Error().Err(err).Msg("failed to reload forbidden word list")
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("forbidden word list watcher error")
		}
	}
}
