// Package history keeps an append-only JSON log of generations.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Entry records one submission and what came back.
type Entry struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Attachment  string    `json:"attachment,omitempty"`
	MediaType   string    `json:"mediaType,omitempty"`
	Backend     string    `json:"backend"`
	Output      string    `json:"output,omitempty"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
	DurationMS  int64     `json:"durationMs"`
}

// Failed reports whether the generation returned an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Append adds entries to the history file, creating it if necessary.
// Entries without an ID get a random one.
func Append(path string, entries ...Entry) error {
	if path == "" || len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	existing, err := Load(path)
	if err != nil {
		return err
	}
	return write(path, append(existing, entries...))
}

// Load returns every stored entry. A missing file is an empty history.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// write replaces the file atomically so a crash never leaves half an array.
func write(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
