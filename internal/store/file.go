// Package store covers both ends of the document store: the server-side
// backing file and the HTTP client the repository uses to reach it.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidFormat is returned when a document body is not a JSON object
// carrying a terrenos array.
var ErrInvalidFormat = errors.New("JSON document must be an object with a terrenos array")

// FileStore persists the listing document as one JSON file. Every write is a
// full-document replace in a single write call; concurrent writers race and
// the last completed write wins, which is acceptable for the single
// administrative actor this system assumes.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Read returns the backing file verbatim.
func (s *FileStore) Read() ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return b, nil
}

// Write validates raw and replaces the backing file with its re-indented
// form. ErrInvalidFormat when the body is not an object with a terrenos
// array; the file is left untouched in that case.
func (s *FileStore) Write(raw []byte) error {
	doc, err := ValidateDocument(raw)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(s.path, pretty, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// ValidateDocument checks that raw is a JSON object whose terrenos field is
// an array, and returns the decoded document for re-encoding.
func ValidateDocument(raw []byte) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ErrInvalidFormat
	}
	arr, ok := doc["terrenos"]
	if !ok {
		return nil, ErrInvalidFormat
	}
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, ErrInvalidFormat
	}
	return doc, nil
}
