// Package problem models the task description handed to the agent and to the
// judge prompts. A statement always has a stable ID, the task text, and named
// extra fields that prompt templates may reference.
package problem

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Statement is a problem statement for a task.
type Statement interface {
	ID() string
	Text() string
	ExtraFields() map[string]any
}

// TextStatement is a problem statement given directly as text.
type TextStatement struct {
	text   string
	id     string
	extras map[string]any
}

// NewTextStatement builds a statement from text. When id is empty it defaults
// to the first 6 hex characters of the SHA-256 of the text.
func NewTextStatement(text, id string, extras map[string]any) *TextStatement {
	if id == "" {
		id = contentID(text)
	}
	return &TextStatement{text: text, id: id, extras: extras}
}

func (s *TextStatement) ID() string   { return s.id }
func (s *TextStatement) Text() string { return s.text }

func (s *TextStatement) ExtraFields() map[string]any {
	if s.extras == nil {
		return map[string]any{}
	}
	return s.extras
}

func (s *TextStatement) String() string {
	text := s.text
	if len(text) > 30 {
		text = text[:30] + "..."
	}
	return fmt.Sprintf("id=%s, text=%s", s.id, text)
}

// FileStatement reads the problem text from a file once at construction.
type FileStatement struct {
	TextStatement
	path string
}

// NewFileStatement loads a statement from path. The ID defaults to a hash of
// the file contents.
func NewFileStatement(path, id string, extras map[string]any) (*FileStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem statement: %w", err)
	}
	text := string(data)
	if id == "" {
		id = contentID(text)
	}
	return &FileStatement{
		TextStatement: TextStatement{text: text, id: id, extras: extras},
		path:          path,
	}, nil
}

// Path returns the file the statement was loaded from.
func (s *FileStatement) Path() string { return s.path }

// EmptyStatement is a placeholder statement with a random ID, used when the
// task is communicated to the agent out of band.
type EmptyStatement struct {
	id string
}

// NewEmptyStatement returns a statement with no text and a fresh UUID.
func NewEmptyStatement() *EmptyStatement {
	return &EmptyStatement{id: uuid.NewString()}
}

func (s *EmptyStatement) ID() string                  { return s.id }
func (s *EmptyStatement) Text() string                { return "" }
func (s *EmptyStatement) ExtraFields() map[string]any { return map[string]any{} }

func contentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:6]
}
