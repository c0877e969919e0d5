// Package validate provides field validators shared by the CLI, the engine
// and the HTTP server.
package validate

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/criterio"
)

// MaxLabelLength bounds names, topics and patterns.
const MaxLabelLength = 120

// MaxNoteLength bounds free-text notes.
const MaxNoteLength = 4000

// Name validates an item name: required, trimmed, bounded.
func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	return Label(name)
}

// Label validates an optional topic or pattern label.
func Label(label string) error {
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return fmt.Errorf("must be at most %d characters", MaxLabelLength)
	}
	if strings.ContainsAny(label, "\n\r\t") {
		return fmt.Errorf("must not contain control whitespace")
	}
	return nil
}

// URL validates an optional link. Empty is allowed; otherwise it must be an
// absolute http or https URL.
func URL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}

// Note validates a free-text note.
func Note(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return fmt.Errorf("must be at most %d characters", MaxNoteLength)
	}
	return nil
}

// NameField returns a criterio validator for item names.
func NameField(field, name string) error {
	return criterio.Run(field, name, Name)
}

// LabelField returns a criterio validator for labels.
func LabelField(field, label string) error {
	return criterio.Run(field, label, Label)
}

// URLField returns a criterio validator for links.
func URLField(field, raw string) error {
	return criterio.Run(field, raw, URL)
}

// NoteField returns a criterio validator for notes.
func NoteField(field, note string) error {
	return criterio.Run(field, note, Note)
}
