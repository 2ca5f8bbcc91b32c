package noteservice

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NoteInput is the client-supplied portion of a note.
type NoteInput struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Color string   `json:"color"`
}

// Validate validates the input.
func (in NoteInput) Validate() error {
	return validation.ValidateStruct(&in,
		// Untitled notes are allowed; only the length is capped.
		validation.Field(&in.Title, validation.Length(0, 512)),
		validation.Field(&in.Body, validation.Length(0, 1<<20)),
		validation.Field(&in.Color, validation.Match(colorRe)),
	)
}
