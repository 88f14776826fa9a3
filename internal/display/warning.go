package display

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/builder/internal/copier"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Paths      []string // Related paths (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, yellow on a terminal
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Paths) > 0 {
		b.WriteString("    ")
		if len(w.Paths) == 1 {
			b.WriteString("Affected path:\n")
		} else {
			b.WriteString("Affected paths:\n")
		}
		for i, path := range w.Paths {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, path))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	yellow := color.New(color.FgYellow)
	if !isTerminal(out) {
		yellow.DisableColor()
	}
	fmt.Fprint(out, yellow.Sprint(b.String()))
}

// WarnCopyFailure describes a failed copy run. Copier errors get a
// suggestion matching their kind.
func WarnCopyFailure(err error) Warning {
	var copyErr *copier.Error
	if !errors.As(err, &copyErr) {
		return Warning{Title: "Copy failed", Message: err.Error()}
	}

	w := Warning{
		Title:   "Copy failed: " + copyErr.Kind.String(),
		Paths:   []string{copyErr.Path},
		Message: "Files copied before the failure were left in place.",
	}
	if copyErr.Err != nil {
		w.Message = copyErr.Err.Error() + ". " + w.Message
	}

	switch copyErr.Kind {
	case copier.KindSourceNotFound:
		w.Suggestion = "The project directory may have been moved or deleted; define the build again."
	case copier.KindPermissionDenied:
		w.Suggestion = "Check read access on the project and write access on the destination."
	case copier.KindDestinationUnwritable:
		w.Suggestion = "Make sure the destination exists, is a directory and is outside the project."
	}
	return w
}
