package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/claimline/claimline/internal/model"
)

// Renderer serializes a finished timeline. Dates cross this boundary as
// ISO-8601 calendar dates; the visualization layer consuming the JSON owns
// layout and display.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the timeline as indented JSON. Path "-" writes to
// stdout.
func (r *Renderer) RenderJSON(tl *model.Timeline, path string) error {
	data, err := json.MarshalIndent(tl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	return nil
}

// RenderSummary writes a short human-readable digest of the timeline.
func (r *Renderer) RenderSummary(tl *model.Timeline, w io.Writer) {
	fmt.Fprintf(w, "Claims:     %d\n", tl.Metadata.TotalClaims)
	fmt.Fprintf(w, "Types:      %s\n", strings.Join(tl.Metadata.ClaimTypes, ", "))
	fmt.Fprintf(w, "Date range: %s to %s\n", tl.DateRange.Start, tl.DateRange.End)
	for _, c := range tl.Claims {
		span := c.StartDate.String()
		if !c.EndDate.Equal(c.StartDate.Time) {
			span = fmt.Sprintf("%s to %s", c.StartDate, c.EndDate)
		}
		fmt.Fprintf(w, "  [%s] %s (%s)\n", c.Type, c.DisplayName, span)
	}
}
