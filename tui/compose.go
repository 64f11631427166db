package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// Composer builds a respond-decision payload field by field. Each entry is a
// dotted path and a value; gabs materializes the intermediate objects, so
// message.content = "hi" produces the full nested shape.
type Composer struct {
	doc    *gabs.Container
	fields []string
}

func NewComposer() *Composer {
	return &Composer{doc: gabs.New()}
}

// Add parses one "path = value" line and sets it in the document. The value
// side is decoded as JSON when it parses (numbers, booleans, null, quoted
// strings, objects, arrays); anything else is taken as a bare string.
func (c *Composer) Add(line string) error {
	path, raw, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("expected path = value, got %q", line)
	}
	path = strings.TrimSpace(path)
	raw = strings.TrimSpace(raw)
	if path == "" {
		return fmt.Errorf("field path is empty")
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	if _, err := c.doc.SetP(value, path); err != nil {
		return fmt.Errorf("error setting %s: %w", path, err)
	}
	c.fields = append(c.fields, path)
	return nil
}

// Fields returns the paths added so far, in order.
func (c *Composer) Fields() []string {
	return c.fields
}

// Empty reports whether nothing has been added yet.
func (c *Composer) Empty() bool {
	return len(c.fields) == 0
}

// Payload returns the composed document as JSON.
func (c *Composer) Payload() json.RawMessage {
	return json.RawMessage(c.doc.Bytes())
}

// Preview renders the document for the compose pane.
func (c *Composer) Preview() string {
	return c.doc.StringIndent("", "  ")
}
