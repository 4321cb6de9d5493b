package api

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Status is the server-side processing state of a video.
type Status int

const (
	Pending Status = iota + 1
	Processing
	Completed
	Failed
)

var statusWire = map[Status]string{
	Pending:    "PENDING",
	Processing: "PROCESSING",
	Completed:  "COMPLETED",
	Failed:     "FAILED",
}

// ParseStatus accepts only the exact upper-case wire values.
func ParseStatus(s string) (Status, error) {
	for status, wire := range statusWire {
		if wire == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// String returns the wire value.
func (s Status) String() string {
	if wire, ok := statusWire[s]; ok {
		return wire
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal reports whether processing has finished one way or the other.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// Label is the human badge text.
func (s Status) Label() string {
	switch s {
	case Pending:
		return "Pending"
	case Processing:
		return "Processing"
	case Completed:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	wire, ok := statusWire[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return json.Marshal(wire)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}

	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// JSONSchema describes the wire form for list --schema.
func (Status) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{"PENDING", "PROCESSING", "COMPLETED", "FAILED"},
	}
}
