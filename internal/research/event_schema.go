package research

import "github.com/researchcore/pipeline/pkg/schema"

// EventSchema generates the JSON Schema for the wire Event envelope
// described in §6 of the specification. It exists so the {type,
// timestamp, seq, data} contract has one authoritative, generated
// definition that tests can assert against, instead of the shape
// drifting silently as EventData grows fields.
func EventSchema() (map[string]any, error) {
	return schema.MapOf(Event{})
}
