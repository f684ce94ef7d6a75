package export

import "time"

// Property is one column of an externally-introspected schema. Options is
// only populated for enumerated types (status, select, multi_select).
type Property struct {
	Type    string
	Options []string
}

// Schema is a read-only snapshot of a destination database's properties,
// fetched immediately before an export batch. Schemas may change between
// runs, so snapshots are never cached across batches.
type Schema struct {
	Properties map[string]Property
}

// TitleProperty returns the name of the schema's title-typed property.
// Every supported destination exposes exactly one.
func (s *Schema) TitleProperty() (string, bool) {
	for name, prop := range s.Properties {
		if prop.Type == "title" {
			return name, true
		}
	}
	return "", false
}

// Record is the exportable projection of a queue item: the semantic values
// the role mapper tries to place into a destination schema.
type Record struct {
	Title        string
	Status       string
	Category     string
	Destinations []string
	SourceURL    string
	Date         *time.Time
}
