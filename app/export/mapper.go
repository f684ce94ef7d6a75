package export

import "strings"

// A semantic role is bound to at most one schema property: scan the ranked
// candidate names in order and take the first whose name matches
// (case-insensitive) and whose type is accepted for the role. The table is
// static data so new roles and candidate names are additive.
type role struct {
	candidates []string
	types      []string
	build      func(record Record, prop Property) (any, bool)
}

// Candidate names carry the original deployment's native-language property
// names alongside the English ones.
var optionalRoles = []role{
	{
		// status
		candidates: []string{"status", "상태", "진행상태", "state"},
		types:      []string{"status", "select"},
		build: func(record Record, prop Property) (any, bool) {
			if record.Status == "" {
				return nil, false
			}
			value := coerceOption(record.Status, prop.Options)
			if prop.Type == "status" {
				return map[string]any{"status": map[string]any{"name": value}}, true
			}
			return map[string]any{"select": map[string]any{"name": value}}, true
		},
	},
	{
		// category
		candidates: []string{"콘텐츠 유형", "유형", "type", "content type", "category", "카테고리"},
		types:      []string{"select"},
		build: func(record Record, prop Property) (any, bool) {
			if record.Category == "" {
				return nil, false
			}
			return map[string]any{"select": map[string]any{"name": coerceOption(record.Category, prop.Options)}}, true
		},
	},
	{
		// destinations
		candidates: []string{"플랫폼", "platform", "platforms", "channels"},
		types:      []string{"multi_select"},
		build: func(record Record, prop Property) (any, bool) {
			if len(record.Destinations) == 0 {
				return nil, false
			}
			options := make([]map[string]any, 0, len(record.Destinations))
			for _, dest := range record.Destinations {
				options = append(options, map[string]any{"name": dest})
			}
			return map[string]any{"multi_select": options}, true
		},
	},
	{
		// source URL
		candidates: []string{"원본 url", "url", "source", "link", "원본"},
		types:      []string{"url"},
		build: func(record Record, prop Property) (any, bool) {
			if record.SourceURL == "" {
				return nil, false
			}
			return map[string]any{"url": record.SourceURL}, true
		},
	},
	{
		// date
		candidates: []string{"발행일", "예약일", "date", "scheduled", "publish date", "날짜"},
		types:      []string{"date"},
		build: func(record Record, prop Property) (any, bool) {
			if record.Date == nil {
				return nil, false
			}
			return map[string]any{"date": map[string]any{"start": record.Date.Format("2006-01-02")}}, true
		},
	},
}

var titleCandidates = []string{"name", "title", "이름", "제목"}

const untitledFallback = "Untitled"

// BuildFields projects a record onto a destination schema. The result is
// keyed by the actual schema property names, ready to be sent as a
// property-set payload.
//
// The title role is mandatory: when no candidate name matches, it falls
// back to the schema's title-typed property regardless of name. Every other
// role is simply omitted when nothing in the schema accepts it.
func BuildFields(schema *Schema, record Record) map[string]any {
	fields := make(map[string]any)

	lookup := make(map[string]string, len(schema.Properties))
	for name := range schema.Properties {
		lookup[strings.ToLower(name)] = name
	}

	titleName := ""
	for _, candidate := range titleCandidates {
		if name, ok := lookup[candidate]; ok && schema.Properties[name].Type == "title" {
			titleName = name
			break
		}
	}
	if titleName == "" {
		titleName, _ = schema.TitleProperty()
	}
	if titleName != "" {
		title := record.Title
		if title == "" {
			title = untitledFallback
		}
		fields[titleName] = map[string]any{
			"title": []any{
				map[string]any{"text": map[string]any{"content": title}},
			},
		}
	}

	for _, r := range optionalRoles {
		name, prop, ok := matchRole(r, schema, lookup)
		if !ok {
			continue
		}
		if value, ok := r.build(record, prop); ok {
			fields[name] = value
		}
	}

	return fields
}

func matchRole(r role, schema *Schema, lookup map[string]string) (string, Property, bool) {
	for _, candidate := range r.candidates {
		name, ok := lookup[candidate]
		if !ok {
			continue
		}
		prop := schema.Properties[name]
		for _, accepted := range r.types {
			if prop.Type == accepted {
				return name, prop, true
			}
		}
	}
	return "", Property{}, false
}

// coerceOption returns value when it is among the property's declared
// options (or when none are declared), otherwise the first declared option.
// Destinations reject unknown option names outright, so a wrong-but-valid
// option beats a failed export.
func coerceOption(value string, options []string) string {
	if len(options) == 0 {
		return value
	}
	for _, option := range options {
		if option == value {
			return value
		}
	}
	return options[0]
}
