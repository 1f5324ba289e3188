// Package schema defines the content-type registry: the static table of
// content kinds, their field schemas, and their storage directories.
package schema

import "regexp"

// FieldType tags the kind of a content field. The set is closed: every
// validator and serializer branch matches exhaustively over these values.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldMarkdown    FieldType = "markdown"
	FieldNumber      FieldType = "number"
	FieldBoolean     FieldType = "boolean"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldDate        FieldType = "date"
	FieldImage       FieldType = "image"
)

// RuleKind tags a validation rule.
type RuleKind string

const (
	RuleRequired RuleKind = "required"
	RuleMin      RuleKind = "min"
	RuleMax      RuleKind = "max"
	RulePattern  RuleKind = "pattern"
	RuleCustom   RuleKind = "custom"
)

// ValidationRule is one constraint on a field value. Limit is used by
// min/max, Pattern by pattern, Custom by custom. Message is the user-facing
// text reported on violation; custom rules may override it by returning an
// error with their own message.
type ValidationRule struct {
	Kind    RuleKind
	Limit   float64
	Pattern *regexp.Regexp
	Custom  func(value any) error
	Message string
}

// ContentField describes one frontmatter field of a content type.
type ContentField struct {
	ID       string
	Label    string
	Type     FieldType
	Required bool
	Default  any
	Options  []string
	Rules    []ValidationRule
}

// ContentSchema is the ordered field list of a content type. Field order is
// significant: validation and frontmatter serialization follow it.
type ContentSchema struct {
	Fields []ContentField
}

// Field returns the field with the given id, if present.
func (s *ContentSchema) Field(id string) (*ContentField, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// ContentType is a registered kind of content. Instances are static and
// immutable for the process lifetime.
type ContentType struct {
	ID       string
	Name     string
	Plural   string
	Category string
	// Dir is the storage subdirectory relative to a campaign's content path.
	Dir     string
	APIPath string
	Icon    string
	Schema  ContentSchema
}
