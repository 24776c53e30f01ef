package domain

import (
	"sort"
	"strings"
)

// ValidationErrors collects field-level validation messages in insertion order.
// It satisfies error and unwraps to ErrValidationFailed.
type ValidationErrors struct {
	fields map[string][]string
	order  []string
}

// NewValidationErrors returns an empty collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

// Add records msg against field. Duplicate messages for one field are dropped.
func (v *ValidationErrors) Add(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string][]string)
	}
	existing, ok := v.fields[field]
	if !ok {
		v.order = append(v.order, field)
	}
	for _, m := range existing {
		if m == msg {
			return
		}
	}
	v.fields[field] = append(existing, msg)
}

// Has reports whether field has at least one message.
func (v *ValidationErrors) Has(field string) bool {
	return v != nil && len(v.fields[field]) > 0
}

// Empty reports whether no messages have been recorded.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.order) == 0
}

// Fields returns a copy of the field to messages map.
func (v *ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(v.fields))
	for k, msgs := range v.fields {
		out[k] = append([]string(nil), msgs...)
	}
	return out
}

// FullMessages renders every message prefixed with its humanized field name,
// e.g. "Password confirmation doesn't match Password".
func (v *ValidationErrors) FullMessages() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.order))
	for _, field := range v.order {
		for _, msg := range v.fields[field] {
			if field == "base" {
				out = append(out, msg)
				continue
			}
			out = append(out, Humanize(field)+" "+msg)
		}
	}
	return out
}

// Summary joins the full messages into one sentence.
func (v *ValidationErrors) Summary() string {
	return ToSentence(v.FullMessages())
}

func (v *ValidationErrors) Error() string {
	if v.Empty() {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(v.FullMessages(), ", ")
}

func (v *ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// Merge appends every message of other into v.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	for _, field := range other.order {
		for _, msg := range other.fields[field] {
			v.Add(field, msg)
		}
	}
}

// SortedFields returns the field names with messages in lexical order.
func (v *ValidationErrors) SortedFields() []string {
	out := append([]string(nil), v.order...)
	sort.Strings(out)
	return out
}

// ErrOrNil returns v as an error when it holds messages and nil otherwise.
func (v *ValidationErrors) ErrOrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

// Humanize turns a snake_case attribute name into a capitalized label.
func Humanize(field string) string {
	field = strings.TrimSuffix(field, "_id")
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ToSentence joins items as "a", "a and b" or "a, b, and c".
func ToSentence(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
