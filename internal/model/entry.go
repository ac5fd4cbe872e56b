package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ColumnType identifies the kind of value a custom column collects.
type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnBoolean ColumnType = "boolean"
)

// HabitCategory is a named reason/tag attached to an entry. Built-in
// categories cannot be deleted; user-created ones carry IsCustom=true.
// Category names are matched case-insensitively during CSV import, so
// names act as the identity key there even though ID is the real one.
type HabitCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsCustom bool   `json:"is_custom"`
}

// NewCategory creates a custom category with a fresh ID.
func NewCategory(name string) HabitCategory {
	return HabitCategory{
		ID:       uuid.New().String(),
		Name:     name,
		IsCustom: true,
	}
}

// DefaultCategories returns the built-in category set present at first run.
func DefaultCategories() []HabitCategory {
	names := []string{"RELAX", "REWARD", "FOCUS", "HUMAN NEED"}
	cats := make([]HabitCategory, 0, len(names))
	for _, n := range names {
		cats = append(cats, HabitCategory{
			ID:   uuid.New().String(),
			Name: n,
		})
	}
	return cats
}

// FindCategory returns the first category whose name matches name
// case-insensitively, if any.
func FindCategory(cats []HabitCategory, name string) (HabitCategory, bool) {
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return HabitCategory{}, false
}

// CustomColumn defines an optional extra field collected per entry.
// Definition order determines CSV column order on export. Duplicate
// names are permitted; lookups by name only ever resolve the first
// match, which makes CSV export/import ambiguous for duplicates.
type CustomColumn struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// NewCustomColumn creates a column definition with a fresh ID.
func NewCustomColumn(name string, typ ColumnType) CustomColumn {
	return CustomColumn{
		ID:   uuid.New().String(),
		Name: name,
		Type: typ,
	}
}

// HabitEntry is one logged habit event. The category is embedded by
// value, not referenced by ID. CustomFields only holds keys for columns
// that existed when the entry was created or edited; keys for columns
// that have since been deleted are kept on the entry but ignored by
// CSV export.
type HabitEntry struct {
	ID           string                      `json:"id"`
	Date         time.Time                   `json:"date"`
	Category     HabitCategory               `json:"category"`
	Notes        string                      `json:"notes"`
	CustomFields map[string]CustomFieldValue `json:"custom_fields,omitempty"`
}

// NewEntry creates an entry with a fresh ID.
func NewEntry(date time.Time, category HabitCategory, notes string, fields map[string]CustomFieldValue) HabitEntry {
	return HabitEntry{
		ID:           uuid.New().String(),
		Date:         date,
		Category:     category,
		Notes:        notes,
		CustomFields: fields,
	}
}

// CustomFieldValue is a tagged variant holding either a text or a
// boolean payload. Equality is variant-aware: two values are equal only
// when they hold the same variant with the same payload.
type CustomFieldValue struct {
	kind    ColumnType
	text    string
	boolean bool
}

// TextValue wraps a string as a custom field value.
func TextValue(s string) CustomFieldValue {
	return CustomFieldValue{kind: ColumnText, text: s}
}

// BoolValue wraps a bool as a custom field value.
func BoolValue(b bool) CustomFieldValue {
	return CustomFieldValue{kind: ColumnBoolean, boolean: b}
}

// Kind returns the variant held by the value.
func (v CustomFieldValue) Kind() ColumnType {
	if v.kind == "" {
		return ColumnText
	}
	return v.kind
}

// Text returns the text payload and whether the value holds one.
func (v CustomFieldValue) Text() (string, bool) {
	return v.text, v.Kind() == ColumnText
}

// Bool returns the boolean payload and whether the value holds one.
func (v CustomFieldValue) Bool() (bool, bool) {
	return v.boolean, v.Kind() == ColumnBoolean
}

// Display renders the value for CSV export and list views:
// booleans as "Yes"/"No", text as-is.
func (v CustomFieldValue) Display() string {
	if v.Kind() == ColumnBoolean {
		if v.boolean {
			return "Yes"
		}
		return "No"
	}
	return v.text
}

// Equal reports variant-aware structural equality.
func (v CustomFieldValue) Equal(o CustomFieldValue) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	if v.Kind() == ColumnBoolean {
		return v.boolean == o.boolean
	}
	return v.text == o.text
}

// fieldValueJSON is the wire form of CustomFieldValue.
type fieldValueJSON struct {
	Kind    ColumnType `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Boolean bool       `json:"boolean,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v CustomFieldValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldValueJSON{
		Kind:    v.Kind(),
		Text:    v.text,
		Boolean: v.boolean,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *CustomFieldValue) UnmarshalJSON(data []byte) error {
	var w fieldValueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshaling custom field value: %w", err)
	}
	switch w.Kind {
	case ColumnBoolean:
		*v = BoolValue(w.Boolean)
	case ColumnText, "":
		*v = TextValue(w.Text)
	default:
		return fmt.Errorf("unknown custom field kind %q", w.Kind)
	}
	return nil
}
