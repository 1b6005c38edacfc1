package types

import (
	"fmt"
	"strings"
)

// Category is one of the four submission kinds.
type Category string

// Submission categories.
const (
	CategoryStory     Category = "story"
	CategoryTheme     Category = "theme"
	CategoryEducation Category = "education"
	CategoryQuestions Category = "questions"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryStory,
	CategoryTheme,
	CategoryEducation,
	CategoryQuestions,
}

// System columns shared by every submission table.
const (
	ColumnID        = "id"
	ColumnUser      = "user"
	ColumnCreatedAt = "created_at"
)

// Column is one column of a category table. Field names the form field the
// column is filled from; system columns leave it empty.
type Column struct {
	Name  string
	Field string
}

// Section is a group of form fields that together make a submission
// complete. Min holds the minimum trimmed length of each field.
type Section struct {
	Name   string
	Fields []string
	Min    map[string]int
}

// Descriptor carries everything the stores need to know about a category:
// its table, column mapping, normalized field names, and annotation checks.
type Descriptor struct {
	Category Category
	Table    string
	Columns  []Column

	// Fields are the normalized (form) field names of a listed submission.
	Fields []string

	// OriginalField is the normalized original-story field and
	// LegacyOriginalColumn the column it falls back to when empty.
	OriginalField        string
	LegacyOriginalColumn string

	// Validated lists the form fields checked when saving this category.
	Validated []string

	// Checks are the 0/1 quality checks annotators fill in.
	Checks []string

	Section Section
}

var descriptors = map[Category]Descriptor{
	CategoryStory: {
		Category: CategoryStory,
		Table:    TableStory,
		Columns: []Column{
			{Name: ColumnID},
			{Name: "prompt", Field: "prompt"},
			{Name: "story", Field: "story"},
			{Name: "technology", Field: "technology"},
			{Name: ColumnUser},
			{Name: ColumnCreatedAt},
		},
		Fields:    []string{"prompt", "story", "technology"},
		Validated: []string{"prompt", "technology", "story"},
		Checks:    []string{"age_appropriateness", "clarity", "creativity", "language", "message", "literature"},
		Section: Section{
			Name:   "story",
			Fields: []string{"prompt", "technology", "story"},
			Min:    map[string]int{"prompt": 20, "technology": 1, "story": 100},
		},
	},
	CategoryTheme: {
		Category: CategoryTheme,
		Table:    TableTheme,
		Columns: []Column{
			{Name: ColumnID},
			{Name: "prompt", Field: "theme_prompt"},
			{Name: "placeholders", Field: "theme_placeholders"},
			{Name: "original_story", Field: "theme_original_story"},
			{Name: "new_story", Field: "theme_story"},
			{Name: ColumnUser},
			{Name: "technology", Field: "technology"},
			{Name: "theme_original_story", Field: "theme_original_story"},
			{Name: ColumnCreatedAt},
		},
		Fields:               []string{"theme_prompt", "theme_placeholders", "theme_original_story", "theme_story", "technology"},
		OriginalField:        "theme_original_story",
		LegacyOriginalColumn: "original_story",
		Validated:            []string{"theme_prompt", "theme_placeholders", "theme_story", "theme_original_story", "technology"},
		Checks:               []string{"theme_quality", "theme_success", "roleplaying"},
		Section: Section{
			Name:   "theme",
			Fields: []string{"theme_prompt", "theme_story"},
			Min:    map[string]int{"theme_prompt": 20, "theme_story": 50},
		},
	},
	CategoryEducation: {
		Category: CategoryEducation,
		Table:    TableEducation,
		Columns: []Column{
			{Name: ColumnID},
			{Name: "prompt", Field: "education_prompt"},
			{Name: "placeholders", Field: "education_placeholders"},
			{Name: "original_story", Field: "education_original_story"},
			{Name: "new_story", Field: "education_story"},
			{Name: ColumnUser},
			{Name: "technology", Field: "technology"},
			{Name: "education_original_story", Field: "education_original_story"},
			{Name: ColumnCreatedAt},
		},
		Fields:               []string{"education_prompt", "education_placeholders", "education_original_story", "education_story", "technology"},
		OriginalField:        "education_original_story",
		LegacyOriginalColumn: "original_story",
		Validated:            []string{"education_prompt", "education_placeholders", "education_story", "education_original_story", "technology"},
		Checks:               []string{"education_quality", "naturalness", "correctness"},
		Section: Section{
			Name:   "education",
			Fields: []string{"education_prompt", "education_story"},
			Min:    map[string]int{"education_prompt": 20, "education_story": 100},
		},
	},
	CategoryQuestions: {
		Category: CategoryQuestions,
		Table:    TableQuestions,
		Columns: []Column{
			{Name: ColumnID},
			{Name: "prompt", Field: "questions_prompt"},
			{Name: "questions_placeholders", Field: "questions_placeholders"},
			{Name: "original_story", Field: "questions_original_story"},
			{Name: "questions", Field: "questions"},
			{Name: ColumnUser},
			{Name: "technology", Field: "technology"},
			{Name: "questions_original_story", Field: "questions_original_story"},
			{Name: ColumnCreatedAt},
		},
		Fields:               []string{"questions_prompt", "questions_placeholders", "questions_original_story", "questions", "technology"},
		OriginalField:        "questions_original_story",
		LegacyOriginalColumn: "original_story",
		Validated:            []string{"questions_prompt", "questions", "questions_placeholders", "questions_original_story", "technology"},
		Checks:               []string{"difficulty", "completeness", "correctness_of_responses"},
		Section: Section{
			Name:   "questions",
			Fields: []string{"questions_prompt", "questions"},
			Min:    map[string]int{"questions_prompt": 20, "questions": 50},
		},
	},
}

// ParseCategory converts a user-supplied name to a Category.
// Returns ErrInvalidCategory for unknown names.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := descriptors[c]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidCategory, name)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := descriptors[c]
	return ok
}

// Descriptor returns the descriptor for c. The zero Descriptor is returned
// for unknown categories.
func (c Category) Descriptor() Descriptor {
	return descriptors[c]
}

// DescriptorFor returns the descriptor for c or ErrInvalidCategory.
func DescriptorFor(c Category) (Descriptor, error) {
	d, ok := descriptors[c]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrInvalidCategory, c)
	}
	return d, nil
}

// ColumnNames returns the header row of the category table.
func (d Descriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Row builds a table row from a form field bag. Fields the category does
// not use are ignored; missing ones become empty strings. CRLF line
// endings are stored as LF.
func (d Descriptor) Row(fields map[string]string) Row {
	row := make(Row, len(d.Columns))
	for _, col := range d.Columns {
		if col.Field == "" {
			continue
		}
		row[col.Name] = NormalizeNewlines(fields[col.Field])
	}
	return row
}

// NormalizeNewlines replaces CRLF line endings with LF.
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Normalize maps a stored row to the normalized field names, applying the
// legacy original-story fallback.
func (d Descriptor) Normalize(row Row) map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		out[f] = ""
	}
	for _, col := range d.Columns {
		if col.Field == "" {
			continue
		}
		// Later columns mapping to the same field (the category-specific
		// original story) win over earlier generic ones when non-empty.
		if v := row[col.Name]; v != "" || out[col.Field] == "" {
			out[col.Field] = v
		}
	}
	if d.OriginalField != "" && out[d.OriginalField] == "" {
		out[d.OriginalField] = row[d.LegacyOriginalColumn]
	}
	return out
}

// ParseChecks converts raw checkbox values into 0/1 scores for the
// category's checks. A check is 1 when its value is non-empty.
func (d Descriptor) ParseChecks(form map[string]string) map[string]int {
	checks := make(map[string]int, len(d.Checks))
	for _, name := range d.Checks {
		if form[name] != "" {
			checks[name] = 1
		} else {
			checks[name] = 0
		}
	}
	return checks
}
