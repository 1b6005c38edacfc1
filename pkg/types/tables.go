package types

// Standard table names for Backend.Table.
const (
	TableStory       = "story_generator"
	TableTheme       = "theme_generator"
	TableEducation   = "educative_content_generator"
	TableQuestions   = "questions_generator"
	TableAnnotations = "annotations"
)

// Annotation table columns.
const (
	ColumnSubmissionID = "submission_id"
	ColumnCategory     = "category"
	ColumnFieldsJSON   = "fields_json"
)

// AnnotationColumns is the header row of the annotations table.
var AnnotationColumns = []string{
	ColumnID,
	ColumnSubmissionID,
	ColumnCategory,
	ColumnFieldsJSON,
	ColumnUser,
	ColumnCreatedAt,
}

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableStory,
	TableTheme,
	TableEducation,
	TableQuestions,
	TableAnnotations,
}

// TableColumns returns the header row of a standard table.
// Returns ErrTableNotFound for unknown names.
func TableColumns(name string) ([]string, error) {
	if name == TableAnnotations {
		return append([]string(nil), AnnotationColumns...), nil
	}
	for _, c := range Categories {
		d := c.Descriptor()
		if d.Table == name {
			return d.ColumnNames(), nil
		}
	}
	return nil, ErrTableNotFound
}
