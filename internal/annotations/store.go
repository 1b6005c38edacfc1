// Package annotations is the Annotation Store: append-only quality reviews
// of submissions, keyed by (submission id, category, annotator).
package annotations

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// Store reads and appends annotations.
type Store struct {
	backend types.Backend
	log     *logger.Logger
	now     func() time.Time
}

// NewStore returns a Store over an attached backend.
func NewStore(backend types.Backend, log *logger.Logger) *Store {
	return &Store{
		backend: backend,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (s *Store) table() (types.Table, error) {
	t, err := s.backend.Table(types.TableAnnotations)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", types.TableAnnotations, err)
	}
	return t, nil
}

// ParseForm turns raw checkbox values into the fields of an annotation of
// category c. Only the category's checks are kept.
func ParseForm(c types.Category, form map[string]string) (types.AnnotationFields, error) {
	d, err := types.DescriptorFor(c)
	if err != nil {
		return types.AnnotationFields{}, err
	}
	return types.AnnotationFields{
		Checks: d.ParseChecks(form),
		Notes:  form[types.NotesField],
	}, nil
}

// Save appends an annotation. The id is one more than the largest id in
// the table, shared across categories. Save does not check for an existing
// annotation by the same annotator; see SaveUnique.
func (s *Store) Save(submissionID int, c types.Category, annotator string, fields types.AnnotationFields) error {
	return s.save(submissionID, c, annotator, fields, false)
}

// SaveUnique is Save with the already-annotated check done under the same
// table lock. It returns types.ErrAlreadyAnnotated when annotator has
// already reviewed the submission.
func (s *Store) SaveUnique(submissionID int, c types.Category, annotator string, fields types.AnnotationFields) error {
	return s.save(submissionID, c, annotator, fields, true)
}

func (s *Store) save(submissionID int, c types.Category, annotator string, fields types.AnnotationFields, unique bool) error {
	if !c.Valid() {
		return fmt.Errorf("save annotation: %w: %s", types.ErrInvalidCategory, c)
	}
	if submissionID <= 0 || submissionID > types.MaxID {
		return fmt.Errorf("save annotation: %w: %d", types.ErrInvalidID, submissionID)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode annotation fields: %w", err)
	}
	t, err := s.table()
	if err != nil {
		return err
	}

	var id int
	err = t.Update(func(rows []types.Row) ([]types.Row, error) {
		if unique && hasAnnotation(rows, submissionID, c, annotator) {
			return nil, types.ErrAlreadyAnnotated
		}
		var err error
		if id, err = types.NextID(rows); err != nil {
			return nil, err
		}
		return append(rows, types.Row{
			types.ColumnID:           strconv.Itoa(id),
			types.ColumnSubmissionID: strconv.Itoa(submissionID),
			types.ColumnCategory:     string(c),
			types.ColumnFieldsJSON:   string(payload),
			types.ColumnUser:         annotator,
			types.ColumnCreatedAt:    types.FormatTimestamp(s.now()),
		}), nil
	})
	if err != nil {
		return fmt.Errorf("save annotation: %w", err)
	}
	s.log.Info("annotation saved", "id", id, "submission_id", submissionID, "category", string(c), "user", annotator)
	return nil
}

// ListAll returns every annotation in storage order. Rows whose fields
// cannot be decoded are returned with empty fields.
func (s *Store) ListAll() ([]types.Annotation, error) {
	t, err := s.table()
	if err != nil {
		return nil, err
	}
	rows, err := t.Rows()
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	out := make([]types.Annotation, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toAnnotation(row))
	}
	return out, nil
}

// ListFor returns the fields of every annotation of the given submission.
func (s *Store) ListFor(submissionID int, c types.Category) ([]types.AnnotationFields, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	var out []types.AnnotationFields
	for _, a := range all {
		if a.SubmissionID == submissionID && a.Category == c {
			out = append(out, a.Fields)
		}
	}
	return out, nil
}

// AlreadyAnnotated reports whether annotator has reviewed the submission.
func (s *Store) AlreadyAnnotated(submissionID int, c types.Category, annotator string) (bool, error) {
	t, err := s.table()
	if err != nil {
		return false, err
	}
	rows, err := t.Rows()
	if err != nil {
		return false, fmt.Errorf("check annotation: %w", err)
	}
	return hasAnnotation(rows, submissionID, c, annotator), nil
}

func hasAnnotation(rows []types.Row, submissionID int, c types.Category, annotator string) bool {
	for _, row := range rows {
		id, ok := types.ParseID(row[types.ColumnSubmissionID])
		if ok && id == submissionID && row[types.ColumnCategory] == string(c) && row[types.ColumnUser] == annotator {
			return true
		}
	}
	return false
}

func (s *Store) toAnnotation(row types.Row) types.Annotation {
	id, _ := types.ParseID(row[types.ColumnID])
	subID, _ := types.ParseID(row[types.ColumnSubmissionID])
	a := types.Annotation{
		ID:           id,
		SubmissionID: subID,
		Category:     types.Category(row[types.ColumnCategory]),
		Annotator:    row[types.ColumnUser],
		CreatedAt:    types.ParseTimestamp(row[types.ColumnCreatedAt]),
	}
	if raw := row[types.ColumnFieldsJSON]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &a.Fields); err != nil {
			s.log.Warn("undecodable annotation fields", "id", id, "error", err)
			a.Fields = types.AnnotationFields{}
		}
	}
	if a.Fields.Checks == nil {
		a.Fields.Checks = map[string]int{}
	}
	return a
}
