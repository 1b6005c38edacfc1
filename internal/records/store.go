// Package records is the Record Store: it reads and upserts submissions in
// the per-category tables of a storage backend.
package records

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// Store reads and writes submissions. It holds no cached state; every call
// goes to the backend.
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

func (s *Store) table(c types.Category) (types.Descriptor, types.Table, error) {
	d, err := types.DescriptorFor(c)
	if err != nil {
		return types.Descriptor{}, nil, err
	}
	t, err := s.backend.Table(d.Table)
	if err != nil {
		return types.Descriptor{}, nil, fmt.Errorf("table %s: %w", d.Table, err)
	}
	return d, t, nil
}

// ListAll returns every submission of category c in storage order, each
// normalized to the category's field set. Rows with an unparseable id are
// returned with ID 0.
func (s *Store) ListAll(c types.Category) ([]types.Submission, error) {
	d, t, err := s.table(c)
	if err != nil {
		return nil, err
	}
	rows, err := t.Rows()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	subs := make([]types.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, toSubmission(d, row))
	}
	return subs, nil
}

// ListByOwner returns the submissions of category c owned by owner.
func (s *Store) ListByOwner(c types.Category, owner string) ([]types.Submission, error) {
	all, err := s.ListAll(c)
	if err != nil {
		return nil, err
	}
	var out []types.Submission
	for _, sub := range all {
		if sub.Owner == owner {
			out = append(out, sub)
		}
	}
	return out, nil
}

// Get returns the first submission of category c with the given id,
// regardless of owner. ok is false when none exists.
func (s *Store) Get(c types.Category, id int) (sub types.Submission, ok bool, err error) {
	all, err := s.ListAll(c)
	if err != nil {
		return types.Submission{}, false, err
	}
	for _, sub := range all {
		if sub.ID == id {
			return sub, true, nil
		}
	}
	return types.Submission{}, false, nil
}

// GetForReviewer returns the submission of category c with the given id
// that reviewer may annotate: the first such row owned by someone else.
// When every row with that id belongs to reviewer, the first of them is
// returned so the caller can refuse it.
func (s *Store) GetForReviewer(c types.Category, id int, reviewer string) (sub types.Submission, ok bool, err error) {
	all, err := s.ListAll(c)
	if err != nil {
		return types.Submission{}, false, err
	}
	var own *types.Submission
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if all[i].Owner != reviewer {
			return all[i], true, nil
		}
		if own == nil {
			own = &all[i]
		}
	}
	if own != nil {
		return *own, true, nil
	}
	return types.Submission{}, false, nil
}

// Upsert writes a submission of category c for owner from a form field bag
// and returns the id used.
//
// With id <= 0 a new row gets max(existing ids)+1, or 1 for an empty table.
// With id > 0 every row matching (id, owner) has its fields overwritten,
// keeping id, owner and created_at; when no row matches, a new row is
// inserted with the given id. The whole table is rewritten either way.
func (s *Store) Upsert(c types.Category, owner string, fields map[string]string, id int) (int, error) {
	d, t, err := s.table(c)
	if err != nil {
		return 0, err
	}
	if id > types.MaxID {
		return 0, fmt.Errorf("upsert %s: %w: %d", c, types.ErrInvalidID, id)
	}

	now := types.FormatTimestamp(s.now())
	usedID := id
	err = t.Update(func(rows []types.Row) ([]types.Row, error) {
		row := d.Row(fields)
		row[types.ColumnUser] = owner

		if id <= 0 {
			next, err := types.NextID(rows)
			if err != nil {
				return nil, err
			}
			usedID = next
			row[types.ColumnID] = strconv.Itoa(usedID)
			row[types.ColumnCreatedAt] = now
			return append(rows, row), nil
		}

		row[types.ColumnID] = strconv.Itoa(id)
		matched := false
		for i, existing := range rows {
			existingID, ok := types.ParseID(existing[types.ColumnID])
			if !ok || existingID != id || existing[types.ColumnUser] != owner {
				continue
			}
			updated := existing.Clone()
			for k, v := range row {
				updated[k] = v
			}
			if updated[types.ColumnCreatedAt] == "" {
				updated[types.ColumnCreatedAt] = now
			}
			rows[i] = updated
			matched = true
		}
		if matched {
			return rows, nil
		}

		s.log.Warn("edit matched no owned row, inserting", "category", string(c), "id", id, "user", owner)
		row[types.ColumnCreatedAt] = now
		return append(rows, row), nil
	})
	if err != nil {
		s.log.Error("upsert failed", "category", string(c), "user", owner, "error", err)
		return 0, fmt.Errorf("upsert %s: %w", c, err)
	}
	return usedID, nil
}

func toSubmission(d types.Descriptor, row types.Row) types.Submission {
	id, _ := types.ParseID(row[types.ColumnID])
	return types.Submission{
		ID:        id,
		Owner:     row[types.ColumnUser],
		Category:  d.Category,
		Fields:    d.Normalize(row),
		CreatedAt: types.ParseTimestamp(row[types.ColumnCreatedAt]),
	}
}
