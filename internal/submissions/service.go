// Package submissions is the category-aware facade over the Record Store:
// it validates submission forms, fans a multi-category save out to one row
// per category, and lists a user's submissions across categories.
package submissions

import (
	"fmt"

	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/internal/records"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// Service saves and lists submissions.
type Service struct {
	store *records.Store
	log   *logger.Logger
}

// NewService returns a Service backed by store.
func NewService(store *records.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: logger.OrNop(log)}
}

// Summary counts a user's submissions.
type Summary struct {
	Total      int                    `json:"total"`
	ByCategory map[types.Category]int `json:"by_category"`
}

// UserSubmissions returns owner's submissions keyed by category. Every
// category is present in the result, possibly with no entries.
func (s *Service) UserSubmissions(owner string) (map[types.Category][]types.Submission, error) {
	out := make(map[types.Category][]types.Submission, len(types.Categories))
	for _, c := range types.Categories {
		subs, err := s.store.ListByOwner(c, owner)
		if err != nil {
			return nil, err
		}
		if subs == nil {
			subs = []types.Submission{}
		}
		out[c] = subs
	}
	return out, nil
}

// Summarize counts the entries of a UserSubmissions result.
func Summarize(subs map[types.Category][]types.Submission) Summary {
	sum := Summary{ByCategory: make(map[types.Category]int, len(types.Categories))}
	for _, c := range types.Categories {
		sum.ByCategory[c] = len(subs[c])
		sum.Total += len(subs[c])
	}
	return sum
}

// Find returns owner's submission of category c with the given id, for
// pre-filling an edit form.
func (s *Service) Find(owner string, c types.Category, id int) (types.Submission, bool, error) {
	subs, err := s.store.ListByOwner(c, owner)
	if err != nil {
		return types.Submission{}, false, err
	}
	for _, sub := range subs {
		if sub.ID == id {
			return sub, true, nil
		}
	}
	return types.Submission{}, false, nil
}

// Save validates fields for every named category and then writes one row
// per category, sharing the field bag. id <= 0 creates new rows; id > 0
// edits the owner's rows with that id (see records.Store.Upsert).
//
// It returns the id written per category. Any validation failure aborts
// the save before anything is written and is returned as a
// *types.ValidationError. CRLF line endings are validated and stored as
// LF. Writes to separate categories are not transactional with each
// other: if a later category fails to write, earlier ones stay written.
func (s *Service) Save(owner string, fields map[string]string, categories []string, id int) (map[types.Category]int, error) {
	normalized := make(map[string]string, len(fields))
	for k, v := range fields {
		normalized[k] = types.NormalizeNewlines(v)
	}
	fields = normalized

	cats, err := s.validate(fields, categories)
	if err != nil {
		return nil, err
	}
	ids := make(map[types.Category]int, len(cats))
	for _, c := range cats {
		usedID, err := s.store.Upsert(c, owner, fields, id)
		if err != nil {
			return ids, fmt.Errorf("save %s submission: %w", c, err)
		}
		ids[c] = usedID
		s.log.Info("submission saved", "category", string(c), "id", usedID, "user", owner)
	}
	return ids, nil
}

func (s *Service) validate(fields map[string]string, categories []string) ([]types.Category, error) {
	verr := &types.ValidationError{}
	seenMsg := make(map[string]bool)
	add := func(msg string) {
		if !seenMsg[msg] {
			seenMsg[msg] = true
			verr.Add(msg)
		}
	}

	if len(categories) == 0 {
		add("At least one category must be selected.")
	}

	var cats []types.Category
	seenCat := make(map[types.Category]bool)
	for _, name := range categories {
		c, err := types.ParseCategory(name)
		if err != nil {
			add("Invalid category: " + name)
			continue
		}
		if seenCat[c] {
			continue
		}
		seenCat[c] = true
		cats = append(cats, c)

		if err := Validate(c, fields); err != nil {
			for _, m := range err.(*types.ValidationError).Messages {
				add(m)
			}
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return cats, nil
}
