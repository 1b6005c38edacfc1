package annotations

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/mesh-intelligence/storybench/internal/records"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// MaxAnnotations is the number of reviews after which a submission is no
// longer offered for annotation.
const MaxAnnotations = 3

// Selector picks the next submission for an annotator to review.
type Selector struct {
	records     *records.Store
	annotations *Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector. A nil rng uses the global source.
func NewSelector(rs *records.Store, as *Store, rng *rand.Rand) *Selector {
	return &Selector{records: rs, annotations: as, rng: rng}
}

// Eligible returns the submissions of category c that annotator may
// review: not their own, not already reviewed by them, and holding fewer
// than MaxAnnotations reviews. Storage order is kept.
func (s *Selector) Eligible(c types.Category, annotator string) ([]types.Submission, error) {
	subs, err := s.records.ListAll(c)
	if err != nil {
		return nil, fmt.Errorf("eligible %s: %w", c, err)
	}
	all, err := s.annotations.ListAll()
	if err != nil {
		return nil, fmt.Errorf("eligible %s: %w", c, err)
	}

	counts := make(map[int]int)
	mine := make(map[int]bool)
	for _, a := range all {
		if a.Category != c {
			continue
		}
		counts[a.SubmissionID]++
		if a.Annotator == annotator {
			mine[a.SubmissionID] = true
		}
	}

	var out []types.Submission
	for _, sub := range subs {
		if sub.Owner == annotator || mine[sub.ID] || counts[sub.ID] >= MaxAnnotations {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

// Next returns one eligible submission chosen uniformly at random. ok is
// false when nothing is eligible.
func (s *Selector) Next(c types.Category, annotator string) (sub types.Submission, ok bool, err error) {
	if !c.Valid() {
		return types.Submission{}, false, fmt.Errorf("next: %w: %s", types.ErrInvalidCategory, c)
	}
	eligible, err := s.Eligible(c, annotator)
	if err != nil {
		return types.Submission{}, false, err
	}
	if len(eligible) == 0 {
		return types.Submission{}, false, nil
	}
	return eligible[s.intN(len(eligible))], true, nil
}

func (s *Selector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
