// Package scoring computes quality scores of submissions from their
// annotations and summarizes what an annotator has reviewed.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/mesh-intelligence/storybench/internal/annotations"
	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/internal/records"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// MaxScore is the score of a submission whose every check passed.
const MaxScore = 100

// CategoryScore is the average annotation score of a user's submissions in
// one category.
type CategoryScore struct {
	Score float64 `json:"score"`
	Max   int     `json:"max"`
	Count int     `json:"count"`
}

// CategoryActivity summarizes the annotations a user wrote in one category.
type CategoryActivity struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// Detail is one annotation written by the viewer, with its check totals and
// the submission it reviews. Submission is the zero value when the lookup
// failed.
type Detail struct {
	Annotation types.Annotation `json:"annotation"`
	Checked    int              `json:"checked"`
	MaxFields  int              `json:"max_fields"`
	Submission types.Submission `json:"submission"`
}

// Activity is the annotator-side summary.
type Activity struct {
	ByCategory map[types.Category]CategoryActivity `json:"by_category"`
	Total      int                                 `json:"total"`
	Details    []Detail                            `json:"details"`
}

// Aggregator reads submissions and annotations and derives scores.
type Aggregator struct {
	records     *records.Store
	annotations *annotations.Store
	log         *logger.Logger
}

// NewAggregator returns an Aggregator.
func NewAggregator(rs *records.Store, as *annotations.Store, log *logger.Logger) *Aggregator {
	return &Aggregator{records: rs, annotations: as, log: logger.OrNop(log)}
}

// percent is the share of passed checks in one annotation, 0..100.
func percent(a types.Annotation) (checked, maxFields int, pct float64) {
	d := a.Category.Descriptor()
	maxFields = len(d.Checks)
	checked = a.Fields.Checked(d.Checks)
	if maxFields == 0 {
		return checked, maxFields, 0
	}
	return checked, maxFields, float64(checked) / float64(maxFields) * 100
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// OwnerScores returns, for every category, the average score of the
// annotations on owner's submissions. Categories without annotations
// score 0.
func (g *Aggregator) OwnerScores(owner string) (map[types.Category]CategoryScore, error) {
	all, err := g.annotations.ListAll()
	if err != nil {
		return nil, fmt.Errorf("owner scores: %w", err)
	}

	out := make(map[types.Category]CategoryScore, len(types.Categories))
	for _, c := range types.Categories {
		subs, err := g.records.ListByOwner(c, owner)
		if err != nil {
			return nil, fmt.Errorf("owner scores: %w", err)
		}
		owned := make(map[int]bool, len(subs))
		for _, s := range subs {
			owned[s.ID] = true
		}

		var sum float64
		count := 0
		for _, a := range all {
			if a.Category != c || !owned[a.SubmissionID] {
				continue
			}
			_, _, pct := percent(a)
			sum += pct
			count++
		}
		score := CategoryScore{Max: MaxScore, Count: count}
		if count > 0 {
			score.Score = round1(sum / float64(count))
		}
		out[c] = score
	}
	return out, nil
}

// AnnotatorActivity summarizes the annotations written by annotator. Details
// are ordered newest first by created_at.
func (g *Aggregator) AnnotatorActivity(annotator string) (Activity, error) {
	all, err := g.annotations.ListAll()
	if err != nil {
		return Activity{}, fmt.Errorf("annotator activity: %w", err)
	}

	act := Activity{
		ByCategory: make(map[types.Category]CategoryActivity, len(types.Categories)),
		Details:    []Detail{},
	}
	sums := make(map[types.Category]float64)
	for _, a := range all {
		if a.Annotator != annotator {
			continue
		}
		checked, maxFields, pct := percent(a)
		ca := act.ByCategory[a.Category]
		ca.Count++
		act.ByCategory[a.Category] = ca
		sums[a.Category] += pct
		act.Total++

		act.Details = append(act.Details, Detail{
			Annotation: a,
			Checked:    checked,
			MaxFields:  maxFields,
			Submission: g.lookup(a),
		})
	}
	for _, c := range types.Categories {
		ca := act.ByCategory[c]
		if ca.Count > 0 {
			ca.AvgScore = round1(sums[c] / float64(ca.Count))
		}
		act.ByCategory[c] = ca
	}
	sort.SliceStable(act.Details, func(i, j int) bool {
		return act.Details[i].Annotation.CreatedAt.After(act.Details[j].Annotation.CreatedAt)
	})
	return act, nil
}

// lookup finds the reviewed submission. Failures yield the zero value.
func (g *Aggregator) lookup(a types.Annotation) types.Submission {
	if !a.Category.Valid() {
		return types.Submission{}
	}
	sub, ok, err := g.records.Get(a.Category, a.SubmissionID)
	if err != nil {
		g.log.Warn("submission lookup failed", "category", string(a.Category), "submission_id", a.SubmissionID, "error", err)
		return types.Submission{}
	}
	if !ok {
		return types.Submission{}
	}
	return sub
}

// StatsForUser returns the scores of user's submissions and the detail list
// of the annotations user wrote.
func (g *Aggregator) StatsForUser(user string) (map[types.Category]CategoryScore, []Detail, error) {
	scores, err := g.OwnerScores(user)
	if err != nil {
		return nil, nil, err
	}
	act, err := g.AnnotatorActivity(user)
	if err != nil {
		return nil, nil, err
	}
	return scores, act.Details, nil
}
