// Package abstraction turns scored concepts into a non-redundant set
// of abstract-class candidates.
package abstraction

import (
	"sort"
	"strings"

	"abstractor/internal/fca"
	"abstractor/internal/model"
)

// Candidate is an accepted abstraction: the classes it will cover, the
// feature signatures it will pull up, and the name assigned later.
type Candidate struct {
	Extent    map[string]bool
	Intent    map[string]bool
	Relevance float64
	Name      string
}

func (c *Candidate) SortedExtent() []string { return sortedKeys(c.Extent) }
func (c *Candidate) SortedIntent() []string { return sortedKeys(c.Intent) }

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolver widens concept extents against the source model and
// discards candidates subsumed by an already accepted one.
type Resolver struct {
	model *model.ClassModel
}

func NewResolver(m *model.ClassModel) *Resolver {
	return &Resolver{model: m}
}

// Resolve processes concepts richest-first so a broad abstraction is
// accepted before any narrower variant of it can be. A concept whose
// widened extent and intent both fit inside an accepted candidate adds
// nothing and is dropped.
func (r *Resolver) Resolve(concepts []*fca.Concept) []*Candidate {
	ordered := make([]*fca.Concept, len(concepts))
	copy(ordered, concepts)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.IntentSize() != b.IntentSize() {
			return a.IntentSize() > b.IntentSize()
		}
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		return joinedIntent(a) < joinedIntent(b)
	})

	var accepted []*Candidate
	for _, c := range ordered {
		cand := r.widen(c)
		if r.subsumed(cand, accepted) {
			continue
		}
		accepted = append(accepted, cand)
	}
	return accepted
}

// widen adds every model class that carries the whole intent, so the
// abstraction covers classes the lattice run did not group under this
// concept.
func (r *Resolver) widen(c *fca.Concept) *Candidate {
	cand := &Candidate{
		Extent:    make(map[string]bool, c.ExtentSize()),
		Intent:    make(map[string]bool, c.IntentSize()),
		Relevance: c.Relevance,
	}
	for cls := range c.Extent {
		cand.Extent[cls] = true
	}
	for sig := range c.Intent {
		// Candidate intents are compared against class feature sets,
		// which are keyed by normalized signature.
		cand.Intent[model.NormalizeSignature(sig)] = true
	}
	for _, cls := range r.model.Classes {
		if cand.Extent[cls.Name] {
			continue
		}
		if carriesAll(cls.FeatureSet(), cand.Intent) {
			cand.Extent[cls.Name] = true
		}
	}
	return cand
}

func (r *Resolver) subsumed(cand *Candidate, accepted []*Candidate) bool {
	for _, a := range accepted {
		if subset(cand.Extent, a.Extent) && subset(cand.Intent, a.Intent) {
			return true
		}
	}
	return false
}

func carriesAll(features, intent map[string]bool) bool {
	for sig := range intent {
		if !features[sig] {
			return false
		}
	}
	return true
}

func subset(inner, outer map[string]bool) bool {
	for k := range inner {
		if !outer[k] {
			return false
		}
	}
	return true
}

func joinedIntent(c *fca.Concept) string {
	return strings.Join(c.SortedIntent(), ",")
}
