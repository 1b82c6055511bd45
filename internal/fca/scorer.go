package fca

// ScoreConfig carries the run-scoped filter settings, threaded
// explicitly so runs stay independently testable.
type ScoreConfig struct {
	RelevanceThreshold float64
	MinExtentSize      int
}

// Scoring constants. Intent is weighted above extent because the
// number of features a concept groups predicts whether it reads as a
// meaningful abstraction better than raw class count; the boost keeps
// rich multi-feature concepts ahead of single-feature ones that win on
// extent alone.
const (
	extentWeight   = 0.4
	intentWeight   = 0.6
	richBoost      = 1.5
	richIntentSize = 3
)

// Scorer normalizes concept sizes against the run-wide maxima, which
// are computed once per repository (floored at 1 to avoid division by
// zero).
type Scorer struct {
	maxExtent int
	maxIntent int
}

// NewScorer computes the normalizers over the concepts with a
// non-empty extent. The lattice bottom concept carries every attribute
// over no class at all; counting it would inflate maxIntent and drag
// every intent score down.
func NewScorer(repo *Repository) *Scorer {
	s := &Scorer{maxExtent: 1, maxIntent: 1}
	for _, c := range repo.All() {
		if c.ExtentSize() == 0 {
			continue
		}
		if c.ExtentSize() > s.maxExtent {
			s.maxExtent = c.ExtentSize()
		}
		if c.IntentSize() > s.maxIntent {
			s.maxIntent = c.IntentSize()
		}
	}
	return s
}

// Score computes the relevance of a concept and records it on the concept.
func (s *Scorer) Score(c *Concept) float64 {
	extentScore := float64(c.ExtentSize()) / float64(s.maxExtent)
	intentScore := float64(c.IntentSize()) / float64(s.maxIntent)

	boost := 1.0
	if c.IntentSize() >= richIntentSize {
		boost = richBoost
	}

	c.Relevance = (extentWeight*extentScore + intentWeight*intentScore) * boost * 100
	return c.Relevance
}

// Filter scores every concept with a non-empty intent and splits them
// into accepted concepts (past the threshold and extent floor) and
// deferred ones: concepts the tool reported with an empty extent, which
// get a completion pass before the filter re-applies.
func (s *Scorer) Filter(repo *Repository, cfg ScoreConfig) (accepted, deferred []*Concept) {
	for _, c := range repo.All() {
		if c.IntentSize() == 0 {
			continue
		}
		s.Score(c)

		if c.ExtentSize() == 0 {
			deferred = append(deferred, c)
			continue
		}
		if s.Passes(c, cfg) {
			accepted = append(accepted, c)
		}
	}
	return accepted, deferred
}

// Passes applies the threshold and minimum-extent filter.
func (s *Scorer) Passes(c *Concept, cfg ScoreConfig) bool {
	return c.Relevance >= cfg.RelevanceThreshold && c.ExtentSize() >= cfg.MinExtentSize
}
