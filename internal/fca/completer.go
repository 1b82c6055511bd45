package fca

// Completer salvages concepts the lattice tool reported with an empty
// extent: features shared structurally without a single object listed
// at that node. Extents are inferred from descendant concepts, then
// re-verified against the context, since inference steps outside the
// trusted-closure guarantee the repository otherwise relies on.
type Completer struct {
	repo   *Repository
	ctx    *Context
	scorer *Scorer
}

// NewCompleter wires the completer to the run's repository and context.
func NewCompleter(repo *Repository, ctx *Context, scorer *Scorer) *Completer {
	return &Completer{repo: repo, ctx: ctx, scorer: scorer}
}

// Complete attempts to fill the extent of each deferred concept by
// unioning the extents of descendants whose intent contains the
// concept's own. Every inferred class must demonstrably carry the full
// intent; classes that don't are discarded, and concepts left with an
// empty extent are dropped. Survivors are re-scored with their inferred
// extent and must pass the regular filter.
func (cp *Completer) Complete(deferred []*Concept, cfg ScoreConfig) []*Concept {
	var completed []*Concept

	for _, c := range deferred {
		if c.IntentSize() == 0 {
			continue
		}

		inferred := make(map[string]bool)
		for _, desc := range cp.repo.Descendants(c.ID) {
			if !superset(desc.Intent, c.Intent) {
				continue
			}
			for obj := range desc.Extent {
				inferred[obj] = true
			}
		}

		// Closure re-check: only keep classes that carry every intent
		// feature in the actual model.
		for obj := range inferred {
			if !cp.ctx.CarriesAll(obj, c.Intent) {
				delete(inferred, obj)
			}
		}

		if len(inferred) == 0 {
			continue
		}

		c.Extent = inferred
		cp.scorer.Score(c)
		if cp.scorer.Passes(c, cfg) {
			completed = append(completed, c)
		}
	}

	return completed
}

func superset(a, b map[string]bool) bool {
	if len(a) < len(b) {
		return false
	}
	for k := range b {
		if !a[k] {
			return false
		}
	}
	return true
}
