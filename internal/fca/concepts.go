package fca

import (
	"fmt"
	"sort"

	"abstractor/internal/model"

	"github.com/cockroachdb/errors"
)

// RawConcept is one concept as reported by the external lattice tool:
// an explicit extent (class names) and intent (feature signatures).
type RawConcept struct {
	ID     string   `json:"id,omitempty"`
	Extent []string `json:"extent"`
	Intent []string `json:"intent"`
}

// Concept is a validated lattice concept. Extent and intent are sets
// keyed by class name and feature signature respectively.
type Concept struct {
	ID        string
	Extent    map[string]bool
	Intent    map[string]bool
	Relevance float64
}

// ExtentSize returns |extent|.
func (c *Concept) ExtentSize() int { return len(c.Extent) }

// IntentSize returns |intent|.
func (c *Concept) IntentSize() int { return len(c.Intent) }

// SortedExtent returns the extent class names in lexical order.
func (c *Concept) SortedExtent() []string { return sortedKeys(c.Extent) }

// SortedIntent returns the intent signatures in lexical order.
func (c *Concept) SortedIntent() []string { return sortedKeys(c.Intent) }

// MalformedConceptError reports a concept inconsistent with the context
// it was supposedly computed from. Fatal: it means the external tool
// and this run disagree about the input.
type MalformedConceptError struct {
	ConceptID string
	Reason    string
}

func (e *MalformedConceptError) Error() string {
	return fmt.Sprintf("malformed concept %s: %s", e.ConceptID, e.Reason)
}

// Repository holds the imported concepts plus the lattice partial order
// as id-based adjacency lists. The order is derived from intent
// inclusion (A is a child of B when A's intent strictly contains B's),
// trusting the external tool's closure guarantee rather than re-running
// the lattice computation.
type Repository struct {
	concepts []*Concept
	byID     map[string]*Concept
	children map[string][]string // immediate covers only
	parents  map[string][]string
}

// NewRepository validates raw concepts against the context and builds
// the partial order. Concepts referencing unknown classes or features
// are rejected with a MalformedConceptError naming the concept.
func NewRepository(ctx *Context, raw []RawConcept) (*Repository, error) {
	repo := &Repository{
		byID:     make(map[string]*Concept, len(raw)),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}

	for i, rc := range raw {
		id := rc.ID
		if id == "" {
			id = fmt.Sprintf("c%d", i)
		}
		if _, dup := repo.byID[id]; dup {
			return nil, &MalformedConceptError{ConceptID: id, Reason: "duplicate concept id"}
		}

		c := &Concept{
			ID:     id,
			Extent: make(map[string]bool, len(rc.Extent)),
			Intent: make(map[string]bool, len(rc.Intent)),
		}
		for _, obj := range rc.Extent {
			if !ctx.HasObject(obj) {
				return nil, &MalformedConceptError{
					ConceptID: id,
					Reason:    fmt.Sprintf("extent references unknown class %q", obj),
				}
			}
			c.Extent[obj] = true
		}
		for _, attr := range rc.Intent {
			// The tool echoes our escaped labels, but spacing may not
			// survive its round trip.
			sig := model.NormalizeSignature(UnescapeLabel(attr))
			if !ctx.HasAttribute(sig) {
				return nil, &MalformedConceptError{
					ConceptID: id,
					Reason:    fmt.Sprintf("intent references unknown feature %q", attr),
				}
			}
			c.Intent[sig] = true
		}

		repo.concepts = append(repo.concepts, c)
		repo.byID[id] = c
	}

	repo.buildOrder()
	return repo, nil
}

// buildOrder derives immediate parent/child covers from intent
// inclusion, reducing transitive edges.
func (r *Repository) buildOrder() {
	n := len(r.concepts)
	below := make([][]bool, n) // below[i][j]: i is a (transitive) child of j
	for i := range below {
		below[i] = make([]bool, n)
	}

	for i, a := range r.concepts {
		for j, b := range r.concepts {
			if i == j {
				continue
			}
			below[i][j] = strictSuperset(a.Intent, b.Intent)
		}
	}

	for i := range r.concepts {
		for j := range r.concepts {
			if !below[i][j] {
				continue
			}
			immediate := true
			for k := range r.concepts {
				if below[i][k] && below[k][j] {
					immediate = false
					break
				}
			}
			if immediate {
				child := r.concepts[i].ID
				parent := r.concepts[j].ID
				r.children[parent] = append(r.children[parent], child)
				r.parents[child] = append(r.parents[child], parent)
			}
		}
	}

	for id := range r.children {
		sort.Strings(r.children[id])
	}
	for id := range r.parents {
		sort.Strings(r.parents[id])
	}
}

// ByID looks up a concept.
func (r *Repository) ByID(id string) (*Concept, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns every concept in import order.
func (r *Repository) All() []*Concept {
	return r.concepts
}

// Children returns the immediate subconcepts of the given concept.
func (r *Repository) Children(id string) []*Concept {
	return r.resolve(r.children[id])
}

// Parents returns the immediate superconcepts of the given concept.
func (r *Repository) Parents(id string) []*Concept {
	return r.resolve(r.parents[id])
}

// Descendants returns all transitive subconcepts, cycle-safe.
func (r *Repository) Descendants(id string) []*Concept {
	var out []*Concept
	visited := map[string]bool{id: true}
	queue := append([]string(nil), r.children[id]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		if c, ok := r.byID[current]; ok {
			out = append(out, c)
		}
		queue = append(queue, r.children[current]...)
	}
	return out
}

// WithMinIntent returns concepts whose intent has at least k features.
func (r *Repository) WithMinIntent(k int) []*Concept {
	var out []*Concept
	for _, c := range r.concepts {
		if c.IntentSize() >= k {
			out = append(out, c)
		}
	}
	return out
}

// EmptyExtent returns concepts the tool reported without any objects.
func (r *Repository) EmptyExtent() []*Concept {
	var out []*Concept
	for _, c := range r.concepts {
		if c.ExtentSize() == 0 {
			out = append(out, c)
		}
	}
	return out
}

func (r *Repository) resolve(ids []string) []*Concept {
	out := make([]*Concept, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func strictSuperset(a, b map[string]bool) bool {
	if len(a) <= len(b) {
		return false
	}
	for k := range b {
		if !a[k] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsMalformedConcept reports whether err wraps a MalformedConceptError.
func IsMalformedConcept(err error) bool {
	var target *MalformedConceptError
	return errors.As(err, &target)
}
