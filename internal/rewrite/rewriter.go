// Package rewrite materializes accepted abstractions into the class
// model: new abstract classes, inheritance edges, and elision of
// features now provided by an ancestor.
package rewrite

import (
	"fmt"

	"abstractor/internal/abstraction"
	"abstractor/internal/model"

	"github.com/cockroachdb/errors"
)

// ElisionInvariantViolation reports a class that still declares a
// feature one of its ancestors provides after rewriting. It indicates
// a rewriter bug and must abort the run before any output is written.
type ElisionInvariantViolation struct {
	Class    string
	Feature  string
	Ancestor string
}

func (e *ElisionInvariantViolation) Error() string {
	return fmt.Sprintf("class %q still declares %q inherited from %q", e.Class, e.Feature, e.Ancestor)
}

// IsElisionViolation reports whether err carries an
// ElisionInvariantViolation.
func IsElisionViolation(err error) bool {
	var v *ElisionInvariantViolation
	return errors.As(err, &v)
}

// Rewriter mutates one class model in place.
type Rewriter struct {
	model *model.ClassModel
}

func NewRewriter(m *model.ClassModel) *Rewriter {
	return &Rewriter{model: m}
}

// Apply materializes each named candidate in resolution order, elides
// inherited features, and verifies the result. The model must be
// discarded if Apply returns an error.
func (r *Rewriter) Apply(candidates []*abstraction.Candidate) error {
	for _, cand := range candidates {
		r.materialize(cand)
	}
	r.elide()
	return r.Verify()
}

// materialize creates the abstract class carrying exactly the
// candidate's intent and wires every extent class under it.
func (r *Rewriter) materialize(cand *abstraction.Candidate) {
	abstract := &model.Class{
		Name:     cand.Name,
		Abstract: true,
	}
	for _, sig := range cand.SortedIntent() {
		abstract.Features = append(abstract.Features, r.declaredFeature(cand, sig))
	}
	r.model.AddClass(abstract)

	for _, child := range cand.SortedExtent() {
		cls, ok := r.model.ByName(child)
		if !ok {
			continue
		}
		if hasParent(cls, cand.Name) {
			continue
		}
		cls.Parents = append(cls.Parents, cand.Name)
		r.model.AddRelationship(model.Relationship{
			Source: child,
			Target: cand.Name,
			Kind:   model.RelInheritance,
		})
	}
}

// declaredFeature recovers the declaration of sig as written in one of
// the candidate's extent classes, so the hoisted feature keeps its
// source spacing. Falls back to the normalized form when no member
// still declares it.
func (r *Rewriter) declaredFeature(cand *abstraction.Candidate, sig string) model.Feature {
	for _, child := range cand.SortedExtent() {
		cls, ok := r.model.ByName(child)
		if !ok {
			continue
		}
		for _, f := range cls.Features {
			if f.Signature() == sig {
				return f
			}
		}
	}
	return model.ParseFeature(sig)
}

// elide drops every declared feature an ancestor already provides.
// Removal is keyed on the transitive inherited set, so a second pass
// finds nothing to remove.
func (r *Rewriter) elide() {
	for _, name := range r.model.ClassNames() {
		cls, ok := r.model.ByName(name)
		if !ok {
			continue
		}
		inherited := r.model.InheritedFeatureSet(name)
		for sig := range inherited {
			cls.RemoveFeature(sig)
		}
	}
}

// Verify checks the elision closure property over the whole model.
func (r *Rewriter) Verify() error {
	for _, name := range r.model.ClassNames() {
		cls, ok := r.model.ByName(name)
		if !ok {
			continue
		}
		for _, ancestor := range r.model.Ancestors(name) {
			for _, f := range cls.Features {
				if ancestor.HasFeature(f.Signature()) {
					return &ElisionInvariantViolation{
						Class:    name,
						Feature:  f.Signature(),
						Ancestor: ancestor.Name,
					}
				}
			}
		}
	}
	return nil
}

func hasParent(cls *model.Class, parent string) bool {
	for _, p := range cls.Parents {
		if p == parent {
			return true
		}
	}
	return false
}
