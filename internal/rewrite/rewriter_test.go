package rewrite

import (
	"testing"

	"abstractor/internal/abstraction"
	"abstractor/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(items ...string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

func classWith(name string, decls ...string) *model.Class {
	c := &model.Class{Name: name}
	for _, d := range decls {
		c.Features = append(c.Features, model.ParseFeature(d))
	}
	return c
}

func accountCandidate() *abstraction.Candidate {
	return &abstraction.Candidate{
		Name:   "Account",
		Extent: set("Customer", "Employee"),
		Intent: set("+id: int", "+email: String"),
	}
}

func TestApply_MaterializesAbstractClass(t *testing.T) {
	m := model.NewClassModel()
	m.AddClass(classWith("Customer", "+id: int", "+email: String", "+loyaltyPoints: int"))
	m.AddClass(classWith("Employee", "+id: int", "+email: String", "+salary: double"))

	require.NoError(t, NewRewriter(m).Apply([]*abstraction.Candidate{accountCandidate()}))

	abstract, ok := m.ByName("Account")
	require.True(t, ok)
	assert.True(t, abstract.Abstract)
	assert.True(t, abstract.HasFeature("+id: int"))
	assert.True(t, abstract.HasFeature("+email: String"))

	customer, _ := m.ByName("Customer")
	assert.Equal(t, []string{"Account"}, customer.Parents)
	assert.False(t, customer.HasFeature("+id: int"))
	assert.False(t, customer.HasFeature("+email: String"))
	assert.True(t, customer.HasFeature("+loyaltyPoints: int"))
}

func TestApply_AddsInheritanceRelationships(t *testing.T) {
	m := model.NewClassModel()
	m.AddClass(classWith("Customer", "+id: int", "+email: String"))
	m.AddClass(classWith("Employee", "+id: int", "+email: String"))

	require.NoError(t, NewRewriter(m).Apply([]*abstraction.Candidate{accountCandidate()}))

	var inh []model.Relationship
	for _, rel := range m.Relationships {
		if rel.Kind == model.RelInheritance {
			inh = append(inh, rel)
		}
	}
	require.Len(t, inh, 2)
	for _, rel := range inh {
		assert.Equal(t, "Account", rel.Target)
	}
}

func TestApply_TransitiveElision(t *testing.T) {
	// Employee already inherits Person; the new abstraction sits above
	// Person, and the feature must disappear from both levels.
	m := model.NewClassModel()
	person := classWith("Person", "+id: int", "+name: String")
	employee := classWith("Employee", "+id: int", "+salary: double")
	employee.Parents = []string{"Person"}
	m.AddClass(person)
	m.AddClass(employee)
	m.AddRelationship(model.Relationship{Source: "Employee", Target: "Person", Kind: model.RelInheritance})

	cand := &abstraction.Candidate{
		Name:   "Identified",
		Extent: set("Person"),
		Intent: set("+id: int"),
	}
	require.NoError(t, NewRewriter(m).Apply([]*abstraction.Candidate{cand}))

	personAfter, _ := m.ByName("Person")
	employeeAfter, _ := m.ByName("Employee")
	assert.False(t, personAfter.HasFeature("+id: int"))
	assert.False(t, employeeAfter.HasFeature("+id: int"))
	assert.True(t, employeeAfter.HasFeature("+salary: double"))
}

func TestApply_ElisionIsIdempotent(t *testing.T) {
	m := model.NewClassModel()
	m.AddClass(classWith("Customer", "+id: int", "+email: String"))
	m.AddClass(classWith("Employee", "+id: int", "+email: String"))

	r := NewRewriter(m)
	require.NoError(t, r.Apply([]*abstraction.Candidate{accountCandidate()}))

	before := snapshot(m)
	r.elide()
	require.NoError(t, r.Verify())
	assert.Equal(t, before, snapshot(m))
}

func TestVerify_ReportsViolation(t *testing.T) {
	m := model.NewClassModel()
	parent := classWith("Base", "+id: int")
	child := classWith("Derived", "+id: int")
	child.Parents = []string{"Base"}
	m.AddClass(parent)
	m.AddClass(child)

	err := NewRewriter(m).Verify()
	require.Error(t, err)
	assert.True(t, IsElisionViolation(err))
	assert.Contains(t, err.Error(), "Derived")
}

func snapshot(m *model.ClassModel) map[string][]string {
	out := make(map[string][]string)
	for _, name := range m.ClassNames() {
		cls, _ := m.ByName(name)
		var sigs []string
		for _, f := range cls.Features {
			sigs = append(sigs, f.Signature())
		}
		out[name] = sigs
	}
	return out
}
