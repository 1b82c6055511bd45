package evaluate

import (
	"strings"
	"testing"

	"abstractor/internal/abstraction"
	"abstractor/internal/naming"

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

func TestNameRelevance_GenericAbstractNamePenalized(t *testing.T) {
	nrs := nameRelevance(naming.Result{Name: "AbstractUser", Confidence: 0.5}, nil)
	assert.InDelta(t, 0.4, nrs, 1e-9)
}

func TestNameRelevance_DescriptiveNameRewarded(t *testing.T) {
	nrs := nameRelevance(naming.Result{Name: "Authenticatable", Confidence: 0.9}, nil)
	assert.InDelta(t, 0.99, nrs, 1e-9)
}

func TestNameRelevance_ClampedAtOne(t *testing.T) {
	nrs := nameRelevance(naming.Result{Name: "IdentifiedParty", Confidence: 0.95}, nil)
	assert.LessOrEqual(t, nrs, 1.0)
}

func TestNameRelevance_EchoingFeaturePenalized(t *testing.T) {
	intent := []string{"+email: String"}
	echoing := nameRelevance(naming.Result{Name: "AbstractEmail", Confidence: 0.9}, intent)
	neutral := nameRelevance(naming.Result{Name: "AbstractThing", Confidence: 0.9}, intent)
	assert.Less(t, echoing, neutral)
}

func TestNameRelevance_PartialFeatureOverlapPenalized(t *testing.T) {
	intent := []string{"+email: String"}
	overlapping := nameRelevance(naming.Result{Name: "AbstractEmailAddress", Confidence: 0.9}, intent)
	neutral := nameRelevance(naming.Result{Name: "AbstractContactPoint", Confidence: 0.9}, intent)
	assert.Less(t, overlapping, neutral)

	// Two-letter features still only match exactly.
	short := []string{"+id: int"}
	assert.InDelta(t,
		nameRelevance(naming.Result{Name: "AbstractIdentifiable", Confidence: 0.5}, nil),
		nameRelevance(naming.Result{Name: "AbstractIdentifiable", Confidence: 0.5}, short),
		1e-9)
}

func TestAbstractionRelevance(t *testing.T) {
	// relevance 90, 2 classes, 3 features:
	// 0.6*0.9 + 0.4*min(1,(2/5+3/10)/2) = 0.54 + 0.4*0.35 = 0.68
	ars := abstractionRelevance(90, 2, 3)
	assert.InDelta(t, 0.68, ars, 1e-9)

	assert.LessOrEqual(t, abstractionRelevance(100, 50, 50), 1.0)
}

func TestEvaluate_BuildsJustifications(t *testing.T) {
	cand := &abstraction.Candidate{
		Extent:    set("Customer", "Employee"),
		Intent:    set("+id: int", "+email: String", "+login(): boolean"),
		Relevance: 90,
	}
	rec := NewReporter().Evaluate("c1", cand, naming.Result{Name: "Account", Confidence: 0.9})

	assert.Contains(t, rec.NameJustification, "Common attributes: email, id")
	assert.Contains(t, rec.NameJustification, "Common methods: login")
	assert.Contains(t, rec.NameJustification, "Shared by 2 classes")
	assert.Contains(t, rec.AbstractionReason, "2 classes")
	assert.NotEmpty(t, rec.NameScoreReason)
}

func TestExportCSV(t *testing.T) {
	r := NewReporter()
	cand := &abstraction.Candidate{
		Extent:    set("Customer", "Employee"),
		Intent:    set("+id: int"),
		Relevance: 50,
	}
	r.Evaluate("c1", cand, naming.Result{Name: "AbstractIdentifiable", Confidence: 0.5})

	var b strings.Builder
	require.NoError(t, r.ExportCSV(&b))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Name relevance score (NRS)")
	assert.Contains(t, lines[1], "c1")
	assert.Contains(t, lines[1], "AbstractIdentifiable")
}
