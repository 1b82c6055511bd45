package fca

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiveClassRepo models the documented scoring example: five classes,
// two of which share six authentication features, and one feature
// (+id:int) shared by everyone.
func fiveClassRepo(t *testing.T) *Repository {
	t.Helper()

	shared := []string{
		"+id:int", "+nom:String", "+email:String",
		"+motDePasse:String", "+seConnecter():boolean", "+seDeconnecter():void",
	}
	classes := map[string][]string{
		"Client":      append([]string{"+adresse:String"}, shared...),
		"Employe":     append([]string{"+salaire:double"}, shared...),
		"Produit":     {"+id:int", "+prix:double"},
		"Commande":    {"+id:int", "+total:double"},
		"Fournisseur": {"+id:int", "+societe:String"},
	}
	m := buildModel(t, classes)
	ctx, err := BuildContext(m)
	require.NoError(t, err)

	repo, err := NewRepository(ctx, []RawConcept{
		{ID: "all", Extent: []string{"Client", "Employe", "Produit", "Commande", "Fournisseur"}, Intent: []string{"+id:int"}},
		{ID: "auth", Extent: []string{"Client", "Employe"}, Intent: shared},
	})
	require.NoError(t, err)
	return repo
}

func TestScore_RichConceptExample(t *testing.T) {
	repo := fiveClassRepo(t)
	scorer := NewScorer(repo)

	auth, ok := repo.ByID("auth")
	require.True(t, ok)

	// extent 2/5, intent 6/6, boost 1.5.
	assert.InDelta(t, 114.0, scorer.Score(auth), 1e-9)
}

func TestScore_SingleFeatureExample(t *testing.T) {
	repo := fiveClassRepo(t)
	scorer := NewScorer(repo)

	all, ok := repo.ByID("all")
	require.True(t, ok)

	// extent 5/5, intent 1/6, no boost below three features.
	assert.InDelta(t, 50.0, scorer.Score(all), 1e-9)
}

func TestScore_IgnoresBottomConceptInNormalizers(t *testing.T) {
	shared := []string{
		"+id:int", "+nom:String", "+email:String",
		"+motDePasse:String", "+seConnecter():boolean", "+seDeconnecter():void",
	}
	classes := map[string][]string{
		"Client":      append([]string{"+adresse:String"}, shared...),
		"Employe":     append([]string{"+salaire:double"}, shared...),
		"Produit":     {"+id:int", "+prix:double"},
		"Commande":    {"+id:int", "+total:double"},
		"Fournisseur": {"+id:int", "+societe:String"},
	}
	m := buildModel(t, classes)
	ctx, err := BuildContext(m)
	require.NoError(t, err)

	// The bottom concept carries every attribute over an empty extent.
	bottom := append([]string{"+adresse:String", "+salaire:double", "+prix:double", "+total:double", "+societe:String"}, shared...)
	repo, err := NewRepository(ctx, []RawConcept{
		{ID: "all", Extent: []string{"Client", "Employe", "Produit", "Commande", "Fournisseur"}, Intent: []string{"+id:int"}},
		{ID: "auth", Extent: []string{"Client", "Employe"}, Intent: shared},
		{ID: "bottom", Extent: nil, Intent: bottom},
	})
	require.NoError(t, err)

	scorer := NewScorer(repo)
	auth, ok := repo.ByID("auth")
	require.True(t, ok)

	// maxIntent stays at 6: the bottom concept's eleven attributes do
	// not dilute the intent score.
	assert.InDelta(t, 114.0, scorer.Score(auth), 1e-9)
}

func TestScore_MonotonicInExtentAndIntent(t *testing.T) {
	repo := fiveClassRepo(t)
	scorer := NewScorer(repo)

	extentNames := []string{"Client", "Employe", "Produit", "Commande", "Fournisseur"}
	intentSigs := []string{"+id:int", "+nom:String", "+email:String", "+motDePasse:String", "+seConnecter():boolean", "+seDeconnecter():void"}

	t.Run("extent grows, intent fixed", func(t *testing.T) {
		prev := -1.0
		for n := 1; n <= len(extentNames); n++ {
			c := conceptOf(extentNames[:n], intentSigs[:2])
			score := scorer.Score(c)
			assert.GreaterOrEqual(t, score, prev, "extent size %d", n)
			prev = score
		}
	})

	t.Run("intent grows, extent fixed", func(t *testing.T) {
		prev := -1.0
		for n := 1; n <= len(intentSigs); n++ {
			c := conceptOf(extentNames[:2], intentSigs[:n])
			score := scorer.Score(c)
			assert.GreaterOrEqual(t, score, prev, "intent size %d", n)
			prev = score
		}
	})
}

func conceptOf(extent, intent []string) *Concept {
	c := &Concept{
		ID:     fmt.Sprintf("e%d-i%d", len(extent), len(intent)),
		Extent: make(map[string]bool),
		Intent: make(map[string]bool),
	}
	for _, e := range extent {
		c.Extent[e] = true
	}
	for _, i := range intent {
		c.Intent[i] = true
	}
	return c
}

func TestFilter_SplitsAcceptedAndDeferred(t *testing.T) {
	ctx := authContext(t)
	repo, err := NewRepository(ctx, []RawConcept{
		{ID: "big", Extent: []string{"Customer", "Employee"}, Intent: []string{"+id:int", "+email:String", "+login():boolean"}},
		{ID: "weak", Extent: []string{"Order"}, Intent: []string{"+total:double"}},
		{ID: "empty", Extent: nil, Intent: []string{"+email:String"}},
	})
	require.NoError(t, err)

	scorer := NewScorer(repo)
	accepted, deferred := scorer.Filter(repo, ScoreConfig{RelevanceThreshold: 45.0, MinExtentSize: 2})

	require.Len(t, accepted, 1)
	assert.Equal(t, "big", accepted[0].ID)
	require.Len(t, deferred, 1)
	assert.Equal(t, "empty", deferred[0].ID)
}
