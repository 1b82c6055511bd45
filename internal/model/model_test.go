package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeature(t *testing.T) {
	t.Run("attribute with type", func(t *testing.T) {
		f := ParseFeature("+name: String")
		assert.Equal(t, "+", f.Visibility)
		assert.Equal(t, "name", f.Name)
		assert.Equal(t, KindAttribute, f.Kind)
		assert.Equal(t, "+name:String", f.Signature())
	})

	t.Run("method", func(t *testing.T) {
		f := ParseFeature("-login(): boolean")
		assert.Equal(t, "-", f.Visibility)
		assert.Equal(t, "login", f.Name)
		assert.Equal(t, KindMethod, f.Kind)
	})

	t.Run("whitespace does not change identity", func(t *testing.T) {
		a := ParseFeature("+ id : int")
		b := ParseFeature("+id:int")
		assert.Equal(t, a.Signature(), b.Signature())
	})
}

func TestClassModel_AddClassReplaces(t *testing.T) {
	m := NewClassModel()
	m.AddClass(&Class{Name: "User", Features: []Feature{ParseFeature("+id:int")}})
	m.AddClass(&Class{Name: "User", Features: []Feature{ParseFeature("+email:String")}})

	require.Len(t, m.Classes, 1)
	c, ok := m.ByName("User")
	require.True(t, ok)
	assert.True(t, c.HasFeature("+email:String"))
	assert.False(t, c.HasFeature("+id:int"))
}

func TestClassModel_Ancestors(t *testing.T) {
	m := NewClassModel()
	m.AddClass(&Class{Name: "Entity", Features: []Feature{ParseFeature("+id:int")}})
	m.AddClass(&Class{Name: "User", Parents: []string{"Entity"}, Features: []Feature{ParseFeature("+email:String")}})
	m.AddClass(&Class{Name: "Admin", Parents: []string{"User"}})

	ancestors := m.Ancestors("Admin")
	require.Len(t, ancestors, 2)
	assert.Equal(t, "User", ancestors[0].Name)
	assert.Equal(t, "Entity", ancestors[1].Name)

	inherited := m.InheritedFeatureSet("Admin")
	assert.True(t, inherited["+id:int"])
	assert.True(t, inherited["+email:String"])
}

func TestClassModel_AncestorsCycleSafe(t *testing.T) {
	m := NewClassModel()
	m.AddClass(&Class{Name: "A", Parents: []string{"B"}})
	m.AddClass(&Class{Name: "B", Parents: []string{"A"}})

	assert.Len(t, m.Ancestors("A"), 1)
}

func TestClass_RemoveFeature(t *testing.T) {
	c := &Class{Name: "User", Features: []Feature{
		ParseFeature("+id:int"),
		ParseFeature("+email:String"),
	}}

	assert.True(t, c.RemoveFeature("+id:int"))
	assert.False(t, c.RemoveFeature("+id:int"))
	require.Len(t, c.Features, 1)
	assert.Equal(t, "email", c.Features[0].Name)
}

func TestClass_FeatureLookupIgnoresSpacing(t *testing.T) {
	c := &Class{Name: "User", Features: []Feature{
		ParseFeature("+id: int"),
		ParseFeature("+email: String"),
	}}

	t.Run("has", func(t *testing.T) {
		assert.True(t, c.HasFeature("+id:int"))
		assert.True(t, c.HasFeature("+ id : int"))
	})

	t.Run("remove", func(t *testing.T) {
		assert.True(t, c.RemoveFeature("+id:int"))
		require.Len(t, c.Features, 1)
		assert.Equal(t, "email", c.Features[0].Name)
	})
}
