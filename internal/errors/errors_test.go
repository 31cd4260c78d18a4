package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSetsMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("hearing %s not found", "h1").
		Category(CategoryNotFound).
		Component("datastore").
		Context("hearing_id", "h1").
		Build()

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, CategoryNotFound, ee.Category)
	assert.Equal(t, "datastore", ee.Component)
	assert.Equal(t, "h1", ee.Context["hearing_id"])
	assert.Equal(t, "hearing h1 not found", err.Error())
}

func TestBuildPreservesPriorMetadata(t *testing.T) {
	t.Parallel()

	inner := Newf("constraint violated").
		Category(CategoryDatabase).
		Context("table", "comments").
		Build()

	outer := New(fmt.Errorf("saving comment: %w", inner)).
		Component("importer").
		Context("comment_id", "245").
		Build()

	var ee *EnhancedError
	require.True(t, As(outer, &ee))
	assert.Equal(t, CategoryDatabase, ee.Category)
	assert.Equal(t, "importer", ee.Component)
	assert.Equal(t, "comments", ee.Context["table"])
	assert.Equal(t, "245", ee.Context["comment_id"])
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
	assert.Equal(t, CategoryValidation,
		CategoryOf(Newf("empty content").Category(CategoryValidation).Build()))
}

func TestIsMatchesByCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryConflict).Build()
	b := Newf("b").Category(CategoryConflict).Build()
	c := Newf("c").Category(CategoryNotFound).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}
