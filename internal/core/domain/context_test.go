package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextQuery_Normalize(t *testing.T) {
	assert.Equal(t, DefaultContextSize, ContextQuery{}.Normalize().ContextSize)
	assert.Equal(t, DefaultContextSize, ContextQuery{ContextSize: -1}.Normalize().ContextSize)
	assert.Equal(t, 5, ContextQuery{ContextSize: 5}.Normalize().ContextSize)
}

func TestPageRequest_Normalize(t *testing.T) {
	page := PageRequest{}.Normalize()
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)

	page = PageRequest{Page: -2, PageSize: -5}.Normalize()
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)

	page = PageRequest{Page: 3, PageSize: 7}.Normalize()
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 7, page.PageSize)
}

func TestEmptyContextResult(t *testing.T) {
	result := EmptyContextResult(PageRequest{})

	assert.NotNil(t, result.Blocks)
	assert.Empty(t, result.Blocks)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, DefaultPageSize, result.Pagination.PageSize)
	assert.False(t, result.Pagination.HasMore)
	assert.Zero(t, result.Stats)
}
