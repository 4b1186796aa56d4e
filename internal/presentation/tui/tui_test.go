package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/reschema/internal/catalog"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMarkdown(t *testing.T) {
	md := Markdown([]*schema.Schema{catalog.Books(), catalog.Movies(0)})

	assert.Contains(t, md, "## books")
	assert.Contains(t, md, "Namespace: `schemas.books`")
	assert.Contains(t, md, "| add | `BOOKS_ADD` | `BOOKS_ADD_SUCCESS` | `BOOKS_ADD_FAILURE` |")
	assert.Contains(t, md, "| addMovie | `MOVIES_ADD_MOVIE` | - | - |")
	assert.Contains(t, md, "Selectors: `isLoading`, `movieCount`")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintSchemas(t *testing.T) {
	var buf bytes.Buffer
	PrintSchemas(&buf, []*schema.Schema{catalog.Counter()})

	assert.Contains(t, buf.String(), "counter")
	assert.Contains(t, buf.String(), "COUNTER_ADD_ASYNC_CUSTOM_LOADING")
	assert.Contains(t, buf.String(), "selectors: dynamicSelector, fixedSelector")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, []*schema.Schema{catalog.Books()}))

	var got []Description
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "schemas.books", got[0].Path)
	assert.Equal(t, "BOOKS_ADD_FAILURE", got[0].Operations[0].FailureType)
	assert.Equal(t, []string{"count"}, got[0].Selectors)
}
