package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProject_LowerCases(t *testing.T) {
	project, err := NormalizeProject("Acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", project)

	project, err = NormalizeProject("  TEZOS_DOCS  ")
	require.NoError(t, err)
	assert.Equal(t, "tezos_docs", project)
}

func TestNormalizeProject_RejectsUnsafeIdentifiers(t *testing.T) {
	for _, bad := range []string{
		"",
		"1starts-with-digit",
		"has-dash",
		"has space",
		"drop table; --",
		"way_too_long_project_identifier_over_32_chars",
	} {
		_, err := NormalizeProject(bad)
		assert.Error(t, err, "project %q should be rejected", bad)
	}
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "acme_documents", table("acme", "documents"))
	assert.Equal(t, "acme_external_urls", table("acme", "external_urls"))
	assert.Equal(t, "acme_questions", table("acme", "questions"))
}
