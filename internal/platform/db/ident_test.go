package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("sales_fact"))
	assert.True(t, ValidIdentifier("_tmp2"))
	assert.False(t, ValidIdentifier("2sales"))
	assert.False(t, ValidIdentifier("sales-fact"))
	assert.False(t, ValidIdentifier("sales; drop table x"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("a23456789012345678901234567890123456789012345678901234567890abcd"))
}

func TestParseTableName(t *testing.T) {
	id, err := ParseTableName("sales_fact")
	require.NoError(t, err)
	assert.Equal(t, `"sales_fact"`, id.Sanitize())

	id, err = ParseTableName("reporting.sales_fact")
	require.NoError(t, err)
	assert.Equal(t, `"reporting"."sales_fact"`, id.Sanitize())

	_, err = ParseTableName("a.b.c")
	assert.Error(t, err)
	_, err = ParseTableName(`sales"fact`)
	assert.Error(t, err)
}
