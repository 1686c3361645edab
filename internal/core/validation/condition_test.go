package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition_Equality(t *testing.T) {
	c, ok := parseCondition("auth_mode == basic")
	require.True(t, ok)
	assert.Equal(t, "auth_mode", c.field)
	assert.False(t, c.negated)
	assert.Equal(t, "basic", c.literal)
}

func TestParseCondition_Negation(t *testing.T) {
	c, ok := parseCondition("enable_tls != false")
	require.True(t, ok)
	assert.True(t, c.negated)
	assert.Equal(t, "false", c.literal)
}

func TestParseCondition_QuotedLiteral(t *testing.T) {
	c, ok := parseCondition(`mode == "multi user"`)
	require.True(t, ok)
	assert.Equal(t, "multi user", c.literal)

	c, ok = parseCondition("mode == 'single'")
	require.True(t, ok)
	assert.Equal(t, "single", c.literal)
}

func TestParseCondition_Rejected(t *testing.T) {
	for _, expr := range []string{
		"",
		"auth_mode",
		"auth_mode = basic",
		"a == b && c == d",
		"2field == x",
	} {
		_, ok := parseCondition(expr)
		assert.False(t, ok, expr)
	}
}

func TestCondition_Evaluate(t *testing.T) {
	eq, _ := parseCondition("mode == basic")
	assert.True(t, eq.evaluate("basic"))
	assert.False(t, eq.evaluate("oauth"))
	assert.False(t, eq.evaluate(""))

	ne, _ := parseCondition("mode != basic")
	assert.False(t, ne.evaluate("basic"))
	assert.True(t, ne.evaluate("oauth"))
	// An unresolved field compares as empty.
	assert.True(t, ne.evaluate(""))
}
