package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	t.Setenv("BOARD_TEST_STRING", "  value ")
	assert.Equal(t, "value", String("BOARD_TEST_STRING", "fallback"))

	t.Setenv("BOARD_TEST_STRING", "   ")
	assert.Equal(t, "fallback", String("BOARD_TEST_STRING", "fallback"))
}

func TestRequiredString(t *testing.T) {
	t.Setenv("BOARD_TEST_REQUIRED", "")
	_, err := RequiredString("BOARD_TEST_REQUIRED")
	require.Error(t, err)

	t.Setenv("BOARD_TEST_REQUIRED", "postgres://x")
	v, err := RequiredString("BOARD_TEST_REQUIRED")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", v)
}

func TestPort(t *testing.T) {
	t.Setenv("BOARD_TEST_PORT", "70000")
	_, err := Port("BOARD_TEST_PORT", "8080")
	require.Error(t, err)

	t.Setenv("BOARD_TEST_PORT", "")
	p, err := Port("BOARD_TEST_PORT", "8080")
	require.NoError(t, err)
	assert.Equal(t, "8080", p)
}

func TestTypedValues(t *testing.T) {
	t.Setenv("BOARD_TEST_INT", "25")
	n, err := Int("BOARD_TEST_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	t.Setenv("BOARD_TEST_INT", "-3")
	_, err = Int("BOARD_TEST_INT", 1)
	require.Error(t, err)

	t.Setenv("BOARD_TEST_DURATION", "750ms")
	d, err := Duration("BOARD_TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, d)

	t.Setenv("BOARD_TEST_DURATION", "soon")
	_, err = Duration("BOARD_TEST_DURATION", time.Second)
	require.Error(t, err)

	t.Setenv("BOARD_TEST_BOOL", "")
	b, err := Bool("BOARD_TEST_BOOL", true)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("BOARD_TEST_BOOL", "false")
	b, err = Bool("BOARD_TEST_BOOL", true)
	require.NoError(t, err)
	assert.False(t, b)
}
