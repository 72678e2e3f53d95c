package roomstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = parseVersion("0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	// A corrupt field must surface as an error, never read as version 0.
	_, err = parseVersion("")
	assert.Error(t, err)
	_, err = parseVersion("not-a-number")
	assert.Error(t, err)
	_, err = parseVersion("12abc")
	assert.Error(t, err)
}

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "room:abc", key("abc"))
}
