package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURLEscapeLeavesUnreservedAlone(t *testing.T) {
	require.Equal(t, "abcXYZ09-_.~", URLEscape("abcXYZ09-_.~"))
	require.False(t, NeedsEscape("abcXYZ09-_.~"))
}

func TestURLEscapeEncodesReservedBytes(t *testing.T) {
	require.Equal(t, "hello%20world", URLEscape("hello world"))
	require.Equal(t, "a%2Fb%3Fc", URLEscape("a/b?c"))
	require.True(t, NeedsEscape("hello world"))
}

func TestURLEscapeEmptyString(t *testing.T) {
	require.Equal(t, "", URLEscape(""))
	require.False(t, NeedsEscape(""))
}
