package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasLetter(t *testing.T) {
	require.True(t, HasLetter("abc"))
	require.True(t, HasLetter("123x"))
	require.False(t, HasLetter("12345"))
	require.False(t, HasLetter(""))
	require.False(t, HasLetter("!?."))
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "hello", TruncateRunes("hello", 10))
	require.Equal(t, "hello", TruncateRunes("hello", 5))
	require.Equal(t, "hel...", TruncateRunes("hello", 3))
	// rune-aware, not byte-aware
	require.Equal(t, "héll...", TruncateRunes("héllo wörld", 4))
}

func TestTitleFromPrompt(t *testing.T) {
	require.Equal(t, "", TitleFromPrompt(""))
	require.Equal(t, "", TitleFromPrompt("   "))
	require.Equal(t, "A circle", TitleFromPrompt("a circle"))
	require.Equal(t, "Draw me a blue square", TitleFromPrompt("draw me a blue square"))
	require.Equal(t, "Draw me a blue square...", TitleFromPrompt("draw me a blue square that rotates"))
	// whitespace collapses before counting words
	require.Equal(t, "A b", TitleFromPrompt("  a   b  "))
}
