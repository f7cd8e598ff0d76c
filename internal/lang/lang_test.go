package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForExtensionReturnsRegisteredSpec(t *testing.T) {
	spec := ForExtension(".go")
	require.NotNil(t, spec)
	require.Equal(t, Go, spec.Language)
}

func TestForExtensionUnknownIsNil(t *testing.T) {
	require.Nil(t, ForExtension(".zig"))
}

func TestForExtensionTagReportsUnknown(t *testing.T) {
	l, ok := ForExtensionTag(".zig")
	require.False(t, ok)
	require.Equal(t, Unknown, l)

	l, ok = ForExtensionTag(".py")
	require.True(t, ok)
	require.Equal(t, Python, l)
}

func TestForLanguageMatchesForExtension(t *testing.T) {
	byExt := ForExtension(".rs")
	byLang := ForLanguage(Rust)
	require.Same(t, byExt, byLang)
}

func TestAllListsFiveSupportedLanguages(t *testing.T) {
	require.ElementsMatch(t, []Language{Go, Python, TypeScript, TSX, JavaScript, Rust}, All())
}
