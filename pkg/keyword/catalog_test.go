package keyword_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kconfig-ls/pkg/keyword"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		spelling string
		wantKind keyword.Kind
		wantOK   bool
	}{
		{"config", keyword.Config, true},
		{"depends", keyword.Depends, true},
		{"---help---", keyword.Help, true},
		{"nope", 0, false},
	}
	for _, tt := range tests {
		info, ok := keyword.Lookup(tt.spelling)
		require.Equal(t, tt.wantOK, ok, tt.spelling)
		if tt.wantOK {
			assert.Equal(t, tt.wantKind, info.Kind, tt.spelling)
		}
	}
}

func TestCanonicalPrefersModernSpelling(t *testing.T) {
	info, ok := keyword.Canonical(keyword.Help)
	require.True(t, ok)
	assert.Equal(t, "help", info.Spelling)
	assert.False(t, info.Legacy)
}

func TestCompletionsExcludeLegacySpellings(t *testing.T) {
	infos := keyword.Completions(keyword.InConfig)
	for _, info := range infos {
		assert.False(t, info.Legacy, "completions should never suggest %q", info.Spelling)
	}
	var sawHelp bool
	for _, info := range infos {
		if info.Kind == keyword.Help {
			sawHelp = true
		}
	}
	assert.True(t, sawHelp, "expected help to be offered inside a config block")
}

func TestIsTristateLiteral(t *testing.T) {
	assert.True(t, keyword.IsTristateLiteral("y"))
	assert.True(t, keyword.IsTristateLiteral("m"))
	assert.True(t, keyword.IsTristateLiteral("n"))
	assert.False(t, keyword.IsTristateLiteral("YES"))
}
