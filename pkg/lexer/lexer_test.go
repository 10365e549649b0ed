package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kconfig-ls/pkg/lexer"
	"github.com/walteh/kconfig-ls/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeTilesSource(t *testing.T) {
	src := []byte("config FOO\n\tbool \"Foo\"\n")
	toks := lexer.Tokenize(src)
	require.NotEmpty(t, toks)

	// every byte belongs to exactly one token: spans must be contiguous and
	// the final token must be EOF at len(src).
	pos := 0
	for _, tk := range toks[:len(toks)-1] {
		assert.Equal(t, pos, tk.Span.Lo, "token %+v does not start where the previous one ended", tk)
		pos = tk.Span.Hi
	}
	assert.Equal(t, len(src), pos)
	last := toks[len(toks)-1]
	assert.Equal(t, token.EOF, last.Kind)
	assert.Equal(t, len(src), last.Span.Lo)
}

func TestTokenizeRecognizesKeywordsAndIdents(t *testing.T) {
	toks := lexer.Tokenize([]byte("config FOO"))
	var significant []token.Token
	for _, tk := range toks {
		if tk.Kind == token.Whitespace || tk.Kind == token.EOF {
			continue
		}
		significant = append(significant, tk)
	}
	require.Len(t, significant, 2)
	assert.Equal(t, token.Keyword, significant[0].Kind)
	assert.Equal(t, "config", significant[0].KeywordName)
	assert.Equal(t, token.Ident, significant[1].Kind)
	assert.Equal(t, "FOO", significant[1].Value)
}

func TestTokenizeLegacyHelpMarker(t *testing.T) {
	toks := lexer.Tokenize([]byte("---help---\n"))
	require.Equal(t, token.Keyword, toks[0].Kind)
	assert.True(t, toks[0].Legacy)
	assert.Equal(t, "---help---", toks[0].KeywordName)
}

func TestTokenizeUnterminatedStringIsFlagged(t *testing.T) {
	toks := lexer.Tokenize([]byte("\"unterminated"))
	require.Equal(t, token.StringLit, toks[0].Kind)
	assert.True(t, toks[0].Err)
}

func TestTokenizeStrayBackslashIsError(t *testing.T) {
	toks := lexer.Tokenize([]byte("\\x"))
	require.Equal(t, token.Error, toks[0].Kind)
	assert.True(t, toks[0].Err)
}

func TestTokenizeLineContinuation(t *testing.T) {
	toks := lexer.Tokenize([]byte("depends on A \\\n\t&& B\n"))
	require.Contains(t, kinds(toks), token.LineContinuation)
}

func TestTokenizeNestedMacroCall(t *testing.T) {
	toks := lexer.Tokenize([]byte("$(outer,$(inner))"))
	var opens, closes int
	for _, tk := range toks {
		switch tk.Kind {
		case token.MacroOpen:
			opens++
		case token.MacroClose:
			closes++
		}
	}
	assert.Equal(t, 2, opens)
	assert.Equal(t, 2, closes)
}

func TestTokenizeNumbers(t *testing.T) {
	toks := lexer.Tokenize([]byte("0x1F -5 10"))
	var nums []token.Token
	for _, tk := range toks {
		if tk.Kind == token.Number {
			nums = append(nums, tk)
		}
	}
	require.Len(t, nums, 3)
	assert.Equal(t, "0x1F", nums[0].Value)
	assert.Equal(t, "-5", nums[1].Value)
	assert.Equal(t, "10", nums[2].Value)
}

func TestTokenizeOperators(t *testing.T) {
	toks := lexer.Tokenize([]byte("A!=B && C||D >= E"))
	var ops []token.Op
	for _, tk := range toks {
		if tk.Kind == token.Punct {
			ops = append(ops, tk.Op)
		}
	}
	assert.Equal(t, []token.Op{token.OpNotEq, token.OpAnd, token.OpOr, token.OpGreaterEq}, ops)
}
