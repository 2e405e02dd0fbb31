package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	assert.Equal(t, ParseResult{}, Parse(""))
	assert.Equal(t, ParseResult{}, Parse("   \t "))
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("skills")
	assert.Equal(t, "skills", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_Lowercase(t *testing.T) {
	result := Parse("FLIP 10 Fairy")
	assert.Equal(t, "flip", result.Command)
}

func TestParse_WithArgs(t *testing.T) {
	result := Parse("save_skill Fairy 5 3 4 1")
	assert.Equal(t, "save_skill", result.Command)
	assert.Equal(t, []string{"Fairy", "5", "3", "4", "1"}, result.Args)
}

func TestParse_ExtraWhitespace(t *testing.T) {
	result := Parse("  roll   -20 \t  Frenzy  ")
	assert.Equal(t, "roll", result.Command)
	assert.Equal(t, []string{"-20", "Frenzy"}, result.Args)
}

func TestParse_ArgumentCaseKept(t *testing.T) {
	result := Parse("Join 1A2B 5 BodySack")
	assert.Equal(t, "join", result.Command)
	assert.Equal(t, []string{"1A2B", "5", "BodySack"}, result.Args)
}

func TestParse_BangPrefix(t *testing.T) {
	result := Parse("!Clash 10 Fairy")
	assert.Equal(t, "clash", result.Command)
	assert.Equal(t, []string{"10", "Fairy"}, result.Args)

	assert.Equal(t, "", Parse("!").Command)
	assert.Equal(t, "!who", Parse("!!who").Command, "only one prefix is removed")
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`!?[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		if result.Command != strings.ToLower(strings.TrimPrefix(word, Prefix)) {
			t.Fatalf("Parse(%q).Command = %q", word, result.Command)
		}
	})
}

func TestPropertyParseArgsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmd := rapid.StringMatching(`[a-z_]{1,10}`).Draw(t, "cmd")
		args := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z0-9-]{1,8}`), 0, 6).Draw(t, "args")
		gap := rapid.SampledFrom([]string{" ", "  ", "\t"}).Draw(t, "gap")
		result := Parse(strings.Join(append([]string{cmd}, args...), gap))
		if result.Command != cmd {
			t.Fatalf("command %q, want %q", result.Command, cmd)
		}
		if len(result.Args) != len(args) {
			t.Fatalf("args %q, want %q", result.Args, args)
		}
		for i := range args {
			if result.Args[i] != args[i] {
				t.Fatalf("arg %d = %q, want %q", i, result.Args[i], args[i])
			}
		}
	})
}
