package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/TubeScribe/internal/models"
)

func TestComposeScriptPrompt(t *testing.T) {
	style := models.WritingStyle{ID: "listicle", Label: "Danh sách", Description: "Trình bày dạng danh sách đánh số."}
	p := ComposeScriptPrompt("Lịch sử cà phê", 500, style, 0.5)

	assert.Equal(t, MasterSystemInstruction, p.System)
	assert.Contains(t, p.User, `"Lịch sử cà phê"`)
	assert.Contains(t, p.User, "approximately 500 words")
	assert.Contains(t, p.User, `"Danh sách"`)
	assert.Contains(t, p.User, "Trình bày dạng danh sách đánh số.")
	assert.Contains(t, p.User, "in Vietnamese")
	require.NotNil(t, p.Temperature)
	assert.InDelta(t, 0.5, *p.Temperature, 1e-6)
}

func TestComposeTitlePrompt(t *testing.T) {
	t.Run("script is truncated to the first 4000 characters", func(t *testing.T) {
		script := strings.Repeat("ở", 5000)
		p := ComposeTitlePrompt("idea", script, false)

		assert.Equal(t, ScriptContextLimit, strings.Count(p.User, "ở"))
		assert.Nil(t, p.Temperature)
		assert.Equal(t, MasterSystemInstruction, p.System)
	})

	t.Run("short script is kept whole", func(t *testing.T) {
		p := ComposeTitlePrompt("idea", "SCRIPT_TEXT", false)
		assert.Contains(t, p.User, `Script: "SCRIPT_TEXT"`)
	})

	t.Run("regeneration asks for a different title", func(t *testing.T) {
		first := ComposeTitlePrompt("idea", "s", false)
		again := ComposeTitlePrompt("idea", "s", true)

		assert.NotEqual(t, first.User, again.User)
		assert.Contains(t, again.User, "new, different")
		assert.NotContains(t, first.User, "new, different")
	})

	t.Run("empty script still produces a prompt", func(t *testing.T) {
		p := ComposeTitlePrompt("idea", "", false)
		assert.Contains(t, p.User, `Script: ""`)
	})
}

func TestComposeDescriptionPrompt(t *testing.T) {
	p := ComposeDescriptionPrompt("idea", strings.Repeat("a", 4500), false)
	assert.Contains(t, p.User, strings.Repeat("a", ScriptContextLimit))
	assert.NotContains(t, p.User, strings.Repeat("a", ScriptContextLimit+1))
	assert.Contains(t, p.User, "hashtags")

	again := ComposeDescriptionPrompt("idea", "s", true)
	assert.Contains(t, again.User, "new, different")
}

func TestComposeTagsPrompt(t *testing.T) {
	description := strings.Repeat("đ", 2500)
	p := ComposeTagsPrompt("Lịch sử cà phê", "TITLE_TEXT", description, false)

	assert.Equal(t, DescriptionContextLimit, strings.Count(p.User, "đ"))
	assert.Contains(t, p.User, `Title: "TITLE_TEXT"`)
	assert.Contains(t, p.User, `Core Idea: "Lịch sử cà phê"`)
	assert.Contains(t, p.User, "between 480 and 490 characters")
	assert.Contains(t, p.User, "Do not include '#'")
	assert.Contains(t, p.User, "comma-separated")
	assert.Nil(t, p.Temperature)

	again := ComposeTagsPrompt("idea", "t", "d", true)
	assert.Contains(t, again.User, "new, different set of tags")
}

func TestComposeTranslationPrompt(t *testing.T) {
	p := ComposeTranslationPrompt("Xin chào", "Anh")

	assert.Empty(t, p.System)
	assert.Contains(t, p.User, "into Anh")
	assert.Contains(t, p.User, "Xin chào")
	assert.Contains(t, p.User, "Return ONLY the translated text")
	require.NotNil(t, p.Temperature)
	assert.InDelta(t, 0.2, *p.Temperature, 1e-6)
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
		{"abc", 10, "abc"},
		{"", 4, ""},
		{"xin chào", 6, "xin ch"},
		{"cà phê", 2, "cà"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateRunes(tt.in, tt.n), "truncateRunes(%q, %d)", tt.in, tt.n)
	}
}
