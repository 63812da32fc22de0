package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Corphon/TubeScribe/internal/models"
)

func TestNewContentState(t *testing.T) {
	s := NewContentState()

	assert.Len(t, s.Blocks, 4)
	for _, k := range models.AllArtifactKinds {
		assert.Equal(t, models.ContentBlock{}, s.Blocks[k])
		assert.False(t, s.Busy[k])
	}
	assert.Equal(t, models.DefaultScriptOptions(), s.Options)
	assert.False(t, s.Generating)
}

func TestContentStateTransitionsArePure(t *testing.T) {
	s := NewContentState()
	next := s.WithGenerated(models.KindScript, "SCRIPT").WithBusy(models.KindTitle, true).WithError(models.KindTags, "x")

	assert.Empty(t, s.Blocks[models.KindScript].Original)
	assert.False(t, s.Busy[models.KindTitle])
	assert.Empty(t, s.Errors)
	assert.Zero(t, s.Version)

	assert.Equal(t, "SCRIPT", next.Blocks[models.KindScript].Original)
	assert.True(t, next.Busy[models.KindTitle])
	assert.Equal(t, uint64(3), next.Version)
}

func TestWithGeneratedReplacesWholeBlock(t *testing.T) {
	s := NewContentState().
		WithGenerated(models.KindTitle, "Xin chào").
		WithDisplay(models.KindTitle, "Hello").
		WithGenerated(models.KindScript, "SCRIPT")

	s = s.WithGenerated(models.KindTitle, "Tiêu đề mới")

	assert.Equal(t, models.NewContentBlock("Tiêu đề mới"), s.Blocks[models.KindTitle])
	assert.Equal(t, models.NewContentBlock("SCRIPT"), s.Blocks[models.KindScript])
}

func TestWithDisplayAndRevert(t *testing.T) {
	s := NewContentState().WithGenerated(models.KindTitle, "Xin chào")

	translated := s.WithDisplay(models.KindTitle, "Hello")
	assert.Equal(t, "Xin chào", translated.Blocks[models.KindTitle].Original)
	assert.Equal(t, "Hello", translated.Blocks[models.KindTitle].Display)
	assert.True(t, translated.Blocks[models.KindTitle].IsTranslated())

	reverted := translated.Reverted(models.KindTitle)
	assert.Equal(t, models.NewContentBlock("Xin chào"), reverted.Blocks[models.KindTitle])

	// 重复恢复不改变原文
	again := reverted.Reverted(models.KindTitle)
	assert.Equal(t, reverted.Blocks, again.Blocks)
}

func TestSubmittedResetsBlocksAndErrors(t *testing.T) {
	opts := models.ScriptOptions{WordCount: 500, Style: "listicle", Temperature: 0.5}
	s := NewContentState().
		WithGenerated(models.KindScript, "old").
		WithError(models.KindTitle, "boom").
		WithNotice("notice")

	s = s.Submitted("Lịch sử cà phê", opts)

	assert.Equal(t, models.NewGenerationResult(), s.Blocks)
	assert.Empty(t, s.Errors)
	assert.Empty(t, s.Notice)
	assert.True(t, s.Generating)
	assert.Equal(t, "Lịch sử cà phê", s.Idea)
	assert.Equal(t, opts, s.Options)

	assert.False(t, s.Finished().Generating)
}

func TestSuccessfulTransitionClearsKindError(t *testing.T) {
	s := NewContentState().WithError(models.KindTags, "Không thể tạo lại thẻ tags.")
	s = s.WithGenerated(models.KindTags, "a, b, c")
	assert.NotContains(t, s.Errors, models.KindTags)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewContentState().WithGenerated(models.KindScript, "SCRIPT")
	c := s.Clone()

	c.Blocks[models.KindScript] = models.NewContentBlock("changed")
	c.Busy[models.KindScript] = true
	c.Errors[models.KindScript] = "x"

	assert.Equal(t, "SCRIPT", s.Blocks[models.KindScript].Original)
	assert.False(t, s.Busy[models.KindScript])
	assert.Empty(t, s.Errors)
}
