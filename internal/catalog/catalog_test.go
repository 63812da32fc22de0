package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	styles := c.Styles()
	require.Len(t, styles, 10)
	assert.Equal(t, models.DefaultStyle, styles[0].ID)
	for _, s := range styles {
		assert.NotEmpty(t, s.Label, s.ID)
		assert.NotEmpty(t, s.Description, s.ID)
	}

	var codes []string
	for _, l := range c.Languages() {
		codes = append(codes, l.Code)
	}
	assert.Equal(t, []string{"en", "es", "pt", "fr", "zh"}, codes)
}

func TestCatalogLookup(t *testing.T) {
	c := MustDefault()

	s, err := c.Style("listicle")
	require.NoError(t, err)
	assert.Equal(t, "Bài liệt kê", s.Label)

	_, err = c.Style("haiku")
	assert.True(t, apperrors.IsConfigurationError(err))

	l, err := c.Language("en")
	require.NoError(t, err)
	assert.Equal(t, "Anh", l.Name)

	_, err = c.Language("de")
	assert.True(t, apperrors.IsConfigurationError(err))
	_, err = c.Language(models.OriginalLanguage)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestCatalogListsAreCopies(t *testing.T) {
	c := MustDefault()
	styles := c.Styles()
	styles[0].Label = "changed"
	assert.NotEqual(t, "changed", c.Styles()[0].Label)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: "styles:\n  - id: a\n    label: A\nlanguages:\n  - code: en\n    name: Anh\n",
		},
		{
			name:    "duplicate style",
			yaml:    "styles:\n  - id: a\n    label: A\n  - id: a\n    label: B\n",
			wantErr: true,
		},
		{
			name:    "style without label",
			yaml:    "styles:\n  - id: a\n",
			wantErr: true,
		},
		{
			name:    "original is reserved",
			yaml:    "languages:\n  - code: original\n    name: X\n",
			wantErr: true,
		},
		{
			name:    "duplicate language",
			yaml:    "languages:\n  - code: en\n    name: A\n  - code: en\n    name: B\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "styles: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
