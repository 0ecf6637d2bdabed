package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "paste.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_GetName(t *testing.T) {
	source := NewFileSource("instagram", "x.txt")
	assert.Equal(t, "instagram", source.GetName())
}

func TestFileSource_IsEnabled(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"path provided", "paste.txt", true},
		{"stdin", "-", true},
		{"no path", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewFileSource("instagram", tt.path).IsEnabled())
		})
	}
}

func TestFileSource_ReadStripsBOM(t *testing.T) {
	path := writeFile(t, "\uFEFFjuan\nhola")

	text, err := NewFileSource("instagram", path).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "juan\nhola", text)
}

func TestFileSource_ReadStdin(t *testing.T) {
	source := NewFileSource("nombres", "-")
	source.stdin = strings.NewReader("Ana, Beto")

	text, err := source.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana, Beto", text)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource("facebook", filepath.Join(t.TempDir(), "missing.txt")).Read(context.Background())
	assert.Error(t, err)
}

func TestFileSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource("instagram", writeFile(t, "x")).Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadInput(t *testing.T) {
	ctx := context.Background()

	t.Run("single platform", func(t *testing.T) {
		in, err := LoadInput(ctx, models.ModeInstagram, InputSources{
			Comments: NewTextSource("instagram", "juan\nhola"),
		}, "", "Sorteo")
		require.NoError(t, err)
		assert.Equal(t, session.Input{Mode: models.ModeInstagram, Comments: "juan\nhola", Title: "Sorteo"}, in)
	})

	t.Run("both platforms need at least one paste", func(t *testing.T) {
		in, err := LoadInput(ctx, models.ModeBoth, InputSources{
			Facebook: NewTextSource("facebook", "Ana\nhola"),
		}, "img.png", "")
		require.NoError(t, err)
		assert.Equal(t, "", in.Instagram)
		assert.Equal(t, "Ana\nhola", in.Facebook)
		assert.Equal(t, "img.png", in.Image)

		_, err = LoadInput(ctx, models.ModeBoth, InputSources{
			Instagram: NewTextSource("instagram", "  \n "),
		}, "", "")
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("name list", func(t *testing.T) {
		in, err := LoadInput(ctx, models.ModeNames, InputSources{
			Names: NewTextSource("nombres", "Ana\nBeto"),
		}, "", "")
		require.NoError(t, err)
		assert.Equal(t, "Ana\nBeto", in.Names)

		_, err = LoadInput(ctx, models.ModeNames, InputSources{}, "", "")
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("missing paste for single platform", func(t *testing.T) {
		_, err := LoadInput(ctx, models.ModeFacebook, InputSources{}, "", "")
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := LoadInput(ctx, models.PlatformMode("tiktok"), InputSources{}, "", "")
		assert.ErrorIs(t, err, session.ErrInvalidMode)
	})
}
