package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/facilisimo/sorteos/internal/assets"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImages struct {
	ready bool
	set   assets.Set
}

func (s stubImages) Ready() bool     { return s.ready }
func (s stubImages) Set() assets.Set { return s.set }

func pngImage(t *testing.T, name string) *assets.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 255, G: 221, B: 51, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &assets.Image{Name: name, Type: "PNG", Data: buf.Bytes()}
}

func sampleReport(n int) *models.WinnersReport {
	report := &models.WinnersReport{
		Title:       "Sorteo de Otoño 🎉",
		Criterion:   &models.SearchCriterion{Tipo: models.SearchNumber, Valor: "123"},
		GeneratedAt: time.Date(2026, time.October, 19, 14, 3, 5, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		report.Winners = append(report.Winners, models.CommentBlock{
			Username: "juanperez",
			Comment:  "¡Quiero ganar! 123 🎉 " + strings.Repeat("participo ", i%4),
			Platform: models.PlatformInstagram,
		})
	}
	return report
}

func TestStripPictographs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Quiero ganar! 123 🎉", "Quiero ganar! 123 "},
		{"❤️ sí", " sí"},
		{"👨‍👩‍👧 familia", " familia"},
		{"★ estrella ☀", " estrella "},
		{"¡Participo! ñandú", "¡Participo! ñandú"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripPictographs(tt.input))
		})
	}
}

func TestRows(t *testing.T) {
	rows := Rows([]models.CommentBlock{
		{Username: "juan", Comment: "123 🎉", Platform: models.PlatformInstagram},
		{Username: "Ana Gómez", Comment: "hola", Platform: models.PlatformFacebook},
		{Username: "Carla", Comment: "Nombre en lista: Carla"},
		{Username: "lu🌸", Comment: "🌸 yo"},
	})

	assert.Equal(t, []Row{
		{Index: 1, Username: "juan", Comment: "123 ", Platform: "Instagram"},
		{Index: 2, Username: "Ana Gómez", Comment: "hola", Platform: "Facebook"},
		{Index: 3, Username: "Carla", Comment: "Nombre en lista: Carla", Platform: ""},
		{Index: 4, Username: "lu🌸", Comment: " yo", Platform: ""},
	}, rows, "only comment text loses its pictographs")
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, time.March, 5, 9, 7, 59, 0, time.Local)
	assert.Equal(t, "Ganadores_Sorteo_2026-03-05_09-07.pdf", FileName(at))
}

func TestDateLine(t *testing.T) {
	at := time.Date(2026, time.October, 19, 14, 3, 5, 0, time.UTC)
	assert.Equal(t, "Fecha: lunes, 19 de octubre de 2026 - 14:03:05", DateLine(at))

	at = time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "Fecha: sábado, 1 de agosto de 2026 - 08:00:00", DateLine(at))
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "\xa1Hola ni\xf1o!", latin1("¡Hola niño!"))
	assert.Equal(t, "? ok", latin1("字 ok"))
	assert.Equal(t, "Sorteo ?", latin1("Sorteo 🎉"))
}

func TestPDFExporter_NotReady(t *testing.T) {
	exporter := NewPDFExporter(stubImages{ready: false})

	var buf bytes.Buffer
	err := exporter.Write(&buf, sampleReport(1))
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, buf.Len())
}

func TestPDFExporter_EmptyReport(t *testing.T) {
	exporter := NewPDFExporter(stubImages{ready: true})

	_, err := exporter.Render(&models.WinnersReport{Title: "Vacío"})
	assert.ErrorIs(t, err, ErrEmptyReport)

	_, err = exporter.Render(nil)
	assert.ErrorIs(t, err, ErrEmptyReport)
}

func TestPDFExporter_RendersWithoutImages(t *testing.T) {
	exporter := NewPDFExporter(stubImages{ready: true})

	data, err := exporter.Render(sampleReport(3))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFExporter_RendersImagesAndPages(t *testing.T) {
	exporter := NewPDFExporter(stubImages{
		ready: true,
		set: assets.Set{
			Logo:       pngImage(t, "logo"),
			Watermark:  pngImage(t, "watermark"),
			FooterLogo: pngImage(t, "footer"),
		},
	})

	one, err := exporter.Render(sampleReport(1))
	require.NoError(t, err)

	many, err := exporter.Render(sampleReport(60))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(many, []byte("%PDF-")))
	assert.Equal(t, 1, bytes.Count(one, []byte("/Type /Page\n")))
	assert.Greater(t, bytes.Count(many, []byte("/Type /Page\n")), 1, "long tables continue on new pages")
}
