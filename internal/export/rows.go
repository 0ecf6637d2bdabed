package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/facilisimo/sorteos/internal/models"
)

// Row is one line of the winners table
type Row struct {
	Index    int
	Username string
	Comment  string
	Platform string
}

// Rows builds the table body. Comments lose their pictographs because the
// PDF fonts cannot draw them.
func Rows(winners []models.CommentBlock) []Row {
	rows := make([]Row, 0, len(winners))
	for i, w := range winners {
		rows = append(rows, Row{
			Index:    i + 1,
			Username: w.Username,
			Comment:  StripPictographs(w.Comment),
			Platform: w.Platform.Label(),
		})
	}
	return rows
}

// StripPictographs removes emoji, dingbats, private use characters,
// variation selectors and zero width joiners
func StripPictographs(s string) string {
	return strings.Map(func(r rune) rune {
		if isPictograph(r) {
			return -1
		}
		return r
	}, s)
}

func isPictograph(r rune) bool {
	switch {
	case r >= 0x2011 && r <= 0x26FF:
	case r >= 0x2700 && r <= 0x27BF:
	case r >= 0xE000 && r <= 0xF8FF:
	case r >= 0xFE00 && r <= 0xFE0F:
	case r == 0x200D:
	case r >= 0x1F000:
	default:
		return false
	}
	return true
}

// FileName names the exported PDF after the local time it was made
func FileName(t time.Time) string {
	return "Ganadores_Sorteo_" + t.Format("2006-01-02_15-04") + ".pdf"
}

var (
	weekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	months   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// DateLine renders t as "Fecha: lunes, 19 de octubre de 2026 - 14:03:05"
func DateLine(t time.Time) string {
	return fmt.Sprintf("Fecha: %s, %d de %s de %d - %s",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year(), t.Format("15:04:05"))
}
