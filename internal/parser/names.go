package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/facilisimo/sorteos/internal/models"
)

// NameListPrefix starts the synthetic comment of every name list entry
const NameListPrefix = "Nombre en lista: "

// ParseNames turns a flat name list into comment records. Names are one per
// line and may also be separated by commas; every entry is dated now.
func ParseNames(raw string, now time.Time) []models.CommentBlock {
	date := ShortDate(now)

	var names []models.CommentBlock
	for _, line := range strings.Split(normalizeNewlines(raw), "\n") {
		for _, part := range strings.Split(line, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			comment := NameListPrefix + name
			names = append(names, models.CommentBlock{
				Username: name,
				Comment:  comment,
				Date:     date,
				RawBlock: name + "\n" + date + "\n" + comment,
			})
		}
	}
	return names
}

// ShortDate formats t the way Spanish locales print a short date (19/10/2026)
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}
