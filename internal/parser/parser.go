package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/facilisimo/sorteos/internal/models"
	"github.com/sirupsen/logrus"
)

// Dialect selects the heuristics used for a platform's copy-paste format
type Dialect string

const (
	DialectInstagram Dialect = "instagram"
	DialectFacebook  Dialect = "facebook"
)

// maxDisplayNameLength bounds a Facebook display name; longer lines are comment text
const maxDisplayNameLength = 80

// ParseStats describes how many candidate blocks a paste produced
type ParseStats struct {
	Candidates int `json:"candidates"`
	Parsed     int `json:"parsed"`
	Discarded  int `json:"discarded"`
}

type extractState int

const (
	seekingUsername extractState = iota
	seekingDate
	accumulatingComment
)

// block is a run of source lines believed to hold a single comment
type block struct {
	lines []string
}

func (b block) raw() string {
	return strings.TrimSpace(strings.Join(b.lines, "\n"))
}

// Parse converts pasted comment text into comment records in input order.
// Fragments without an extractable username are dropped.
func Parse(raw string, dialect Dialect) []models.CommentBlock {
	comments, _ := ParseWithStats(raw, dialect)
	return comments
}

// ParseWithStats is Parse plus the candidate/discard counts
func ParseWithStats(raw string, dialect Dialect) ([]models.CommentBlock, ParseStats) {
	var stats ParseStats
	if dialect != DialectInstagram && dialect != DialectFacebook {
		logrus.Warnf("Unknown comment dialect %q, nothing parsed", dialect)
		return nil, stats
	}

	blocks := segment(raw)
	stats.Candidates = len(blocks)

	comments := make([]models.CommentBlock, 0, len(blocks))
	for _, b := range blocks {
		comment, ok := dialect.extract(b)
		if !ok {
			stats.Discarded++
			continue
		}
		comments = append(comments, comment)
	}
	stats.Parsed = len(comments)

	logrus.Debugf("Parsed %d %s comments from %d blocks (%d discarded)",
		stats.Parsed, dialect, stats.Candidates, stats.Discarded)
	return comments, stats
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// segment splits the paste into blocks. Without reply links blank lines
// separate paragraphs. With reply links a terminator closes a block, and a
// blank line also closes one that already holds an author and content when
// the next paragraph opens with an author followed by a date stamp.
func segment(raw string) []block {
	lines := strings.Split(normalizeNewlines(raw), "\n")
	classes := make([]lineClass, len(lines))
	byTerminator := false
	for i, line := range lines {
		classes[i] = classify(line)
		if classes[i].closes {
			byTerminator = true
		}
	}

	var blocks []block
	var current block
	content := 0
	flush := func() {
		if len(current.lines) > 0 {
			current.lines = trimTrailingBlanks(current.lines)
			blocks = append(blocks, current)
		}
		current = block{}
		content = 0
	}

	for i, line := range lines {
		c := classes[i]
		if c.kind == kindBlank {
			if !byTerminator || (content >= 2 && opensComment(lines[i+1:], classes[i+1:])) {
				flush()
				continue
			}
			if len(current.lines) > 0 {
				current.lines = append(current.lines, line)
			}
			continue
		}

		current.lines = append(current.lines, line)
		if c.kind == kindText || c.kind == kindDate {
			content++
		}
		if byTerminator && c.closes {
			flush()
		}
	}
	flush()

	return blocks
}

// opensComment reports whether the next paragraph looks like the start of a
// comment: an author line followed by a date stamp before the paragraph ends
func opensComment(lines []string, classes []lineClass) bool {
	author := false
	for i, c := range classes {
		switch c.kind {
		case kindBlank:
			if author {
				return false
			}
		case kindTerminator:
			return false
		case kindChrome:
			if isProfilePicture(strings.TrimSpace(lines[i])) {
				author = true
			}
		case kindDate:
			return author
		case kindText:
			if !author {
				author = true
				// "@handle 3 h" carries its date on the author line
				if fields := strings.Fields(lines[i]); len(fields) > 1 &&
					isDate(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), fields[0]))) {
					return true
				}
			}
		}
	}
	return false
}

func trimTrailingBlanks(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// extract runs the username → date → comment state machine over one block
func (d Dialect) extract(b block) (models.CommentBlock, bool) {
	state := seekingUsername
	var username, date string
	var body []string

	for _, line := range b.lines {
		c := classify(line)
		text := strings.TrimSpace(line)

		if state == seekingUsername {
			if c.kind == kindChrome && !isProfilePicture(text) {
				continue
			}
			if c.kind != kindText && c.kind != kindChrome {
				continue
			}
			name, rest, ok := d.username(text)
			if !ok {
				return models.CommentBlock{}, false
			}
			username = name
			state = seekingDate
			if rest == "" {
				continue
			}
			// the rest of the username line is a date or the start of the comment
			rc := classify(rest)
			switch rc.kind {
			case kindDate:
				date = rc.date
				state = accumulatingComment
			case kindText:
				body = append(body, rest)
				state = accumulatingComment
			}
			continue
		}

		switch c.kind {
		case kindBlank, kindTerminator, kindChrome:
			continue
		}

		switch state {
		case seekingDate:
			if c.kind == kindDate {
				date = c.date
				state = accumulatingComment
				continue
			}
			// Instagram repeats the handle under the profile picture line
			if text == username && len(body) == 0 {
				continue
			}
			body = append(body, text)
			state = accumulatingComment
		case accumulatingComment:
			if c.kind == kindDate && date == "" {
				date = c.date
				continue
			}
			body = append(body, text)
		}
	}

	if username == "" {
		return models.CommentBlock{}, false
	}

	return models.CommentBlock{
		Username: username,
		Comment:  strings.TrimSpace(strings.Join(body, "\n")),
		Date:     date,
		RawBlock: b.raw(),
	}, true
}

// username extracts the author from a line and returns what follows it
func (d Dialect) username(line string) (name, rest string, ok bool) {
	if m := profilePictureSpanish.FindStringSubmatch(line); m != nil {
		line = strings.TrimSpace(m[1] + " " + m[2])
	} else if m := profilePictureEnglish.FindStringSubmatch(line); m != nil {
		line = strings.TrimSpace(m[1] + " " + m[2])
	}

	switch d {
	case DialectInstagram:
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return "", "", false
		}
		handle := strings.TrimSuffix(strings.TrimPrefix(fields[0], "@"), ":")
		if !handlePattern.MatchString(handle) {
			return "", "", false
		}
		rest = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		return handle, rest, true
	case DialectFacebook:
		if isChrome(line) || isDate(line) || utf8.RuneCountInString(line) > maxDisplayNameLength {
			return "", "", false
		}
		return line, "", true
	}
	return "", "", false
}
