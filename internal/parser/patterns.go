package parser

import (
	"regexp"
	"strings"
)

type lineKind int

const (
	kindBlank lineKind = iota
	kindTerminator
	kindChrome
	kindDate
	kindText
)

// lineClass is the classification of a single pasted line
type lineClass struct {
	kind lineKind
	date string
	// closes is set when the line ends a comment block ("Responder", "2 sem Responder")
	closes bool
}

var (
	terminatorPattern = regexp.MustCompile(`(?i)^(responder|reply)$`)

	chromePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(me gusta|like|likes|ver traducción|ver traduccion|see translation|editado|edited|autor|author|fan destacado|top fan|verificado|verified|ocultar respuestas|hide replies|compartir|share|enviar|send|fijado|pinned|seguir|follow|·|•)$`),
		// like / reply / follower counters: "12 Me gusta", "1.234 seguidores", "5k followers"
		regexp.MustCompile(`(?i)^\d[\d.,]*\s*(k|m|mil)?\s*(me gusta|likes?|reacciones|reactions?|respuestas?|replies|seguidores|followers)$`),
		regexp.MustCompile(`(?i)^[—–─-]*\s*ver (todas )?(las |los )?(\d+ )?(respuestas?|más respuestas|mas respuestas|comentarios)( \(\d+\))?$`),
		regexp.MustCompile(`(?i)^[—–─-]*\s*view (all )?(\d+ )?(replies|more replies|reply|comments)( \(\d+\))?$`),
		regexp.MustCompile(`(?i)^(foto del perfil de \S+|\S+'s profile picture)$`),
	}

	datePatterns = []*regexp.Regexp{
		// relative stamps: "2 sem", "3 h", "5d", "hace 3 días", "2 hours ago"
		regexp.MustCompile(`(?i)^(hace\s+)?\d{1,3}\s*(s|seg|segs|segundos?|min|mins|minutos?|m|h|hr|hrs|horas?|d|días?|dias?|sem|semanas?|w|wk|wks|weeks?|mes|meses|a|años?|anos?|y|yr|yrs|years?|days?|hours?|minutes?|months?)(\s+ago)?$`),
		regexp.MustCompile(`(?i)^\d{1,2}\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)(\s+de\s+\d{4})?(\s+(a las\s+)?\d{1,2}:\d{2})?$`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}(,?\s+\d{1,2}:\d{2}(:\d{2})?)?$`),
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2})?)?$`),
		regexp.MustCompile(`(?i)^(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+\d{1,2}(,\s*\d{4})?(\s+at\s+\d{1,2}:\d{2}\s*(am|pm)?)?$`),
		regexp.MustCompile(`(?i)^(ayer|yesterday)(\s+(a las|at)\s+\d{1,2}:\d{2})?$`),
	}

	// a date followed by action links on the same line: "2 sem Me gusta Responder"
	chromeSuffixPattern = regexp.MustCompile(`(?i)^(.*?)((?:\s*(?:·|•|me gusta|responder|reply|like|compartir|share|editado|edited))+)\s*$`)
	replyWordPattern    = regexp.MustCompile(`(?i)\b(responder|reply)\b`)

	handlePattern         = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)
	profilePictureSpanish = regexp.MustCompile(`(?i)^foto del perfil de\s+(\S+)\s*(.*)$`)
	profilePictureEnglish = regexp.MustCompile(`(?i)^(\S+)'s profile picture\s*(.*)$`)
)

func isDate(s string) bool {
	for _, p := range datePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func isChrome(s string) bool {
	for _, p := range chromePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func isProfilePicture(s string) bool {
	return profilePictureSpanish.MatchString(s) || profilePictureEnglish.MatchString(s)
}

func classify(line string) lineClass {
	s := strings.TrimSpace(line)
	if s == "" {
		return lineClass{kind: kindBlank}
	}
	if terminatorPattern.MatchString(s) {
		return lineClass{kind: kindTerminator, closes: true}
	}
	if isChrome(s) {
		return lineClass{kind: kindChrome}
	}
	if isDate(s) {
		return lineClass{kind: kindDate, date: s}
	}

	if m := chromeSuffixPattern.FindStringSubmatch(s); m != nil {
		head := strings.TrimSpace(m[1])
		closes := replyWordPattern.MatchString(m[2])
		if head == "" {
			if closes {
				return lineClass{kind: kindTerminator, closes: true}
			}
			return lineClass{kind: kindChrome}
		}
		if isDate(head) {
			return lineClass{kind: kindDate, date: head, closes: closes}
		}
	}

	return lineClass{kind: kindText}
}
