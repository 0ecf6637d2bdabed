package models

import "time"

// Platform identifies the social network a comment was pasted from
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// Label returns the display name used in result tables and exports
func (p Platform) Label() string {
	switch p {
	case PlatformInstagram:
		return "Instagram"
	case PlatformFacebook:
		return "Facebook"
	}
	return ""
}

// PlatformMode is the input mode chosen when the raffle starts
type PlatformMode string

const (
	ModeInstagram PlatformMode = "instagram"
	ModeFacebook  PlatformMode = "facebook"
	ModeBoth      PlatformMode = "ambos"   // Instagram and Facebook merged
	ModeNames     PlatformMode = "nombres" // flat name list, no comment parsing
)

// Valid reports whether m is one of the known platform modes
func (m PlatformMode) Valid() bool {
	switch m {
	case ModeInstagram, ModeFacebook, ModeBoth, ModeNames:
		return true
	}
	return false
}

// SearchMode selects the rule used to pick winners
type SearchMode string

const (
	SearchRandom SearchMode = "aleatorio"
	SearchNumber SearchMode = "numero"
	SearchWord   SearchMode = "palabra"
	SearchMarker SearchMode = "marcador"
)

// CommentBlock is one parsed comment (or one entry of a name list)
type CommentBlock struct {
	Username string   `json:"username"`
	Comment  string   `json:"comment"`
	Date     string   `json:"date"`     // as found in the pasted text, never re-parsed
	RawBlock string   `json:"rawBlock"` // untouched source segment
	Platform Platform `json:"platform,omitempty"`
}

// SearchCriterion is stored next to the winners so results can show what was searched
type SearchCriterion struct {
	Tipo  SearchMode `json:"tipo"`
	Valor string     `json:"valor"`
}

// WinnersReport is the read-only view handed to results, export and notifications
type WinnersReport struct {
	Title       string           `json:"title"`
	Criterion   *SearchCriterion `json:"criterion,omitempty"`
	Winners     []CommentBlock   `json:"winners"`
	GeneratedAt time.Time        `json:"generated_at"`
}
