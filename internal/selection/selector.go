package selection

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/facilisimo/sorteos/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyQuery        = errors.New("search query is required")
	ErrQueryTooLong      = errors.New("query too long for unordered matching")
	ErrUnknownMode       = errors.New("unknown search mode")
	ErrInvalidMaxWinners = errors.New("number of winners must be at least 1")
)

// Shuffler reorders n elements in place through swap
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type defaultShuffler struct{}

func (defaultShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// Selector picks winners out of parsed comments
type Selector struct {
	shuffler          Shuffler
	maxPermutationLen int
}

// Option configures a Selector
type Option func(*Selector)

// WithShuffler replaces the random source, for tests that need a fixed order
func WithShuffler(s Shuffler) Option {
	return func(sel *Selector) {
		sel.shuffler = s
	}
}

// WithMaxPermutationLength changes the ceiling for unordered numeric queries
func WithMaxPermutationLength(n int) Option {
	return func(sel *Selector) {
		if n > 0 {
			sel.maxPermutationLen = n
		}
	}
}

// NewSelector creates a selector backed by an unseeded random source
func NewSelector(opts ...Option) *Selector {
	sel := &Selector{
		shuffler:          defaultShuffler{},
		maxPermutationLen: MaxPermutationLength,
	}
	for _, opt := range opts {
		opt(sel)
	}
	return sel
}

// Select applies the search rule for mode and returns at most maxWinners
// comments. Filtered modes keep the input order; the input slice is never
// modified.
func (s *Selector) Select(comments []models.CommentBlock, mode models.SearchMode, query string, ordered bool, maxWinners int) ([]models.CommentBlock, error) {
	if maxWinners < 1 {
		return nil, ErrInvalidMaxWinners
	}

	if mode == models.SearchRandom {
		return s.random(comments, maxWinners), nil
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	match, err := s.matcher(mode, query, ordered)
	if err != nil {
		return nil, err
	}

	found := make([]models.CommentBlock, 0)
	for _, c := range comments {
		if match(c.Comment) {
			found = append(found, c)
		}
	}

	logrus.Debugf("Search %s %q matched %d of %d comments", mode, query, len(found), len(comments))

	if len(found) > maxWinners {
		found = found[:maxWinners]
	}
	return found, nil
}

func (s *Selector) random(comments []models.CommentBlock, maxWinners int) []models.CommentBlock {
	shuffled := make([]models.CommentBlock, len(comments))
	copy(shuffled, comments)
	s.shuffler.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if len(shuffled) > maxWinners {
		shuffled = shuffled[:maxWinners]
	}
	return shuffled
}

func (s *Selector) matcher(mode models.SearchMode, query string, ordered bool) (func(string) bool, error) {
	switch mode {
	case models.SearchNumber:
		if ordered {
			needle := strings.TrimSpace(query)
			return func(body string) bool {
				return strings.Contains(stripSpace(body), needle)
			}, nil
		}
		code := NormalizeCode(query)
		if code == "" {
			return nil, ErrEmptyQuery
		}
		if n := utf8.RuneCountInString(code); n > s.maxPermutationLen {
			return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrQueryTooLong, n, s.maxPermutationLen)
		}
		perms := Permutations(code)
		return func(body string) bool {
			normalized := NormalizeCode(body)
			for perm := range perms {
				if strings.Contains(normalized, perm) {
					return true
				}
			}
			return false
		}, nil

	case models.SearchWord:
		needle := strings.ToLower(query)
		return func(body string) bool {
			return strings.Contains(strings.ToLower(body), needle)
		}, nil

	case models.SearchMarker:
		return func(body string) bool {
			return strings.Contains(body, query)
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// stripSpace drops whitespace only, so "1 2 3" reads "123" but "1,23" does not
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeCode drops whitespace, punctuation and symbols so "3-2-1!!"
// compares as "321". Letters and digits are kept.
func NormalizeCode(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}
