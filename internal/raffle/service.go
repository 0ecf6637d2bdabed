package raffle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/facilisimo/sorteos/internal/config"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/parser"
	"github.com/facilisimo/sorteos/internal/selection"
	"github.com/facilisimo/sorteos/internal/session"
	"github.com/facilisimo/sorteos/internal/storage"
	"github.com/sirupsen/logrus"
)

// DefaultTitle is shown when the host did not name the raffle
const DefaultTitle = "Ganadores del Sorteo"

var (
	ErrNoComments = errors.New("no comments loaded")
	ErrNoMatches  = errors.New("no comment matches the search")
	ErrNoWinners  = errors.New("no winners saved")
)

// Service runs the selection step of a raffle over the session state
type Service struct {
	config   *config.Config
	state    *session.State
	selector *selection.Selector
	now      func() time.Time

	mode      models.PlatformMode
	filter    models.PlatformMode
	instagram []models.CommentBlock
	facebook  []models.CommentBlock
	comments  []models.CommentBlock
	lastQuery string

	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds search metrics for the current process
type Metrics struct {
	Loaded       int                     `json:"loaded"`
	Searches     int                     `json:"searches"`
	Matches      int                     `json:"matches"`
	NoMatchCount int                     `json:"no_match_count"`
	ModeCounts   map[string]int          `json:"mode_counts"`
	LastRun      time.Time               `json:"last_run"`
	LastCriteria *models.SearchCriterion `json:"last_criteria,omitempty"`
}

// Stats are the counters shown above the search form
type Stats struct {
	Comments    int    `json:"comments"`
	UniqueUsers int    `json:"unique_users"`
	Winners     int    `json:"winners"`
	Searched    string `json:"searched"`
}

// SearchRequest is one press of the search button
type SearchRequest struct {
	Query      string
	Mode       models.SearchMode
	Ordered    bool
	MaxWinners int
	Title      string
}

// NewService creates a raffle service. A nil selector gets one built from the
// configured permutation ceiling.
func NewService(cfg *config.Config, store storage.StorageInterface, selector *selection.Selector) *Service {
	if selector == nil {
		selector = selection.NewSelector(selection.WithMaxPermutationLength(cfg.MaxPermutationLength))
	}
	return &Service{
		config:   cfg,
		state:    session.New(store),
		selector: selector,
		now:      time.Now,
		metrics: &Metrics{
			ModeCounts: make(map[string]int),
		},
	}
}

// State exposes the session the service reads and writes
func (s *Service) State() *session.State {
	return s.state
}

// Load parses the session's pasted text into comments
func (s *Service) Load() (int, error) {
	mode, err := s.state.Mode()
	if err != nil {
		return 0, err
	}

	var instagram, facebook, comments []models.CommentBlock
	switch mode {
	case models.ModeBoth:
		if instagram, err = s.parse(session.KeyCommentsInstagram, models.PlatformInstagram); err != nil {
			return 0, err
		}
		if facebook, err = s.parse(session.KeyCommentsFacebook, models.PlatformFacebook); err != nil {
			return 0, err
		}
		comments = merge(instagram, facebook)
	case models.ModeNames:
		text, _, err := s.state.GetString(session.KeyNames)
		if err != nil {
			return 0, err
		}
		comments = parser.ParseNames(text, s.now())
	case models.ModeFacebook:
		if comments, err = s.parse(session.KeyComments, models.PlatformFacebook); err != nil {
			return 0, err
		}
	default:
		if comments, err = s.parse(session.KeyComments, models.PlatformInstagram); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	s.mode = mode
	s.filter = mode
	s.instagram = instagram
	s.facebook = facebook
	s.comments = comments
	s.metrics.Loaded = len(comments)
	s.mu.Unlock()

	logrus.Infof("Loaded %d comments in %s mode", len(comments), mode)
	return len(comments), nil
}

func (s *Service) parse(key string, platform models.Platform) ([]models.CommentBlock, error) {
	text, _, err := s.state.GetString(key)
	if err != nil {
		return nil, err
	}

	dialect := parser.DialectInstagram
	if platform == models.PlatformFacebook {
		dialect = parser.DialectFacebook
	}

	comments, stats := parser.ParseWithStats(text, dialect)
	if stats.Discarded > 0 {
		logrus.Debugf("Discarded %d of %d %s blocks", stats.Discarded, stats.Candidates, platform)
	}
	for i := range comments {
		comments[i].Platform = platform
	}
	return comments, nil
}

func merge(first, second []models.CommentBlock) []models.CommentBlock {
	merged := make([]models.CommentBlock, 0, len(first)+len(second))
	merged = append(merged, first...)
	return append(merged, second...)
}

// SetFilter narrows a two-platform raffle to one platform or back to both.
// Other modes ignore the filter.
func (s *Service) SetFilter(filter models.PlatformMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != models.ModeBoth {
		return
	}

	switch filter {
	case models.ModeInstagram:
		s.comments = s.instagram
	case models.ModeFacebook:
		s.comments = s.facebook
	case models.ModeBoth:
		s.comments = merge(s.instagram, s.facebook)
	default:
		logrus.Warnf("Ignoring unknown platform filter %q", filter)
		return
	}
	s.filter = filter
	logrus.Debugf("Platform filter set to %s (%d comments)", filter, len(s.comments))
}

// Filter returns the active platform filter
func (s *Service) Filter() models.PlatformMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Comments returns a copy of the comments the next search runs on
func (s *Service) Comments() []models.CommentBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]models.CommentBlock, len(s.comments))
	copy(comments, s.comments)
	return comments
}

// Stats counts comments, distinct usernames and saved winners
func (s *Service) Stats() (Stats, error) {
	s.mu.RLock()
	users := make(map[string]struct{}, len(s.comments))
	for _, c := range s.comments {
		users[c.Username] = struct{}{}
	}
	stats := Stats{
		Comments:    len(s.comments),
		UniqueUsers: len(users),
		Searched:    s.lastQuery,
	}
	s.mu.RUnlock()

	if stats.Searched == "" {
		stats.Searched = "-"
	}

	winners, _, err := s.state.Winners()
	if err != nil {
		return stats, err
	}
	stats.Winners = len(winners)
	return stats, nil
}

// Search picks winners and saves them with the criterion and title. A search
// without matches clears the saved winners and returns ErrNoMatches.
func (s *Service) Search(req SearchRequest) ([]models.CommentBlock, error) {
	s.mu.Lock()
	s.lastQuery = req.Query
	comments := s.comments
	s.mu.Unlock()

	if req.Mode != models.SearchRandom && strings.TrimSpace(req.Query) == "" {
		return nil, selection.ErrEmptyQuery
	}
	if len(comments) == 0 {
		return nil, ErrNoComments
	}

	maxWinners := req.MaxWinners
	if maxWinners == 0 {
		maxWinners = s.config.DefaultMaxWinners
	}

	winners, err := s.selector.Select(comments, req.Mode, req.Query, req.Ordered, maxWinners)
	if err != nil {
		return nil, err
	}

	if len(winners) == 0 {
		s.recordSearch(req, 0)
		if err := s.state.ClearWinners(); err != nil {
			return nil, err
		}
		logrus.Infof("Search %s %q found no matches among %d comments", req.Mode, req.Query, len(comments))
		return nil, ErrNoMatches
	}

	criterion := models.SearchCriterion{Tipo: req.Mode, Valor: req.Query}
	if err := s.state.SaveResult(winners, criterion, req.Title); err != nil {
		return nil, fmt.Errorf("failed to save winners: %w", err)
	}

	s.recordSearch(req, len(winners))
	logrus.Infof("Search %s %q selected %d winners among %d comments", req.Mode, req.Query, len(winners), len(comments))
	return winners, nil
}

func (s *Service) recordSearch(req SearchRequest, matches int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Searches++
	s.metrics.Matches += matches
	if matches == 0 {
		s.metrics.NoMatchCount++
	}
	s.metrics.ModeCounts[string(req.Mode)]++
	s.metrics.LastRun = s.now()
	s.metrics.LastCriteria = &models.SearchCriterion{Tipo: req.Mode, Valor: req.Query}
}

// Results reads the saved winners for the results and export steps
func (s *Service) Results() (*models.WinnersReport, error) {
	winners, found, err := s.state.Winners()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoWinners
	}

	criterion, _, err := s.state.Criterion()
	if err != nil {
		return nil, err
	}

	title, _, err := s.state.Title()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	return &models.WinnersReport{
		Title:       title,
		Criterion:   criterion,
		Winners:     winners,
		GeneratedAt: s.now(),
	}, nil
}

// Reset clears the session and the loaded comments for a new raffle
func (s *Service) Reset() error {
	if err := s.state.Reset(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ""
	s.filter = ""
	s.instagram = nil
	s.facebook = nil
	s.comments = nil
	s.lastQuery = ""
	s.metrics.Loaded = 0

	logrus.Info("Raffle reset")
	return nil
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

// IsInputError reports whether err means the request itself was unusable
func IsInputError(err error) bool {
	return errors.Is(err, selection.ErrEmptyQuery) ||
		errors.Is(err, selection.ErrQueryTooLong) ||
		errors.Is(err, selection.ErrUnknownMode) ||
		errors.Is(err, selection.ErrInvalidMaxWinners) ||
		errors.Is(err, ErrNoComments) ||
		errors.Is(err, session.ErrInvalidMode)
}

// IsNoMatch reports whether err is the informational no-match outcome
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatches)
}

// FormatNumber groups thousands with dots the way es-ES does. Four digit
// numbers stay ungrouped (1234, 12.345).
func FormatNumber(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.Itoa(n)
	if len(digits) <= 4 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
