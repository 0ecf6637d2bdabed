package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/storage"
	"github.com/sirupsen/logrus"
)

// Session keys. Raw texts, mode, image and title are stored as plain strings;
// winners and criterion as JSON.
const (
	KeyComments          = "comentarios"
	KeyCommentsInstagram = "comentarios_instagram"
	KeyCommentsFacebook  = "comentarios_facebook"
	KeyNames             = "lista_nombres"
	KeyPlatform          = "plataforma"
	KeyImage             = "imagenPublicacion"
	KeyTitle             = "sorteoTitulo"
	KeyCriterion         = "criterioBusqueda"
	KeyWinners           = "ganadores"
)

// Keys lists every key owned by a raffle session
var Keys = []string{
	KeyComments, KeyCommentsInstagram, KeyCommentsFacebook, KeyNames,
	KeyPlatform, KeyImage, KeyTitle, KeyCriterion, KeyWinners,
}

var ErrInvalidMode = errors.New("invalid platform mode")

// Input is what the host provides when a raffle starts
type Input struct {
	Mode      models.PlatformMode
	Comments  string // single platform paste (instagram or facebook mode)
	Instagram string // ambos mode
	Facebook  string // ambos mode
	Names     string // nombres mode
	Image     string // optional publication image reference
	Title     string
}

// State is the raffle's key-value session. It is the only long-lived state;
// steps hand it to each other instead of sharing a global.
type State struct {
	store storage.StorageInterface
}

// New creates a session over the given store
func New(store storage.StorageInterface) *State {
	return &State{store: store}
}

// GetString returns the value under key; found is false when nothing was
// stored, which is different from an empty string
func (s *State) GetString(key string) (value string, found bool, err error) {
	data, err := s.store.Retrieve(key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// SetString stores value under key, replacing the previous value
func (s *State) SetString(key, value string) error {
	if err := s.store.Store(key, []byte(value)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the value under key into v
func (s *State) GetJSON(key string, v interface{}) (bool, error) {
	data, err := s.store.Retrieve(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func (s *State) SetJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.SetString(key, string(data))
}

// Remove deletes key; removing an absent key is a no-op
func (s *State) Remove(key string) error {
	if err := s.store.Delete(key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Start replaces any previous raffle with the given input
func (s *State) Start(in Input) error {
	if !in.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, in.Mode)
	}

	if err := s.Reset(); err != nil {
		return err
	}

	values := map[string]string{KeyPlatform: string(in.Mode)}
	switch in.Mode {
	case models.ModeBoth:
		values[KeyCommentsInstagram] = in.Instagram
		values[KeyCommentsFacebook] = in.Facebook
	case models.ModeNames:
		values[KeyNames] = in.Names
	default:
		values[KeyComments] = in.Comments
	}
	if strings.TrimSpace(in.Image) != "" {
		values[KeyImage] = in.Image
	}
	if in.Title != "" {
		values[KeyTitle] = in.Title
	}

	for key, value := range values {
		if err := s.SetString(key, value); err != nil {
			return err
		}
	}

	logrus.Infof("Started %s raffle session", in.Mode)
	return nil
}

// Mode returns the stored platform mode, instagram when none was stored
func (s *State) Mode() (models.PlatformMode, error) {
	value, found, err := s.GetString(KeyPlatform)
	if err != nil {
		return "", err
	}
	if !found || value == "" {
		return models.ModeInstagram, nil
	}
	mode := models.PlatformMode(value)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, value)
	}
	return mode, nil
}

// Image returns the publication image reference; blank values count as absent
func (s *State) Image() (string, bool, error) {
	value, found, err := s.GetString(KeyImage)
	if err != nil || !found || strings.TrimSpace(value) == "" {
		return "", false, err
	}
	return value, true, nil
}

// Title returns the raffle title
func (s *State) Title() (string, bool, error) {
	return s.GetString(KeyTitle)
}

// Winners returns the winners of the last successful search
func (s *State) Winners() ([]models.CommentBlock, bool, error) {
	var winners []models.CommentBlock
	found, err := s.GetJSON(KeyWinners, &winners)
	return winners, found, err
}

// Criterion returns the criterion of the last successful search
func (s *State) Criterion() (*models.SearchCriterion, bool, error) {
	var criterion models.SearchCriterion
	found, err := s.GetJSON(KeyCriterion, &criterion)
	if err != nil || !found {
		return nil, false, err
	}
	return &criterion, true, nil
}

// SaveResult writes winners, criterion and title of a successful search
func (s *State) SaveResult(winners []models.CommentBlock, criterion models.SearchCriterion, title string) error {
	if err := s.SetJSON(KeyWinners, winners); err != nil {
		return err
	}
	if err := s.SetJSON(KeyCriterion, criterion); err != nil {
		return err
	}
	return s.SetString(KeyTitle, title)
}

// ClearWinners forgets the winners list after a search without matches
func (s *State) ClearWinners() error {
	return s.Remove(KeyWinners)
}

// Reset removes every session key, ready for a new raffle
func (s *State) Reset() error {
	for _, key := range Keys {
		if err := s.Remove(key); err != nil {
			return err
		}
	}
	logrus.Debug("Session reset")
	return nil
}
