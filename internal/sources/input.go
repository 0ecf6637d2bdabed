package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/session"
	"github.com/sirupsen/logrus"
)

var ErrNoContent = errors.New("no pasted content")

// InputSources are the sources for each piece of the input step
type InputSources struct {
	Comments  Source // instagram or facebook mode
	Instagram Source // ambos mode
	Facebook  Source // ambos mode
	Names     Source // nombres mode
}

// LoadInput reads the sources the mode needs and checks that something was pasted
func LoadInput(ctx context.Context, mode models.PlatformMode, src InputSources, image, title string) (session.Input, error) {
	in := session.Input{Mode: mode, Image: image, Title: title}
	if !mode.Valid() {
		return in, fmt.Errorf("%w: %q", session.ErrInvalidMode, mode)
	}

	var err error
	switch mode {
	case models.ModeBoth:
		if in.Instagram, err = read(ctx, src.Instagram); err != nil {
			return in, err
		}
		if in.Facebook, err = read(ctx, src.Facebook); err != nil {
			return in, err
		}
		if blank(in.Instagram) && blank(in.Facebook) {
			return in, fmt.Errorf("%w: paste Instagram or Facebook comments", ErrNoContent)
		}
	case models.ModeNames:
		if in.Names, err = read(ctx, src.Names); err != nil {
			return in, err
		}
		if blank(in.Names) {
			return in, fmt.Errorf("%w: paste a list of names", ErrNoContent)
		}
	default:
		if in.Comments, err = read(ctx, src.Comments); err != nil {
			return in, err
		}
		if blank(in.Comments) {
			return in, fmt.Errorf("%w: paste the %s comments", ErrNoContent, mode)
		}
	}

	return in, nil
}

func read(ctx context.Context, src Source) (string, error) {
	if src == nil || !src.IsEnabled() {
		return "", nil
	}
	text, err := src.Read(ctx)
	if err != nil {
		return "", err
	}
	logrus.Debugf("Read %d bytes from %s input", len(text), src.GetName())
	return text, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
