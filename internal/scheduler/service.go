package scheduler

import (
	"errors"
	"fmt"

	"github.com/facilisimo/sorteos/internal/config"
	"github.com/facilisimo/sorteos/internal/export"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/notifications"
	"github.com/facilisimo/sorteos/internal/raffle"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Renderer turns a winners report into a PDF document
type Renderer interface {
	Render(report *models.WinnersReport) ([]byte, error)
}

// Service runs the configured draw on a cron schedule
type Service struct {
	config        *config.Config
	raffleService *raffle.Service
	renderer      Renderer
	notifier      notifications.NotificationInterface
	cron          *cron.Cron
}

// NewService creates a new scheduler service. renderer and notifier may be
// nil; the draw then only saves its winners.
func NewService(cfg *config.Config, raffleService *raffle.Service, renderer Renderer, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:        cfg,
		raffleService: raffleService,
		renderer:      renderer,
		notifier:      notifier,
		cron:          cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled draws
func (s *Service) Start() error {
	if s.config.DrawSchedule == "" {
		return fmt.Errorf("DRAW_SCHEDULE is not set")
	}

	_, err := s.cron.AddFunc(s.config.DrawSchedule, func() {
		logrus.Info("Starting scheduled draw")
		if _, err := s.RunDraw(); err != nil {
			logrus.Errorf("Scheduled draw failed: %v", err)
		}
	})

	if err != nil {
		return fmt.Errorf("invalid DRAW_SCHEDULE %q: %w", s.config.DrawSchedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q (%s draw)", s.config.DrawSchedule, s.config.DrawMode)
	return nil
}

// Stop stops the scheduler and waits for a running draw to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

// RunDraw loads the session, searches with the configured criterion and
// announces the winners
func (s *Service) RunDraw() (*models.WinnersReport, error) {
	count, err := s.raffleService.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	logrus.Debugf("Scheduled draw over %d comments", count)

	_, err = s.raffleService.Search(raffle.SearchRequest{
		Query:      s.config.DrawQuery,
		Mode:       s.config.DrawMode,
		Ordered:    s.config.DrawOrdered,
		MaxWinners: s.config.DrawMaxWinners,
		Title:      s.config.DrawTitle,
	})
	if err != nil {
		return nil, err
	}

	report, err := s.raffleService.Results()
	if err != nil {
		return nil, err
	}

	if s.notifier == nil {
		return report, nil
	}

	var pdf []byte
	if s.renderer != nil {
		pdf, err = s.renderer.Render(report)
		if errors.Is(err, export.ErrNotReady) {
			logrus.Warn("Export images are not loaded, announcing without PDF")
		} else if err != nil {
			return report, fmt.Errorf("failed to render PDF: %w", err)
		}
	}

	if err := s.notifier.SendWinners(report, pdf); err != nil {
		return report, err
	}
	return report, nil
}
