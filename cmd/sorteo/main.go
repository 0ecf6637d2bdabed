package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/facilisimo/sorteos/internal/assets"
	"github.com/facilisimo/sorteos/internal/config"
	"github.com/facilisimo/sorteos/internal/export"
	"github.com/facilisimo/sorteos/internal/logging"
	"github.com/facilisimo/sorteos/internal/notifications"
	"github.com/facilisimo/sorteos/internal/raffle"
	"github.com/facilisimo/sorteos/internal/sources"
	"github.com/facilisimo/sorteos/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Exit codes
const (
	exitOK         = 0
	exitFailure    = 1
	exitInputError = 2
	exitNoMatch    = 3
)

const usage = `Uso: sorteo <comando> [opciones]

Comandos:
  start      carga los comentarios pegados y empieza un sorteo nuevo
  comments   muestra los comentarios reconocidos y las estadísticas
  search     busca ganadores (aleatorio, numero, palabra, marcador)
  winners    muestra los ganadores guardados
  export     guarda los ganadores en PDF
  announce   envía los ganadores por Teams o correo
  schedule   ejecuta el sorteo programado (DRAW_SCHEDULE)
  reset      borra el sorteo actual

Use "sorteo <comando> -h" para ver las opciones de cada comando.
`

// app wires the services every command needs
type app struct {
	cfg      *config.Config
	raffle   *raffle.Service
	images   *assets.Loader
	exporter *export.PDFExporter
	notifier notifications.NotificationInterface
	stdout   io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"start":    runStart,
	"comments": runComments,
	"search":   runSearch,
	"winners":  runWinners,
	"export":   runExport,
	"announce": runAnnounce,
	"schedule": runSchedule,
	"reset":    runReset,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return exitInputError
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "comando desconocido %q\n\n%s", args[0], usage)
		return exitInputError
	}

	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}

	closer := logging.Setup(cfg)
	defer closer.Close()

	store, err := newStorage(cfg)
	if err != nil {
		logrus.Errorf("Failed to initialize storage: %v", err)
		return exitFailure
	}

	images := assets.NewLoader(cfg.LogoURL, cfg.WatermarkURL, cfg.FooterLogoURL)
	a := &app{
		cfg:      cfg,
		raffle:   raffle.NewService(cfg, store, nil),
		images:   images,
		exporter: export.NewPDFExporter(images),
		notifier: notifications.NewService(cfg),
		stdout:   os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return exitCode(cmd(ctx, a, args[1:]))
}

func newStorage(cfg *config.Config) (storage.StorageInterface, error) {
	switch cfg.StorageBackend {
	case "memory":
		logrus.Warn("Using memory storage, the session ends with this command")
		return storage.NewMemoryStorage(), nil
	case "azure":
		return storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer, cfg.StoragePrefix)
	default:
		return storage.NewFileStorage(cfg.SessionDir)
	}
}

// exitCode prints err for the host and maps it to the process exit code
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitInputError
	case raffle.IsNoMatch(err):
		fmt.Fprintln(os.Stderr, "Sin coincidencias: no se encontró ningún comentario que coincida.")
		return exitNoMatch
	case raffle.IsInputError(err), errors.Is(err, sources.ErrNoContent), errors.Is(err, raffle.ErrNoWinners):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInputError
	case errors.Is(err, export.ErrNotReady):
		fmt.Fprintln(os.Stderr, "Las imágenes del PDF no están cargadas, no se puede exportar.")
		return exitFailure
	default:
		logrus.Errorf("Command failed: %v", err)
		return exitFailure
	}
}
