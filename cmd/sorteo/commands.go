package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/facilisimo/sorteos/internal/export"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/raffle"
	"github.com/facilisimo/sorteos/internal/scheduler"
	"github.com/facilisimo/sorteos/internal/sources"
	"github.com/sirupsen/logrus"
)

var errUsage = errors.New("invalid command line")

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "argumentos inesperados: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

func runStart(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	mode := fs.String("mode", string(models.ModeInstagram), "instagram, facebook, ambos o nombres")
	comments := fs.String("comments", "", "archivo con los comentarios pegados (- para stdin)")
	instagram := fs.String("instagram", "", "comentarios de Instagram en modo ambos")
	facebook := fs.String("facebook", "", "comentarios de Facebook en modo ambos")
	names := fs.String("names", "", "lista de nombres en modo nombres")
	image := fs.String("image", "", "imagen de la publicación (opcional)")
	title := fs.String("title", "", "título del sorteo")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	platformMode := models.PlatformMode(*mode)
	in, err := sources.LoadInput(ctx, platformMode, sources.InputSources{
		Comments:  sources.NewFileSource(*mode, *comments),
		Instagram: sources.NewFileSource("instagram", *instagram),
		Facebook:  sources.NewFileSource("facebook", *facebook),
		Names:     sources.NewFileSource("nombres", *names),
	}, *image, *title)
	if err != nil {
		return err
	}

	if err := a.raffle.State().Start(in); err != nil {
		return err
	}

	count, err := a.raffle.Load()
	if err != nil {
		return err
	}
	if count == 0 {
		logrus.Warn("No comments were recognised in the pasted text")
	}

	fmt.Fprintf(a.stdout, "Sorteo iniciado (%s): %s comentarios\n", platformMode, raffle.FormatNumber(count))
	return nil
}

func runComments(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("comments", flag.ContinueOnError)
	filter := fs.String("filter", "", "instagram, facebook o ambos (solo en modo ambos)")
	asJSON := fs.Bool("json", false, "salida en JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := a.load(*filter); err != nil {
		return err
	}

	comments := a.raffle.Comments()
	if *asJSON {
		return writeJSON(a, comments)
	}

	stats, err := a.raffle.Stats()
	if err != nil {
		return err
	}
	printStats(a, stats)

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUsuario\tFecha\tComentario\tPlataforma")
	for i, c := range comments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, c.Username, c.Date, oneLine(c.Comment), c.Platform.Label())
	}
	return tw.Flush()
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	mode := fs.String("mode", string(models.SearchRandom), "aleatorio, numero, palabra o marcador")
	query := fs.String("query", "", "número, palabra o marcador a buscar")
	ordered := fs.Bool("ordered", true, "en modo numero, exigir los dígitos en orden")
	winners := fs.Int("winners", a.cfg.DefaultMaxWinners, "cantidad máxima de ganadores")
	title := fs.String("title", "", "título del sorteo (por defecto el de start)")
	filter := fs.String("filter", "", "instagram, facebook o ambos (solo en modo ambos)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := a.load(*filter); err != nil {
		return err
	}

	sorteoTitle := *title
	if sorteoTitle == "" {
		stored, _, err := a.raffle.State().Title()
		if err != nil {
			return err
		}
		sorteoTitle = stored
	}

	found, err := a.raffle.Search(raffle.SearchRequest{
		Query:      *query,
		Mode:       models.SearchMode(*mode),
		Ordered:    *ordered,
		MaxWinners: *winners,
		Title:      sorteoTitle,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "¡Ganadores encontrados! Se encontraron %d comentarios que coinciden.\n\n", len(found))
	return runWinners(ctx, a, nil)
}

func runWinners(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("winners", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "salida en JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	report, err := a.raffle.Results()
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a, report)
	}

	fmt.Fprintf(a.stdout, "🎉 %s 🎉\n", report.Title)
	if report.Criterion != nil && report.Criterion.Valor != "" {
		fmt.Fprintf(a.stdout, "Criterio: %s %s\n", report.Criterion.Tipo, report.Criterion.Valor)
	}
	fmt.Fprintln(a.stdout)
	for i, w := range report.Winners {
		fmt.Fprintf(a.stdout, "%d. %s", i+1, w.Username)
		if label := w.Platform.Label(); label != "" {
			fmt.Fprintf(a.stdout, " [%s]", label)
		}
		fmt.Fprintf(a.stdout, "\n   %s\n", oneLine(w.Comment))
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", ".", "archivo o directorio de destino")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	report, err := a.raffle.Results()
	if err != nil {
		return err
	}

	if err := a.images.Load(ctx); err != nil {
		logrus.Warnf("Some export images could not be loaded: %v", err)
	}

	path := *out
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, export.FileName(report.GeneratedAt))
	}

	data, err := a.exporter.Render(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(a.stdout, "PDF guardado exitosamente: %s\n", path)
	return nil
}

func runAnnounce(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("announce", flag.ContinueOnError)
	attach := fs.Bool("pdf", true, "adjuntar el PDF al correo")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if !a.cfg.NotificationsEnabled() {
		return fmt.Errorf("no notification channel configured (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL)")
	}

	report, err := a.raffle.Results()
	if err != nil {
		return err
	}

	var pdf []byte
	if *attach {
		if err := a.images.Load(ctx); err != nil {
			logrus.Warnf("Some export images could not be loaded: %v", err)
		}
		if pdf, err = a.exporter.Render(report); err != nil {
			return err
		}
	}

	if err := a.notifier.SendWinners(report, pdf); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "Ganadores enviados")
	return nil
}

func runSchedule(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	now := fs.Bool("now", false, "ejecutar el sorteo programado una vez y salir")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := a.images.Load(ctx); err != nil {
		logrus.Warnf("Some export images could not be loaded: %v", err)
	}

	notifier := a.notifier
	if !a.cfg.NotificationsEnabled() {
		notifier = nil
	}
	schedulerService := scheduler.NewService(a.cfg, a.raffle, a.exporter, notifier)

	if *now {
		report, err := schedulerService.RunDraw()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Sorteo programado: %d ganadores\n", len(report.Winners))
		return nil
	}

	if err := schedulerService.Start(); err != nil {
		return err
	}
	defer schedulerService.Stop()

	<-ctx.Done()
	logrus.Info("Shutting down scheduler...")
	return nil
}

func runReset(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := a.raffle.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Sorteo borrado")
	return nil
}

// load parses the session and applies the platform filter of a two-platform raffle
func (a *app) load(filter string) error {
	if _, err := a.raffle.Load(); err != nil {
		return err
	}
	if filter != "" {
		a.raffle.SetFilter(models.PlatformMode(filter))
	}
	return nil
}

func printStats(a *app, stats raffle.Stats) {
	fmt.Fprintf(a.stdout, "Comentarios: %s  Usuarios: %s  Ganadores: %s  Buscado: %s\n\n",
		raffle.FormatNumber(stats.Comments),
		raffle.FormatNumber(stats.UniqueUsers),
		raffle.FormatNumber(stats.Winners),
		stats.Searched)
}

func writeJSON(a *app, v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
