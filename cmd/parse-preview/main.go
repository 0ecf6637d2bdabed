package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/parser"
	"github.com/facilisimo/sorteos/internal/sources"
	"github.com/sirupsen/logrus"
)

func main() {
	dialectName := flag.String("dialect", "instagram", "instagram, facebook o nombres")
	raw := flag.Bool("raw", false, "mostrar el bloque original de cada comentario")
	outDir := flag.String("out", "", "directorio donde guardar el resultado en JSON")
	debug := flag.Bool("debug", false, "mostrar mensajes de depuración del parser")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: parse-preview [opciones] <archivo | ->")
		flag.PrintDefaults()
		os.Exit(2)
	}

	text, err := sources.NewFileSource(*dialectName, flag.Arg(0)).Read(context.Background())
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🔎 Sorteos Facilísimo - Parse Preview")
	fmt.Println("=====================================")

	var comments []models.CommentBlock
	switch *dialectName {
	case "instagram":
		var stats parser.ParseStats
		comments, stats = parser.ParseWithStats(text, parser.DialectInstagram)
		printStats(stats)
	case "facebook":
		var stats parser.ParseStats
		comments, stats = parser.ParseWithStats(text, parser.DialectFacebook)
		printStats(stats)
	case "nombres":
		comments = parser.ParseNames(text, time.Now())
		fmt.Printf("📋 Nombres: %d\n", len(comments))
	default:
		fmt.Printf("❌ Unknown dialect %q\n", *dialectName)
		os.Exit(2)
	}

	for i, c := range comments {
		fmt.Printf("\n   %d. 👤 %s", i+1, c.Username)
		if c.Date != "" {
			fmt.Printf("  🕒 %s", c.Date)
		}
		fmt.Printf("\n      💬 %s\n", strings.ReplaceAll(c.Comment, "\n", "\n         "))
		if *raw {
			fmt.Println("      ---")
			for _, line := range strings.Split(c.RawBlock, "\n") {
				fmt.Printf("      | %s\n", line)
			}
		}
	}

	if *outDir != "" {
		if err := saveToFile(*outDir, *dialectName, comments); err != nil {
			fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
		}
	}

	fmt.Println("\n✅ Preview completed!")
}

func printStats(stats parser.ParseStats) {
	fmt.Printf("📦 Bloques: %d\n", stats.Candidates)
	fmt.Printf("✅ Comentarios: %d\n", stats.Parsed)
	fmt.Printf("🗑️  Descartados: %d\n", stats.Discarded)
}

func saveToFile(dir, dialect string, comments []models.CommentBlock) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("preview_%s_%s.json", dialect, timestamp))

	data, err := json.MarshalIndent(comments, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 Preview saved to: %s\n", filename)
	return nil
}
