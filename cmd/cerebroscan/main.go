// Command cerebroscan uploads MRI scans to the inference service from a terminal
// and prints one card per result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/cerebroscan/backend/internal/export"
	"github.com/cerebroscan/backend/internal/inference"
	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/cerebroscan/backend/internal/results"
	"github.com/cerebroscan/backend/internal/upload"
	log "github.com/sirupsen/logrus"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:5000", "Base URL of the inference service")
	timeout := flag.Duration("timeout", inference.DefaultTimeout, "Timeout for the predict request")
	csvPath := flag.String("csv", "", "Write results to this CSV file (a directory gets the dated file name)")
	dark := flag.Bool("dark", false, "Use the dark palette")
	rulesPath := flag.String("rules", "", "YAML file with confidence bands and label order")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] scan.png [scan2.jpg ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetLevel(log.WarnLevel)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	rules := presentation.DefaultRules()
	if *rulesPath != "" {
		var err error
		if rules, err = presentation.LoadRules(*rulesPath); err != nil {
			log.Fatalf("Failed to load rules: %v", err)
		}
	}
	theme := presentation.NewTheme(*dark)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := results.NewStore()
	client := inference.NewClient(inference.Options{BaseURL: *endpoint, Timeout: *timeout})
	pipeline := upload.NewPipeline(client, store)

	sources := make([]upload.Source, 0, flag.NArg())
	for _, path := range flag.Args() {
		sources = append(sources, upload.FileSource(path))
	}

	events, unsubscribe := pipeline.Subscribe()
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for ev := range events {
			printProgress(ev, theme)
		}
	}()

	outcome, err := pipeline.Submit(ctx, sources)
	unsubscribe()
	<-progressDone
	fmt.Fprintln(os.Stderr)

	if err != nil {
		fmt.Fprintln(os.Stderr, upload.UserMessage(err))
		os.Exit(1)
	}

	if err := presentation.RenderTerminal(os.Stdout, presentation.Cards(store.All(), rules), theme); err != nil {
		log.Fatalf("Failed to render results: %v", err)
	}
	reportProblems(outcome)

	if *csvPath != "" {
		path, err := writeCSV(*csvPath, store.All(), rules)
		if err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
		fmt.Printf("Saved %s\n", path)
	}

	if len(outcome.Results) == 0 {
		os.Exit(1)
	}
}

func printProgress(ev upload.Event, theme *presentation.Theme) {
	var percent float64
	switch ev.Phase {
	case models.PhaseUploading:
		percent = 0
	case models.PhaseProcessing:
		percent = ev.Progress
	case models.PhaseDone:
		percent = 100
	default:
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s", presentation.RenderProgress(string(ev.Phase), percent, theme))
}

func reportProblems(outcome *upload.Outcome) {
	for _, s := range outcome.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Name, s.Reason)
	}
	for _, f := range outcome.Failures {
		fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.Filename, f.Reason)
	}
}

func writeCSV(target string, all []models.PredictionResult, rules *models.PresentationRules) (string, error) {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, export.FileName(time.Now()))
	}

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := export.WriteCSV(f, all, rules.Labels); err != nil {
		return "", err
	}
	return target, f.Close()
}
