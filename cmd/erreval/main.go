// Command erreval runs the epistemic-reliability benchmark: it evaluates
// candidate models against the canonical dataset, scores responses with
// mechanical checks plus an LLM judge, and maintains the leaderboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gustycube/erreval/infrastructure/judge"
	"github.com/gustycube/erreval/infrastructure/llm"
	"github.com/gustycube/erreval/internal/application"
	"github.com/gustycube/erreval/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "evaluate":
		err = runEvaluate(ctx, os.Args[2:])
	case "run-all":
		err = runAll(ctx, os.Args[2:])
	case "list-models":
		err = runListModels(os.Args[2:])
	case "stats":
		err = runStats(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: erreval <command> [flags]

commands:
  evaluate     evaluate a single model
  run-all      evaluate every enabled model from the registry
  list-models  list registry models
  stats        show dataset statistics`)
}

// commonFlags registers the flags shared by evaluation commands.
type commonFlags struct {
	dataset     string
	leaderboard string
	resultsDir  string
	tracks      string
	limit       int
	seed        int64
	temperature float64
	concurrency int
	judgeModel  string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	var cf commonFlags
	fs.StringVar(&cf.dataset, "dataset", "data/canonical.jsonl", "Canonical dataset path (JSONL)")
	fs.StringVar(&cf.leaderboard, "leaderboard", filepath.Join("frontend", "data", "results.json"), "Leaderboard file path")
	fs.StringVar(&cf.resultsDir, "results", "results", "Directory for per-run result files")
	fs.StringVar(&cf.tracks, "tracks", "", "Comma-separated track letters (e.g. A,B,C); empty means all")
	fs.IntVar(&cf.limit, "limit", 25, "Max items per track (0 = no limit)")
	fs.Int64Var(&cf.seed, "seed", 42, "Run seed, used in result file naming")
	fs.Float64Var(&cf.temperature, "temperature", 0.0, "Candidate sampling temperature")
	fs.IntVar(&cf.concurrency, "concurrency", application.DefaultConcurrency, "Items scored in parallel")
	fs.StringVar(&cf.judgeModel, "judge", "openai/gpt-5.2", "Judge model ID")
	return &cf
}

func splitTracks(s string) []string {
	if s == "" {
		return nil
	}
	var tracks []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// buildRunner wires the client, judge engine, and runner from flags.
func buildRunner(cf *commonFlags) (*application.Runner, error) {
	client, err := llm.NewClient(llm.Config{
		Referer: "https://github.com/gustycube/erreval",
		Title:   "ERR-EVAL Benchmark",
	})
	if err != nil {
		return nil, err
	}

	judgeEngine, err := judge.NewEngine(client, judge.Config{Model: cf.judgeModel})
	if err != nil {
		return nil, err
	}

	return application.NewRunner(client, judgeEngine, application.RunnerConfig{
		Temperature: float32(cf.temperature),
		Concurrency: cf.concurrency,
	})
}

func evaluateOne(ctx context.Context, runner *application.Runner, cf *commonFlags, modelID, modelName string) error {
	dataset := application.NewJSONLDataset(cf.dataset)
	items, err := dataset.Load(ctx, splitTracks(cf.tracks), cf.limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no dataset items matched the requested tracks")
	}

	log.Printf("evaluating %s (%d items, judge %s)", modelID, len(items), cf.judgeModel)
	result, failures, err := runner.EvaluateModel(ctx, modelID, modelName, items, func(done, total int) {
		log.Printf("  progress %d/%d", done, total)
	})
	for _, f := range failures {
		log.Printf("  item %s failed: %v", f.ItemID, f.Err)
	}
	if err != nil {
		return err
	}

	log.Printf("overall score: %.2f / 10", result.OverallScore)
	for _, ts := range result.TrackSummaries {
		log.Printf("  track %s (%s): %d items, %.2f", ts.Track, ts.TrackName, ts.ItemCount, ts.MeanScore)
	}

	resultsPath := application.ResultsPath(cf.resultsDir, modelID, cf.seed)
	if err := application.WriteResultsJSON(result, resultsPath); err != nil {
		return err
	}
	log.Printf("results saved to %s", resultsPath)

	mdPath := resultsPath[:len(resultsPath)-len(filepath.Ext(resultsPath))] + ".md"
	if err := application.WriteMarkdownReport(result, mdPath); err != nil {
		return err
	}
	log.Printf("report saved to %s", mdPath)

	entry, err := domain.NewLeaderboardEntry(result)
	if err != nil {
		return err
	}
	store := application.NewLeaderboardFile(cf.leaderboard)
	if _, err := store.Merge(entry); err != nil {
		return err
	}
	log.Printf("leaderboard updated: %s", cf.leaderboard)
	return nil
}

func runEvaluate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	cf := registerCommon(fs)
	model := fs.String("model", "", "Model ID to evaluate (required)")
	name := fs.String("name", "", "Model display name (defaults to the ID)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *model == "" {
		return fmt.Errorf("-model is required")
	}
	if *name == "" {
		*name = *model
	}

	runner, err := buildRunner(cf)
	if err != nil {
		return err
	}
	return evaluateOne(ctx, runner, cf, *model, *name)
}

func runAll(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run-all", flag.ExitOnError)
	cf := registerCommon(fs)
	registryPath := fs.String("registry", filepath.Join("config", "models.yaml"), "Model registry path")
	skipExisting := fs.Bool("skip-existing", false, "Skip models already on the leaderboard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := application.LoadRegistry(*registryPath)
	if err != nil {
		return err
	}
	models := registry.EnabledModels()
	if len(models) == 0 {
		return fmt.Errorf("no enabled models in %s", *registryPath)
	}

	store := application.NewLeaderboardFile(cf.leaderboard)
	existing := make(map[string]struct{})
	if *skipExisting {
		ids, err := store.ModelIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			existing[id] = struct{}{}
		}
	}

	runner, err := buildRunner(cf)
	if err != nil {
		return err
	}

	var failed int
	for i, model := range models {
		if _, ok := existing[model.ID]; ok {
			log.Printf("(%d/%d) skipping %s (already evaluated)", i+1, len(models), model.ID)
			continue
		}
		if ctx.Err() != nil {
			break
		}

		log.Printf("(%d/%d) %s", i+1, len(models), model.Name)
		if err := evaluateOne(ctx, runner, cf, model.ID, model.Name); err != nil {
			// A single model's failure must not abort the batch; partial
			// results remain inspectable.
			log.Printf("  failed: %v", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(models))
	}
	return nil
}

func runListModels(args []string) error {
	fs := flag.NewFlagSet("list-models", flag.ExitOnError)
	registryPath := fs.String("registry", filepath.Join("config", "models.yaml"), "Model registry path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := application.LoadRegistry(*registryPath)
	if err != nil {
		return err
	}

	enabled := 0
	total := 0
	for key, provider := range registry.Providers {
		fmt.Printf("%s (%s)\n", provider.Name, key)
		for _, model := range provider.Models {
			total++
			status := " "
			if model.Enabled {
				status = "*"
				enabled++
			}
			fmt.Printf("  [%s] %s - %s\n", status, model.ID, model.Name)
		}
	}
	fmt.Printf("\n%d enabled / %d models\n", enabled, total)
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dataset := fs.String("dataset", "data/canonical.jsonl", "Canonical dataset path (JSONL)")
	tracks := fs.String("tracks", "", "Comma-separated track letters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := application.NewJSONLDataset(*dataset).Load(ctx, splitTracks(*tracks), 0)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Track]++
	}

	fmt.Printf("Total items: %d\n", len(items))
	for _, track := range []string{"A", "B", "C", "D", "E"} {
		fmt.Printf("  %s: %d\n", track, counts[track])
	}
	return nil
}
