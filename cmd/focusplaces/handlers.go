package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/yy77hello/FocusPlaces/internal/config"
	"github.com/yy77hello/FocusPlaces/internal/scheduler"
	"github.com/yy77hello/FocusPlaces/internal/store"
	"github.com/yy77hello/FocusPlaces/pkg/alert"
	"github.com/yy77hello/FocusPlaces/pkg/focus"
	"github.com/yy77hello/FocusPlaces/pkg/nlp"
	"github.com/yy77hello/FocusPlaces/pkg/places"
	"github.com/yy77hello/FocusPlaces/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// buildEngine assembles the lexicon (built-ins plus any configured
// extras), the lemmatizing tokenizer and the aggregation engine.
func buildEngine(cfg *config.Config) (*focus.Engine, error) {
	tok, err := nlp.New()
	if err != nil {
		return nil, fmt.Errorf("load lemmatizer: %w", err)
	}

	entries := focus.DefaultEntries()
	for _, kw := range cfg.Scoring.ExtraKeywords {
		canonical := kw.Canonical
		if canonical == "" {
			canonical = kw.Surface
		}
		entries = append(entries, focus.Entry{
			Surface:   kw.Surface,
			Canonical: canonical,
			Weight:    kw.Weight,
		})
	}

	scorer := focus.NewScorer(focus.NewLexicon(entries), tok)
	return focus.NewEngine(scorer, focus.Options{
		WindowDays:       cfg.Scoring.RecencyWindowDays,
		MinRecentReviews: cfg.Scoring.MinRecentReviews,
	}), nil
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

// searchOpts resolves the configured search parameters, geocoding the
// configured location when one is set.
func searchOpts(ctx context.Context, cfg *config.Config, client *places.Client, location string, queries []string, radius int) (places.SearchOpts, error) {
	opts := places.SearchOpts{
		Queries:            cfg.Search.Queries,
		RadiusMeters:       cfg.Search.RadiusMeters,
		MaxCandidates:      cfg.Search.MaxCandidates,
		MaxReviewsPerPlace: cfg.Search.MaxReviewsPerPlace,
	}
	if len(queries) > 0 {
		opts.Queries = queries
	}
	if radius > 0 {
		opts.RadiusMeters = radius
	}

	if location == "" {
		location = cfg.Search.Location
	}
	if location != "" {
		loc, err := client.Geocode(ctx, location)
		if err != nil {
			return opts, fmt.Errorf("geocode %q: %w", location, err)
		}
		if loc == nil {
			return opts, fmt.Errorf("location %q not found", location)
		}
		opts.Location = loc
	}
	return opts, nil
}

func runSearch(jsonOutput bool, location string, queries []string, radius int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.API.Key == "" {
		return fmt.Errorf("no API key configured (set GOOGLE_PLACES_API_KEY or api.key)")
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := places.NewClient(cfg.API.Key)

	opts, err := searchOpts(ctx, cfg, client, location, queries, radius)
	if err != nil {
		return err
	}

	var fetched []places.Place
	for _, query := range opts.Queries {
		qOpts := opts
		qOpts.Queries = []string{query}

		fmt.Fprintf(os.Stderr, "searching %q...\n", query)
		pls, err := client.SearchPlaces(ctx, qOpts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			continue
		}
		if err := db.UpsertPlaces(ctx, pls, query); err != nil {
			fmt.Fprintf(os.Stderr, "  store error: %v\n", err)
		}
		fmt.Fprintf(os.Stderr, "  found %d places\n", len(pls))
		fetched = append(fetched, pls...)
	}

	inputs := make([]focus.Place, 0, len(fetched))
	for _, p := range fetched {
		inputs = append(inputs, p.FocusPlace())
	}
	results := engine.ProcessPlaces(inputs)

	return printResults(results, jsonOutput)
}

func runPlaces(jsonOutput bool, query string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rows, err := db.ListPlaces(ctx, store.ListOpts{Query: query, Limit: limit})
	if err != nil {
		return fmt.Errorf("list places: %w", err)
	}

	if len(rows) == 0 {
		fmt.Println("no cached places (try fetching first: focusplaces search)")
		return nil
	}

	inputs := make([]focus.Place, 0, len(rows))
	for _, row := range rows {
		reviews, err := db.ListReviews(ctx, row.PlaceID)
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		inputs = append(inputs, store.FocusPlace(row, reviews))
	}

	return printResults(engine.ProcessPlaces(inputs), jsonOutput)
}

func runScore(text string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(engine.Scorer().ScoreReview(text))
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	client := places.NewClient(cfg.API.Key)
	opts, err := searchOpts(context.Background(), cfg, client, "", nil, 0)
	if err != nil {
		return err
	}

	srv := server.New(db, engine, client, opts, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.API.Key == "" {
		return fmt.Errorf("no API key configured (set GOOGLE_PLACES_API_KEY or api.key)")
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	client := places.NewClient(cfg.API.Key)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts, err := searchOpts(ctx, cfg, client, "", nil, 0)
	if err != nil {
		return err
	}

	sched := scheduler.New(db, client, engine, alertMgr, opts,
		cfg.Schedule.ParseRefreshInterval(),
		cfg.Alerts.MinScore,
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	// Start HTTP server.
	srv := server.New(db, engine, client, opts, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}

func printResults(results []focus.PlaceResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("no places to rank")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tRECENT\tNAME\tWARNING")
	for _, r := range results {
		warning := ""
		if r.LowSample {
			warning = "low sample"
		}
		fmt.Fprintf(w, "%d\t%d/%d\t%s\t%s\n",
			r.FocusScore, r.RecentReviewCount, r.ReviewCount, r.Name, warning)
	}
	return w.Flush()
}
