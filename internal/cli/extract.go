package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/dateparse"
	"github.com/pfrederiksen/eventscrape/internal/document"
	"github.com/pfrederiksen/eventscrape/internal/event"
	"github.com/pfrederiksen/eventscrape/internal/filter"
	"github.com/pfrederiksen/eventscrape/internal/handler"
	"github.com/pfrederiksen/eventscrape/internal/logger"
	"github.com/pfrederiksen/eventscrape/internal/pipeline"
	"github.com/pfrederiksen/eventscrape/internal/scraper"
	"github.com/pfrederiksen/eventscrape/internal/storage"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	file    string
	format  string
	sort    string
	save    bool
	verbose bool

	dateRange     string
	keywords      []string
	locations     []string
	weekends      bool
	minConfidence string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	o := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract events from a page",
		Long: `Fetch a page and print the events found on it.
With --file the page is read from disk and <url> only names its origin.
With --save, exits with status 2 when records not seen in earlier runs were stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, o, args[0])
		},
	}

	cmd.Flags().StringVar(&o.file, "file", "", "Read the page from a local HTML file instead of fetching it")
	cmd.Flags().StringVar(&o.format, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&o.sort, "sort", "date", "Sort order: date or title")
	cmd.Flags().BoolVar(&o.save, "save", false, "Save records to the snapshot store and report only new ones")
	cmd.Flags().BoolVar(&o.verbose, "verbose", false, "Enable verbose logging")
	cmd.Flags().StringVar(&o.dateRange, "range", "", "Only show events in a date range, e.g. 'Mar 1-15' or 'March'")
	cmd.Flags().StringSliceVar(&o.keywords, "match", nil, "Only show events whose title contains one of these words")
	cmd.Flags().StringSliceVar(&o.locations, "location", nil, "Only show events whose venue or address contains one of these words")
	cmd.Flags().BoolVar(&o.weekends, "weekends", false, "Only show events on Saturday or Sunday")
	cmd.Flags().StringVar(&o.minConfidence, "min-confidence", "low", "Only show events with at least this confidence: low, medium or high")
	return cmd
}

// runExtract is the main command logic
func runExtract(ctx context.Context, stdout, stderr io.Writer, root *rootOptions, o *extractOptions, url string) error {
	format := OutputFormat(strings.ToLower(o.format))
	if !format.Valid() {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", o.format)
	}
	order := SortOrder(strings.ToLower(o.sort))
	if !order.Valid() {
		return fmt.Errorf("invalid sort order: %s (must be 'date' or 'title')", o.sort)
	}

	cfg, err := setup(root, o.verbose, stderr)
	if err != nil {
		return err
	}
	loc, err := cfg.Dates.Location()
	if err != nil {
		return err
	}
	f, err := buildFilter(o, dateparse.New(dateparse.Options{Locale: cfg.Dates.Locale, Location: loc}))
	if err != nil {
		return err
	}

	registry, err := handler.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("loading registrations: %w", err)
	}
	p, err := pipeline.New(registry,
		pipeline.WithHook(traceHook),
		pipeline.WithNoise(cfg.Noise),
		pipeline.WithTimezone(loc),
		pipeline.WithLocale(cfg.Dates.Locale),
		pipeline.WithMaxFragmentLength(cfg.TextMine.MaxFragmentLength),
	)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	sc := scraper.New(
		scraper.WithUserAgent(cfg.Fetch.UserAgent),
		scraper.WithTimeout(cfg.Fetch.Timeout),
	)

	var doc *document.RawDocument
	if o.file != "" {
		logger.Debug("reading page", logger.Fields{"file": o.file, "source_url": url})
		doc, err = sc.ReadFile(o.file, url)
	} else {
		logger.Debug("fetching page", logger.Fields{"url": url})
		doc, err = sc.Fetch(ctx, url)
	}
	if err != nil {
		logger.Error("fetch failed", logger.Fields{"url": url}, err)
		return fmt.Errorf("fetching events: %w", err)
	}

	started := time.Now()
	res := p.Extract(doc, doc.SourceURL)
	logger.RecordTiming("extract", time.Since(started))
	logger.IncrCounter("documents." + string(res.Status))

	logger.Info("extraction finished", logger.Fields{
		"run_id":       res.RunID.String(),
		"source_url":   res.SourceURL,
		"registration": res.Registration,
		"platform":     res.Platform,
		"strategy":     res.Strategy,
		"status":       string(res.Status),
		"records":      len(res.Records),
	})

	shown := f.Apply(res.Records)
	if !f.IsEmpty() {
		logger.Debug("filter applied", logger.Fields{"filter": f.String(), "kept": len(shown), "records": len(res.Records)})
	}
	sortRecords(shown, order)
	out := &OutputResult{
		CheckedAt:    time.Now().UTC(),
		RunID:        res.RunID.String(),
		SourceURL:    res.SourceURL,
		Registration: res.Registration,
		Platform:     res.Platform,
		Strategy:     res.Strategy,
		Status:       string(res.Status),
		Records:      shown,
		EventCount:   len(shown),
	}

	newEvents := 0
	if o.save {
		store, err := storage.New(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		saved, err := store.Save(doc.Host(), res.Records)
		if err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		out.Saved = true
		out.NewEvents = f.Apply(saved.New)
		sortRecords(out.NewEvents, order)
		out.Changes = saved.Changes
		newEvents = len(saved.New)
		logger.Info("snapshot saved", logger.Fields{
			"dir":       store.Dir(),
			"host":      doc.Host(),
			"new":       newEvents,
			"published": len(saved.Published),
			"review":    len(saved.Review),
			"changes":   len(saved.Changes),
		})
	}

	if o.verbose {
		logMetrics()
	}

	if err := WriteOutput(stdout, out, format, o.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if newEvents > 0 {
		// the exit status reflects everything saved, not only what the filter shows
		return &ExitCodeError{Code: ExitNewEvents}
	}
	return nil
}

// buildFilter turns the filter flags into a record filter
func buildFilter(o *extractOptions, dates *dateparse.Normalizer) (*filter.Filter, error) {
	f := filter.NewFilter()
	f.Keywords = o.keywords
	f.Locations = o.locations
	f.WeekendsOnly = o.weekends

	if o.minConfidence != "" {
		c, err := event.ParseConfidence(o.minConfidence)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-confidence: %w", err)
		}
		f.MinConfidence = c
	}
	if o.dateRange != "" {
		from, to, err := filter.ParseDateRange(dates, o.dateRange)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	return f, nil
}

// traceHook forwards pipeline traces to the logger and metrics
func traceHook(t pipeline.Trace) {
	fields := logger.Fields{
		"run_id":       t.RunID.String(),
		"source_url":   t.SourceURL,
		"registration": t.Registration,
	}
	if t.Malformed {
		logger.IncrCounter("documents.malformed_input")
		logger.Warn("document has no content", fields)
		return
	}

	fields["strategy"] = t.Strategy
	fields["fragments"] = t.Fragments
	fields["records"] = t.Records
	fields["kept"] = t.Kept
	fields["terminal"] = t.Terminal
	fields["duration"] = t.Duration

	prefix := "strategy." + t.Strategy
	logger.IncrCounter(prefix + ".attempts")
	logger.RecordTiming(prefix, t.Duration)
	if t.Err != nil {
		logger.IncrCounter(prefix + ".errors")
		logger.Error("strategy failed", fields, t.Err)
		return
	}
	if t.Kept > 0 {
		logger.IncrCounter(prefix + ".hits")
	}
	logger.Debug("strategy attempted", fields)
}

func logMetrics() {
	snap := logger.GetMetricsSnapshot()
	fields := logger.Fields{}
	for name, n := range snap.Counters {
		fields[name] = n
	}
	for name, st := range snap.Timings {
		fields[name+".avg"] = st.Average
	}
	logger.Debug("metrics", fields)
}
