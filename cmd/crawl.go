package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/config"
	"github.com/primlogix/leadscout/internal/crawl"
	"github.com/primlogix/leadscout/internal/export"
	"github.com/primlogix/leadscout/internal/fetch"
	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/parse"
	"github.com/primlogix/leadscout/internal/store"
)

type crawlFlags struct {
	urls       []string
	urlFile    string
	maxPages   int
	noSave     bool
	exportPath string
}

// newCrawlCmd creates the 'crawl' subcommand. It runs one crawl pass in
// the foreground, prints a summary, and optionally persists or exports
// the leads it finds.
func newCrawlCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls review URLs for negative reviews",
		Long: `Fetches the given review pages, extracts negative reviews, scores
them as leads, and saves them to the database unless --no-save is set.
Paginated sites are walked up to --max-pages pages per URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.urls, "urls", nil, "review page URLs to crawl")
	cmd.Flags().StringVar(&flags.urlFile, "file", "", "file with one URL per line")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "pages per URL (0 uses the configured default)")
	cmd.Flags().BoolVar(&flags.noSave, "no-save", false, "skip database persistence")
	cmd.Flags().StringVar(&flags.exportPath, "export", "", "write results to a .csv or .xlsx file")

	return cmd
}

func runCrawl(cmd *cobra.Command, flags crawlFlags) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	urls, err := collectURLs(flags.urls, flags.urlFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: use --urls or --file")
	}

	maxPages := flags.maxPages
	if maxPages <= 0 {
		maxPages = cfg.Crawl.MaxPages
	}

	fetcher := fetch.New(fetch.Config{HTTPTimeout: cfg.FetchTimeout()}, log)
	defer fetcher.Close()
	controller := crawl.New(fetcher, parse.New(log), log)

	ctx := cmd.Context()
	leads, crawlErrs := controller.Crawl(ctx, urls, maxPages)
	for _, cerr := range crawlErrs {
		log.Warn("crawl error", zap.String("url", cerr.URL), zap.Error(cerr.Err))
	}
	log.Info("crawl finished", zap.Int("leads", len(leads)), zap.Int("errors", len(crawlErrs)))

	if !flags.noSave && len(leads) > 0 {
		saved, duplicates, err := saveLeads(cmd, cfg, log, leads)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found %d leads (%d saved, %d duplicates)\n",
			len(leads), saved, duplicates)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Found %d leads\n", len(leads))
	}

	if flags.exportPath != "" {
		if err := exportToFile(flags.exportPath, leads); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d leads to %s\n", len(leads), flags.exportPath)
	}
	return nil
}

func saveLeads(cmd *cobra.Command, cfg config.Config, log *zap.Logger, leads []lead.Review) (int, int, error) {
	st, err := store.New(cmd.Context(), store.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}, log)
	if err != nil {
		return 0, 0, fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()
	if err := st.EnsureSchema(cmd.Context()); err != nil {
		return 0, 0, fmt.Errorf("ensure schema: %w", err)
	}
	return st.Save(cmd.Context(), leads)
}

// collectURLs merges the --urls flag with the optional --file list.
func collectURLs(urls []string, path string) ([]string, error) {
	out := append([]string(nil), urls...)
	if path == "" {
		return out, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return out, nil
}

func exportToFile(path string, leads []lead.Review) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.WriteCSV(f, leads, true)
	case ".xlsx":
		err = export.WriteXLSX(f, leads, true)
	default:
		err = fmt.Errorf("unsupported export extension %q (use .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return f.Close()
}
