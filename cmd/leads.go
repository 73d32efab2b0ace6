package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/store"
)

type leadsFlags struct {
	pain       string
	status     string
	minScore   float64
	sortBy     string
	limit      int
	analytics  bool
	exportPath string
}

// newLeadsCmd creates the 'leads' subcommand for querying stored leads.
func newLeadsCmd() *cobra.Command {
	var flags leadsFlags
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Lists stored leads or prints pipeline analytics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLeads(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.pain, "pain", "", "filter by pain tag (substring match)")
	cmd.Flags().StringVar(&flags.status, "status", "", "filter by pipeline status")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "minimum lead score")
	cmd.Flags().StringVar(&flags.sortBy, "sort", "score", "sort order: score, rating, date, company")
	cmd.Flags().IntVar(&flags.limit, "limit", 50, "maximum rows to return (0 = all)")
	cmd.Flags().BoolVar(&flags.analytics, "analytics", false, "print pipeline analytics instead of rows")
	cmd.Flags().StringVar(&flags.exportPath, "export", "", "write results to a .csv or .xlsx file")

	return cmd
}

func runLeads(cmd *cobra.Command, flags leadsFlags) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := store.New(cmd.Context(), store.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	if flags.analytics {
		return printAnalytics(cmd, st)
	}

	leads, err := st.Query(cmd.Context(), store.Filter{
		Pain:     flags.pain,
		Status:   lead.Status(flags.status),
		MinScore: flags.minScore,
		SortBy:   flags.sortBy,
		Limit:    flags.limit,
	})
	if err != nil {
		return fmt.Errorf("query leads: %w", err)
	}

	if flags.exportPath != "" {
		if err := exportToFile(flags.exportPath, leads); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d leads to %s\n", len(leads), flags.exportPath)
		return nil
	}

	printLeads(cmd, leads)
	return nil
}

func printLeads(cmd *cobra.Command, leads []lead.Review) {
	out := cmd.OutOrStdout()
	if len(leads) == 0 {
		fmt.Fprintln(out, "No leads found.")
		return
	}
	for _, l := range leads {
		rating := "unrated"
		if l.Rating != nil {
			rating = fmt.Sprintf("%.1f", *l.Rating)
		}
		fmt.Fprintf(out, "[%3.0f] #%d %s | %s | rating %s | %s | %s\n",
			l.Score, l.ID, l.CompanyName, l.ReviewerName, rating,
			strings.Join(l.PainTags, ","), l.Status)
	}
	fmt.Fprintf(out, "%d leads\n", len(leads))
}

func printAnalytics(cmd *cobra.Command, st *store.LeadStore) error {
	a, err := st.Analytics(cmd.Context())
	if err != nil {
		return fmt.Errorf("analytics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total leads:    %d\n", a.TotalLeads)
	fmt.Fprintf(out, "Average score:  %.1f\n", a.AverageScore)
	fmt.Fprintf(out, "High priority:  %d\n", a.HighPriority)

	fmt.Fprintln(out, "By status:")
	for _, k := range sortedKeys(a.ByStatus) {
		fmt.Fprintf(out, "  %-12s %d\n", k, a.ByStatus[k])
	}
	fmt.Fprintln(out, "By source:")
	for _, k := range sortedKeys(a.BySource) {
		fmt.Fprintf(out, "  %-16s %d\n", k, a.BySource[k])
	}
	fmt.Fprintln(out, "Top pain profiles:")
	for _, tc := range a.TopPainTags {
		fmt.Fprintf(out, "  %-32s %d\n", tc.Tags, tc.Count)
	}
	return nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
