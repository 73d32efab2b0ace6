package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/config"
	"github.com/primlogix/leadscout/internal/indicator"
	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/store"
)

type checkFlags struct {
	company string
	website string
	save    bool
}

// newCheckCmd creates the 'check' subcommand: probe a company for
// competitor-product fingerprints and optionally record a discovery lead.
func newCheckCmd() *cobra.Command {
	var flags checkFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Checks a company for competitor product indicators",
		Long: `Probes a company's public web presence (vendor subdomains, homepage
links, page keywords) for signs that it runs one of the configured target
products. A hit can be saved as a discovery lead with --save.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.company, "company", "", "company name to probe (required)")
	cmd.Flags().StringVar(&flags.website, "website", "", "company website, e.g. acme.com")
	cmd.Flags().BoolVar(&flags.save, "save", false, "save a discovery lead on a hit")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func runCheck(cmd *cobra.Command, flags checkFlags) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	indicators, err := indicator.Load(cfg.Indicators.Path)
	if err != nil {
		return fmt.Errorf("load indicators: %w", err)
	}

	checker := indicator.NewChecker(log)
	det, err := checker.Check(cmd.Context(), flags.company, flags.website, indicators)
	if err != nil {
		return fmt.Errorf("check %s: %w", flags.company, err)
	}

	out := cmd.OutOrStdout()
	if !det.Found {
		fmt.Fprintf(out, "No indicators found for %s\n", flags.company)
		return nil
	}
	fmt.Fprintf(out, "%s appears to use %s (via %s: %s)\n",
		flags.company, det.Indicator, det.Method, det.Evidence)

	if !flags.save {
		return nil
	}
	discovery := indicator.ToDiscoveryLead(flags.company, flags.website, det)
	saved, duplicates, err := saveDiscovery(cmd, cfg, log, discovery)
	if err != nil {
		return err
	}
	if duplicates > 0 {
		fmt.Fprintln(out, "Discovery lead already recorded.")
	} else {
		fmt.Fprintf(out, "Saved %d discovery lead.\n", saved)
	}
	return nil
}

func saveDiscovery(cmd *cobra.Command, cfg config.Config, log *zap.Logger, discovery lead.Review) (int, int, error) {
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
	return st.Save(cmd.Context(), []lead.Review{discovery})
}
