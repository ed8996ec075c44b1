package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/cobra"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/internal/logging"
	"github.com/getpup/polestar-search/metrics"
	"github.com/getpup/polestar-search/pkg/session"
	"github.com/getpup/polestar-search/pkg/version"
	"github.com/getpup/polestar-search/roster"
)

var errCancelled = errors.New("search cancelled")

type options struct {
	roster        string
	k             int
	unownedBudget int
	maxWorkers    int
	maxIterations string
	minQualifying int
	reportEvery   int
	preview       bool
	verbose       bool
	exclude       []string
	noRarity      bool
	noSkills      bool
	noTraits      bool
	logLevel      string
	logFormat     string
	metricsAddr   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "polestar-search",
		Short: "Find polestar combinations that unlock several crew at once",
		Long: `polestar-search enumerates every k-combination of the polestars in a crew
roster and reports the ones that unlock at least two qualifying crew without
unlocking an excluded one or more unowned crew than allowed.`,
		Version:       version.Version,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.roster, "roster", "r", "", "YAML crew roster to search (required)")
	f.IntVar(&opts.k, "k", 2, "Number of polestars per combination")
	f.IntVar(&opts.unownedBudget, "unowned-budget", 0, "Maximum unowned crew a combination may unlock")
	f.IntVar(&opts.maxWorkers, "max-workers", 0, "Maximum parallel workers (0 uses every CPU)")
	f.StringVar(&opts.maxIterations, "max-iterations", "", "Cap on the number of combinations examined")
	f.IntVar(&opts.minQualifying, "min-qualifying", search.DefaultMinQualifying, "Qualifying crew a combination must unlock")
	f.IntVar(&opts.reportEvery, "report-every", 0, "Candidates between progress reports (0 uses the default)")
	f.BoolVar(&opts.preview, "preview", false, "Print combinations as they are found")
	f.BoolVar(&opts.verbose, "verbose", false, "Log every rejected candidate at debug level")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "Crew symbols that must not be unlocked")
	f.BoolVar(&opts.noRarity, "no-rarity", false, "Leave rarity polestars out of the universe")
	f.BoolVar(&opts.noSkills, "no-skills", false, "Leave skill polestars out of the universe")
	f.BoolVar(&opts.noTraits, "no-traits", false, "Leave trait polestars out of the universe")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error, off)")
	f.StringVar(&opts.logFormat, "log-format", "console", "Log format (console or json)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	_ = cmd.MarkFlagRequired("roster")

	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, opts *options) error {
	logger := logging.New(logging.Options{
		Level:     opts.logLevel,
		Format:    opts.logFormat,
		Component: "polestar-search",
		Writer:    stderr,
	})

	crew, err := roster.LoadFile(opts.roster)
	if err != nil {
		return err
	}

	domain := roster.Build(crew, roster.Options{
		Rarity:  !opts.noRarity,
		Skills:  !opts.noSkills,
		Traits:  !opts.noTraits,
		Exclude: opts.exclude,
	})

	cfg := domain.RunConfig(opts.k)
	cfg.UnownedBudget = opts.unownedBudget
	cfg.MaxWorkers = opts.maxWorkers
	cfg.MinQualifying = opts.minQualifying
	cfg.Preview = opts.preview
	cfg.Verbose = opts.verbose
	if opts.maxIterations != "" {
		v, ok := new(big.Int).SetString(opts.maxIterations, 10)
		if !ok {
			return fmt.Errorf("%w: max-iterations %q is not an integer", search.ErrInvalidConfig, opts.maxIterations)
		}
		cfg.MaxIterations = v
	}

	if opts.metricsAddr != "" {
		server := metrics.NewServer(opts.metricsAddr)
		if err := server.Start(); err != nil {
			return err
		}
		logger.Info(ctx, "serving metrics", "addr", server.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	s, err := session.New(
		session.WithName("cli"),
		session.WithLogger(logger),
		session.WithReportEvery(opts.reportEvery),
		session.WithMetricsEnabled(opts.metricsAddr != ""),
	)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	logger.Info(ctx, "search starting",
		"crew", len(crew), "polestars", len(cfg.Universe), "k", cfg.K, "unownedBudget", cfg.UnownedBudget)

	done := make(chan search.Event, 1)
	lastPercent := int64(-1)
	_, err = s.Start(ctx, cfg, func(e search.Event) {
		switch e.Kind {
		case search.EventProgress:
			if e.Percent != lastPercent {
				lastPercent = e.Percent
				logger.Info(ctx, "progress", "percent", e.Percent, "examined", e.Counters.Examined.String(),
					"accepted", e.Counters.Accepted.String())
			}
		case search.EventItem:
			printResult(stdout, *e.Item)
		case search.EventComplete, search.EventCancelled:
			done <- e
		}
	})
	if err != nil {
		return err
	}

	var final search.Event
	select {
	case final = <-done:
	case <-ctx.Done():
		// the run may finish while the cancel is in flight
		_ = s.Cancel(context.Background())
		final = <-done
	}

	if final.Kind == search.EventCancelled {
		logger.Info(ctx, "search cancelled", "examined", final.Counters.Examined.String(), "percent", final.Percent)
		return errCancelled
	}

	if !opts.preview {
		for _, r := range final.Items {
			printResult(stdout, r)
		}
	}
	fmt.Fprintf(stdout, "%d of %s combinations accepted in %s\n",
		len(final.Items), final.TotalExamined, final.Elapsed.Round(time.Millisecond))
	return nil
}

func printResult(w io.Writer, r search.Result) {
	fmt.Fprintf(w, "%s -> %s (owned %d, unowned %d, rarity max %d)\n",
		strings.Join(r.Items, " + "), strings.Join(r.Unlocks, ", "),
		r.Cost.Owned, r.Cost.Unowned, r.Cost.RarityMax)
}
