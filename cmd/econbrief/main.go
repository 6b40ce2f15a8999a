package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deusflow/econbrief/internal/app"
	"github.com/deusflow/econbrief/internal/config"
	"github.com/deusflow/econbrief/internal/logger"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:           "econbrief",
	Short:         "Korean economic news digest",
	Long:          "Collects Korean economic news, summarizes it and persists a daily aggregate.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			os.Setenv("DEBUG", "true")
		}
		logger.Init()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(crawlCommand(), tipsCommand(), serveCommand())
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildServices loads configuration and constructs every component. Any
// configuration problem, a missing credential included, is returned here
// before network work starts.
func buildServices(ctx context.Context) (*app.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.Build(ctx, cfg)
}

func crawlCommand() *cobra.Command {
	var archiveDate string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run the news pipeline once and persist the aggregate",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := crawlOptions(archiveDate)
			if err != nil {
				return err
			}
			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			agg, err := svc.Pipeline.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %d news items (fallback: %v) at %s\n",
				agg.Count, agg.Fallback, agg.LastUpdated.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&archiveDate, "archive-date", "", "also crawl dated archive listings (YYYY-MM-DD)")
	return cmd
}

func tipsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tips",
		Short: "Regenerate the finance tips aggregate",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			if svc.Tips == nil {
				return fmt.Errorf("%w: the tips job needs a model", config.ErrMissingCredential)
			}
			agg, err := svc.Tips.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Saved %d finance tips\n", agg.Count)
			return nil
		},
	}
}
