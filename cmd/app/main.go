package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"IPOPulse/internal/domain/models"
	"IPOPulse/pkg/config"
	"IPOPulse/pkg/server"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:           "ipopulse",
		Short:         "IPO listings aggregation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config/config.yaml", "path to config file")

	root.AddCommand(serveCmd(), runCmd(), probeCmd(), quotaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildApp(ctx context.Context) (*server.App, error) {
	cfg, err := config.LoadWithEnv(cfgPath)
	if err != nil {
		return nil, err
	}
	return server.New(ctx, cfg)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background pass schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}

func runCmd() *cobra.Command {
	var opName string
	var srcList string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one aggregation pass and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, ok := models.ParseOperation(opName)
			if !ok {
				return fmt.Errorf("unknown operation %q (want offerings, demand, or sentiment)", opName)
			}

			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}

			var srcs []string
			if srcList != "" {
				srcs = strings.Split(srcList, ",")
			}

			res := app.RunPass(cmd.Context(), op, srcs)
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&opName, "op", "offerings", "operation to run: offerings, demand, or sentiment")
	cmd.Flags().StringVar(&srcList, "sources", "", "comma-separated source subset (default all)")
	return cmd
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <source>",
		Short: "Check a single source's health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(app.Aggregator().Probe(cmd.Context(), args[0]))
		},
	}
}

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show today's request budget for the rate-limited source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(app.Aggregator().QuotaStatus())
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
