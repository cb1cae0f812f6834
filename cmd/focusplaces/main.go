package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "focusplaces",
		Short: "Find places suited to focused work by scoring their reviews",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(searchCmd())
	root.AddCommand(placesCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func searchCmd() *cobra.Command {
	var (
		jsonOutput bool
		location   string
		queries    []string
		radius     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for venues, fetch their reviews and rank them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(jsonOutput, location, queries, radius)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&location, "location", "", "address to search around (default: from config)")
	cmd.Flags().StringSliceVar(&queries, "query", nil, "search queries (default: from config)")
	cmd.Flags().IntVar(&radius, "radius", 0, "search radius in meters (default: from config)")
	return cmd
}

func placesCmd() *cobra.Command {
	var (
		jsonOutput bool
		query      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "places",
		Short: "Rescore and rank the cached venues without refetching",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaces(jsonOutput, query, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&query, "query", "", "only venues found by this search query")
	cmd.Flags().IntVar(&limit, "limit", 50, "max venues to show")
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score a single review text (reads stdin when no argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) > 0 {
				text = args[0]
			}
			return runScore(text)
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
