package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/user/reach-plots-go/internal/batch"
	"github.com/user/reach-plots-go/internal/chart"
	"github.com/user/reach-plots-go/internal/config"
	"github.com/user/reach-plots-go/internal/logging"
	"github.com/user/reach-plots-go/internal/models"
)

var (
	// Used for flags.
	configFile string

	scatterFlags struct {
		y, x, color                        string
		prefix, filespec, suffix, filename string
	}

	rootCmd = &cobra.Command{
		Use:   "reach-plots",
		Short: "Renders the travel time analysis charts.",
		Long: `Reads the analysis result tables below the configured results root and
writes the fixed set of overview, distribution, scatter and per-area charts
as JPEG images to the images root.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			runner := &batch.Runner{Renderer: newRenderer(cfg), Config: cfg}
			manifest, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d charts written to %s\n", len(manifest.Artifacts), cfg.Paths.ImagesRoot)
			return nil
		},
	}

	scatterCmd = &cobra.Command{
		Use:   "scatter",
		Short: "Renders a single scatter plot.",
		Long: `Plots one column of an analysis table against another. Without --filename
the chart opens in the browser instead of being saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			suffix := scatterFlags.suffix
			if suffix == "" {
				suffix = cfg.Batch.Suffix
			}
			req := models.ChartRequest{
				Kind: models.KindScatter,
				Source: models.Source{
					Folder:   "analysis",
					Prefix:   scatterFlags.prefix,
					Filespec: scatterFlags.filespec,
					Suffix:   suffix,
				},
				X:        scatterFlags.x,
				Y:        scatterFlags.y,
				Color:    scatterFlags.color,
				Filename: scatterFlags.filename,
			}
			art, err := newRenderer(cfg).Render(cmd.Context(), req)
			if err != nil {
				return err
			}
			if art.Interactive {
				fmt.Printf("Opened %s in the browser\n", art.Title)
			} else {
				fmt.Printf("Written: %s\n", art.OutputPath)
			}
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the charts a batch run would produce.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			for _, req := range batch.Requests(cfg) {
				fmt.Printf("%-60s %s\n", req.Source.Path(cfg.Paths.ResultsRoot), chart.OutputPath(cfg.Paths.ImagesRoot, req))
			}
			return nil
		},
	}
)

func setup() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	return cfg, nil
}

func newRenderer(cfg *config.Config) *chart.Renderer {
	return &chart.Renderer{
		ResultsRoot: cfg.Paths.ResultsRoot,
		ImagesRoot:  cfg.Paths.ImagesRoot,
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		Scale:       cfg.Render.Scale,
		Viewer:      &chart.BrowserViewer{},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default: search ./config, ~/.reach-plots, /etc/reach-plots)")

	f := scatterCmd.Flags()
	f.StringVar(&scatterFlags.y, "y", "", "Column on the vertical axis")
	f.StringVar(&scatterFlags.x, "x", "", "Numeric column on the horizontal axis")
	f.StringVar(&scatterFlags.color, "color", "", "Column used to colour the points")
	f.StringVar(&scatterFlags.prefix, "prefix", "all_analysis", "Table name prefix")
	f.StringVar(&scatterFlags.filespec, "filespec", "", "Table name middle token, usually an area")
	f.StringVar(&scatterFlags.suffix, "suffix", "", "Table name suffix (default: batch.suffix)")
	f.StringVarP(&scatterFlags.filename, "filename", "o", "", "Save as images/scatter_<filename>_<y>-<x>.jpeg instead of opening a browser")
	_ = scatterCmd.MarkFlagRequired("y")
	_ = scatterCmd.MarkFlagRequired("x")

	rootCmd.AddCommand(scatterCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
