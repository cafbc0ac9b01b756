package main

import (
	"io"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Belphemur/MovieBoxLookup/internal/browser"
	"github.com/Belphemur/MovieBoxLookup/internal/client"
	"github.com/Belphemur/MovieBoxLookup/internal/config"
	"github.com/Belphemur/MovieBoxLookup/internal/services"
)

// app holds everything a command needs once configuration is loaded
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	a := &app{}

	root := &cobra.Command{
		Use:   "moviebox",
		Short: "Look up MovieBox download metadata and English captions by movie title",
		Long: `moviebox searches moviebox.ng for a movie title with a headless browser,
opens the first result and returns the download metadata of that movie
with only English captions kept.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, a.logCloser = config.NewLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logCloser != nil {
				_ = a.logCloser.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newLookupCmd(a))

	return root
}

// newLookupService wires the browser launcher, download client and lookup service.
// The caller owns the launcher and must Stop it.
func (a *app) newLookupService() (services.MovieLookup, *browser.PlaywrightLauncher, error) {
	launcher := browser.NewPlaywrightLauncher(browser.OptionsFromConfig(a.cfg), a.logger)
	if err := launcher.Start(); err != nil {
		return nil, nil, err
	}

	apiClient := client.NewClient(a.cfg, a.logger)
	return services.NewMovieLookup(a.cfg, launcher, apiClient, a.logger), launcher, nil
}
