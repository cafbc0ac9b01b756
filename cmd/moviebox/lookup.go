package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Belphemur/MovieBoxLookup/internal/models"
)

func newLookupCmd(a *app) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "lookup <title...>",
		Short: "Run a single lookup and print the result as JSON",
		Example: `  moviebox lookup Inception
  moviebox lookup --pretty "The Matrix"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := models.NewLookupRequest(strings.Join(args, " "))
			if err != nil {
				return err
			}

			lookup, launcher, err := a.newLookupService()
			if err != nil {
				return err
			}
			defer func() {
				if err := launcher.Stop(); err != nil {
					a.logger.Warn().Err(err).Msg("Failed to stop browser driver")
				}
			}()

			meta, err := lookup.Lookup(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(meta)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")

	return cmd
}
