package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/shared/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.loadConfig()
			if port != "" {
				cfg.Port = port
			}
			app, err := bootstrap.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()
			return server.Run(cmd.Context(), server.Addr(cfg.Port), app.Router)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")
	return cmd
}
