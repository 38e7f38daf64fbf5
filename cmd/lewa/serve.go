package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/lewa-backend/internal/gateway/app"
	"github.com/yungbote/lewa-backend/internal/platform/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway until SIGINT or SIGTERM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := shutdown.NotifyContext(cmd.Context())
		defer stop()

		a, err := app.New(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(context.Background()) }()

		return a.Run(ctx)
	},
}
