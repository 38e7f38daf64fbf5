package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/lewa-backend/internal/gateway/app"
	"github.com/yungbote/lewa-backend/internal/platform/shutdown"
)

var (
	askSubject string
	askLevel   string
	askStream  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one tutor question from the terminal",
	Example: `  lewa ask --subject biology --level Foundational "What is the function of the mitochondria?"
  lewa ask --subject physics --level Advanced --stream "Derive the period of a simple pendulum"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := shutdown.NotifyContext(cmd.Context())
		defer stop()

		a, err := app.New(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(context.Background()) }()

		question := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		if !askStream {
			res, err := a.Dispatcher.Ask(ctx, askSubject, askLevel, question)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Response)
			return nil
		}

		s, err := a.Dispatcher.Stream(ctx, askSubject, askLevel, question)
		if err != nil {
			return err
		}
		defer s.Close()
		for frag := range s.Fragments() {
			fmt.Fprint(out, frag.Text)
			if frag.Err != nil {
				fmt.Fprintln(out)
				return frag.Err
			}
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askSubject, "subject", "s", "", "subject id or name, e.g. biology")
	askCmd.Flags().StringVarP(&askLevel, "level", "l", "Foundational", "Foundational or Advanced")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print fragments as they are produced")
	_ = askCmd.MarkFlagRequired("subject")
}
