package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/transport"
)

func newSendCommand(s *settings, client transport.HTTPClient) *cobra.Command {
	return &cobra.Command{
		Use:   "send [file...]",
		Short: "Submit the form once, attaching the given files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgFile, err := s.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			if cfgFile != "" {
				logger.Debug("config loaded", log.String("path", cfgFile))
			}

			// Ctrl-C aborts the upload instead of killing the process.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := &uploadRunner{logger: logger, out: cmd.OutOrStdout(), client: client}
			return r.run(ctx, cfg, args)
		},
	}
}
