package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/formship/internal/cliconfig"
	"github.com/bft-labs/formship/internal/watch"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/transport"
)

func newWatchCommand(s *settings, client transport.HTTPClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Upload every file written into a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgFile, err := s.load(cmd)
			if err != nil {
				return err
			}
			if cfg.WatchDir == "" {
				return fmt.Errorf("dir is required")
			}
			logger := newLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d := &dropFolder{
				runner: &uploadRunner{logger: logger, out: cmd.OutOrStdout(), client: client},
				logger: logger,
				cfg:    cfg,
				reload: func() (cliconfig.Config, error) {
					c, _, err := s.load(cmd)
					return c, err
				},
				queue: make(chan string, 64),
			}
			return d.run(ctx, cfgFile)
		},
	}
	cmd.Flags().StringVar(&s.cfg.WatchDir, "dir", s.cfg.WatchDir, "directory to watch for new files")
	cmd.Flags().DurationVar(&s.cfg.Debounce, "debounce", s.cfg.Debounce, "quiet period before a written file is uploaded")
	return cmd
}

// dropFolder uploads files one at a time as the watcher reports them.
type dropFolder struct {
	runner *uploadRunner
	logger log.Logger
	reload func() (cliconfig.Config, error)
	queue  chan string

	mu  sync.Mutex
	cfg cliconfig.Config
}

func (d *dropFolder) run(ctx context.Context, cfgFile string) error {
	cfg := d.config()
	w, err := watch.New(watch.Config{
		Dir:        cfg.WatchDir,
		ConfigPath: cfgFile,
		Debounce:   cfg.Debounce,
	}, watch.Handlers{
		File:   func(p string) { d.enqueue(ctx, p) },
		Config: d.reloadConfig,
	}, d.logger)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.work(ctx)
	}()

	err = w.Run(ctx)
	wg.Wait()
	return err
}

func (d *dropFolder) enqueue(ctx context.Context, path string) {
	select {
	case d.queue <- path:
	case <-ctx.Done():
	}
}

func (d *dropFolder) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-d.queue:
			logger := d.logger.With(log.String("file", path))
			logger.Info("uploading")
			if err := d.runner.run(ctx, d.config(), []string{path}); err != nil {
				logger.Error("upload failed", log.Err(err))
				continue
			}
			logger.Info("uploaded")
		}
	}
}

func (d *dropFolder) config() cliconfig.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Clone()
}

func (d *dropFolder) reloadConfig() {
	cfg, err := d.reload()
	if err != nil {
		d.logger.Error("config reload failed, keeping previous config", log.Err(err))
		return
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	d.logger.Info("config reloaded")
}
