package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hickar/mailcore/internal/app/config"
	"github.com/hickar/mailcore/internal/app/email"
	"github.com/hickar/mailcore/internal/app/selection"
	"github.com/hickar/mailcore/internal/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		//nolint:gocritic
		os.Exit(1)
	}
}

// run executes the command line in args. Everything opened while running is
// released before it returns.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stderr: stderr}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return root.ExecuteContext(ctx)
}

type app struct {
	stderr   io.Writer
	cfg      config.Config
	logger   *slog.Logger
	loader   *email.Loader
	registry *email.Registry
	mailbox  *selection.List
	cleanup  func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mailcore",
		Short:         "Inspect the MIME parts and attachments of mail messages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "./config.yaml", "Filepath to configuration file")
	flags.String("env-file", "./.env", "Filepath to environment variables file")
	flags.String("log-level", "", "Logging level: debug, info, warn, error")
	flags.String("mbox", "", "Mailbox providing the selected message")
	flags.Int("select", 0, "0-based index of the selected message within the mailbox")

	root.AddCommand(
		newPartsCmd(a),
		newAttachmentsCmd(a),
		newExtractCmd(a),
		newSaveCmd(a),
		newShowCmd(a),
		newListCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	envPath, err := flags.GetString("env-file")
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(cfgPath, envPath)
	if err != nil {
		// Running without a configuration file is fine unless one was asked for.
		if !errors.Is(err, os.ErrNotExist) || flags.Changed("config") {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = config.Default()
	}

	if err = applyFlags(cmd, &cfg); err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, cleanup, err := logger.New(a.stderr, cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return err
	}
	a.logger = log
	a.cleanup = cleanup

	mode, _ := cfg.Mode()
	limit, _ := cfg.ExtractLimit()

	a.loader = email.NewLoader(
		email.Options{FileMode: mode, MaxExtractSize: limit},
		log.With(slog.String("module", "email")),
	)
	a.registry = email.NewRegistry(a.loader, log.With(slog.String("module", "registry")))

	if cfg.MboxPath != "" {
		a.mailbox, err = selection.LoadMbox(cfg.MboxPath, a.loader, log.With(slog.String("module", "selection")))
		if err != nil {
			return err
		}
		a.mailbox.Select(cfg.Selected)
	}

	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	var err error
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
			return err
		}
	}
	if flags.Changed("mbox") {
		if cfg.MboxPath, err = flags.GetString("mbox"); err != nil {
			return err
		}
	}
	if flags.Changed("select") {
		if cfg.Selected, err = flags.GetInt("select"); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) close() {
	if a.mailbox != nil {
		_ = a.mailbox.Close()
	}
	if a.cleanup != nil {
		_ = a.cleanup()
	}
}

// message returns the message stored at path, or the selected mailbox entry
// when path is empty. The returned function must be called once the message
// is no longer used.
func (a *app) message(path string) (*email.Message, func(), error) {
	if path != "" {
		m, err := a.registry.Acquire(path)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { a.registry.Release(path) }, nil
	}

	var provider email.SelectionProvider
	if a.mailbox != nil {
		provider = a.mailbox
	}

	m, err := email.ForOperation(a.loader, "", provider)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: pass a file or --mbox", err)
	}
	return m, func() {}, nil
}
