package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BuzzLyutic/taskdesk/internal/authform"
	"github.com/BuzzLyutic/taskdesk/internal/config"
	"github.com/BuzzLyutic/taskdesk/internal/ui"
)

const Version = "0.1.0"

// cli holds the state shared by all subcommands of one invocation.
type cli struct {
	cfg   config.Client
	out   io.Writer
	debug bool
	app   *app
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.close(); err != nil {
		c.app.logger.Warn("close credential store", zap.Error(err))
	}
	_ = c.app.logger.Sync()
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Command-line client for the taskdesk API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(c.debug)
			if err != nil {
				return err
			}
			c.app, err = newApp(c.cfg, logger, c.out)
			if err != nil {
				return err
			}
			c.app.showFlash()
			return nil
		},
	}
	cmd.SetOut(c.out)
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Verbose logging to stderr")

	cmd.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newListCmd(c),
		newAddCmd(c),
		newEditCmd(c),
		newRmCmd(c),
		newHistoryCmd(c),
		newDashboardCmd(c),
		newDescribeCmd(c),
	)
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: config.LoadClient(), out: os.Stdout}
	err := newRootCmd(c).ExecuteContext(ctx)
	c.close()

	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		stop()
		os.Exit(1)
	}
}

// consumeFlash drops the flash of a failure that is printed right away.
func consumeFlash(c *cli, err error) error {
	var fe *authform.FormError
	if errors.As(err, &fe) {
		c.app.form.TakeFlash()
	}
	return err
}
