package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	ver "github.com/lodeworks/mooring"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/node"
)

// shutdownTimeout bounds a graceful stop before the process exits
// anyway.
const shutdownTimeout = 15 * time.Second

func (c *command) initStartCmd() (err error) {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a mooring node",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			var logger logging.Logger
			switch v := strings.ToLower(c.config.GetString(optionNameVerbosity)); v {
			case "0", "silent":
				logger = logging.New(os.Stderr, 0)
			case "1", "error":
				logger = logging.New(os.Stderr, logrus.ErrorLevel)
			case "2", "warn":
				logger = logging.New(os.Stderr, logrus.WarnLevel)
			case "3", "info":
				logger = logging.New(os.Stderr, logrus.InfoLevel)
			case "4", "debug":
				logger = logging.New(os.Stderr, logrus.DebugLevel)
			case "5", "trace":
				logger = logging.New(os.Stderr, logrus.TraceLevel)
			default:
				return fmt.Errorf("unknown verbosity level %q", v)
			}

			logger.Infof("version: %v", ver.Version)

			n, err := node.New(node.Options{
				DataDir:          c.config.GetString(optionNameDataDir),
				APIAddr:          c.config.GetString(optionNameAPIAddr),
				Peers:            c.config.GetStringSlice(optionNamePeers),
				PushOnAccept:     c.config.GetBool(optionNamePushOnAccept),
				RetainSuperseded: c.config.GetBool(optionNameRetainSuperseded),
				CollectOrphans:   c.config.GetBool(optionNameCollectOrphans),
				TracingEnabled:   c.config.GetBool(optionNameTracingEnabled),
				TracingEndpoint:  c.config.GetString(optionNameTracingEndpoint),
				TracingService:   c.config.GetString(optionNameTracingService),
			}, logger)
			if err != nil {
				return err
			}

			interruptChannel := make(chan os.Signal, 1)
			signal.Notify(interruptChannel, syscall.SIGINT, syscall.SIGTERM)
			sig := <-interruptChannel
			logger.Debugf("received signal: %v", sig)
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := n.Close(ctx); err != nil {
				logger.Errorf("shutdown: %v", err)
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return c.config.BindPFlags(cmd.Flags())
		},
	}

	c.setAllFlags(cmd)
	c.root.AddCommand(cmd)
	return nil
}
