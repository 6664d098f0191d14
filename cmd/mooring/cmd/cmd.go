// Package cmd implements the mooring command line interface.
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	optionNameDataDir          = "data-dir"
	optionNameAPIAddr          = "api-addr"
	optionNameVerbosity        = "verbosity"
	optionNamePeers            = "peer"
	optionNamePushOnAccept     = "push-on-accept"
	optionNameRetainSuperseded = "retain-superseded"
	optionNameCollectOrphans   = "collect-orphans"
	optionNameTracingEnabled   = "tracing"
	optionNameTracingEndpoint  = "tracing-endpoint"
	optionNameTracingService   = "tracing-service-name"
)

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	cfgFile string
	homeDir string
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "mooring",
			Short:         "Persistence engine for signed, content-addressed objects",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig()
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	if c.homeDir == "" {
		if err := c.setHomeDir(); err != nil {
			return nil, err
		}
	}

	c.initGlobalFlags()

	if err := c.initStartCmd(); err != nil {
		return nil, err
	}
	c.initVersionCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	return c.root.Execute()
}

// Execute parses command line arguments and runs the selected command.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.mooring.yaml)")
}

func (c *command) initConfig() (err error) {
	config := viper.New()
	configName := ".mooring"
	if c.cfgFile != "" {
		config.SetConfigFile(c.cfgFile)
	} else {
		config.AddConfigPath(c.homeDir)
		config.SetConfigName(configName)
	}

	config.SetEnvPrefix("mooring")
	config.AutomaticEnv()
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if c.homeDir != "" && c.cfgFile == "" {
		c.cfgFile = filepath.Join(c.homeDir, configName+".yaml")
	}

	if err := config.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return err
		}
	}

	c.config = config
	return nil
}

func (c *command) setHomeDir() (err error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	c.homeDir = dir
	return nil
}

func (c *command) setAllFlags(cmd *cobra.Command) {
	cmd.Flags().String(optionNameDataDir, filepath.Join(c.homeDir, ".mooring"), "data directory for the object store")
	cmd.Flags().String(optionNameAPIAddr, ":8080", "HTTP API listen address")
	cmd.Flags().String(optionNameVerbosity, "info", "log verbosity level 'silent', 'error', 'warn', 'info', 'debug', 'trace'")
	cmd.Flags().StringSlice(optionNamePeers, nil, "base URL of a remote replica, repeatable")
	cmd.Flags().Bool(optionNamePushOnAccept, false, "offer accepted objects to remote replicas")
	cmd.Flags().Bool(optionNameRetainSuperseded, true, "keep frames that arrive after a higher counter")
	cmd.Flags().Bool(optionNameCollectOrphans, false, "remove unbound containers during the startup sweep")
	cmd.Flags().Bool(optionNameTracingEnabled, false, "enable tracing")
	cmd.Flags().String(optionNameTracingEndpoint, "127.0.0.1:6831", "endpoint to send tracing data")
	cmd.Flags().String(optionNameTracingService, "mooring", "service name identifier for tracing")
}
