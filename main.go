package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/auditx/auditx-pipeline/config"
	"github.com/auditx/auditx-pipeline/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	conf *cfg.Root
	log  *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "auditx",
		Short: "Correlate call transcripts into explainable compliance events",
		Long: "auditx turns a call's sentence stream, text markers and financial context\n" +
			"into behavioral indicators and deduplicated compliance events.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level, overrides pipeline.log_level")
	pf.StringVar(&a.logFormat, "log-format", "", "text or json, overrides pipeline.log_format")

	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newIndicatorsCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.Version = version
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	conf, err := cfg.Load(a.configPath)
	if err != nil {
		return err
	}
	level, format := conf.Pipeline.LogLvl, conf.Pipeline.LogFormat
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	log, err := logging.New(level, format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.conf, a.log = conf, log
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
