package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netsim/pkg/game"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "netsim",
		Short: "White Hat / Black Hat network security simulation",
		Long: `netsim simulates a small corporate network contested by a defender
(White Hat) and an attacker (Black Hat). Play it in the terminal, let a
bot play it headless on a virtual clock, analyse topology files or
verify audit trails.

Configuration is read from --config (YAML) and NETSIM_* environment
variables; the log level from --log-level or NETSIM_LOG_LEVEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.logLevel == "" {
				return nil
			}
			_, err := logging.LookupLevel(opts.logLevel)
			return err
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "session config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default from NETSIM_LOG_LEVEL)")

	cmd.AddCommand(
		newPlayCmd(opts),
		newSimulateCmd(opts),
		newTopologyCmd(opts),
		newAuditCmd(),
	)
	return cmd
}

func (o *rootOptions) level() logging.Level {
	if o.logLevel != "" {
		return logging.ParseLevel(o.logLevel)
	}
	return logging.LevelFromEnv()
}

func (o *rootOptions) loadConfig() (game.Config, error) {
	return game.LoadConfig(o.configFile)
}
