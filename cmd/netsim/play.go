package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netsim/pkg/audit"
	"github.com/dd0wney/cluso-netsim/pkg/game"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/pubsub"
)

type playOptions struct {
	metricsAddr string
	logFile     string
	auditFile   string
	tutorial    bool
}

func newPlayCmd(root *rootOptions) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively in the terminal",
		Long: `Play opens the terminal UI on a real-time session.

Key bindings:
  ↑/↓ or k/j   Move through the node table
  enter        Select the node under the cursor
  1-4          Pick one of your faction's actions
  space / f    Run the picked action on the selected node
  s / u        Start a game / the tutorial
  t            Switch between White Hat and Black Hat
  r / p        Reset / play again after the game ends
  q / Ctrl+C   Quit

Logs go to --log-file since the UI owns the terminal. With --metrics-addr
the session also serves /metrics, /healthz, /readyz, /livez and /snapshot.
With --audit-file every action, mode change, faction switch and completed
objective is appended to a hash-chained trail; see "netsim audit".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg, root.level(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve metrics and health probes on this address, e.g. :9090")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "netsim.log", "file to write JSON logs to")
	cmd.Flags().StringVar(&opts.auditFile, "audit-file", "", "append a hash-chained audit trail to this file")
	cmd.Flags().BoolVar(&opts.tutorial, "tutorial", false, "start straight into the tutorial")
	return cmd
}

func runPlay(ctx context.Context, cfg game.Config, level logging.Level, opts playOptions) error {
	logger, closer, err := logging.NewFileLogger(opts.logFile, level)
	if err != nil {
		return err
	}
	defer closer.Close()
	logging.SetDefaultLogger(logger)

	deps := game.Deps{Logger: logger}
	if opts.auditFile != "" {
		trail, err := audit.OpenFileTrail(opts.auditFile)
		if err != nil {
			return err
		}
		defer trail.Close()
		deps.Audit = trail
	}

	sess, err := game.NewSession(cfg, deps)
	if err != nil {
		return err
	}
	if err := sess.Start(); err != nil {
		return err
	}
	defer sess.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.metricsAddr != "" {
		go serveObserve(ctx, opts.metricsAddr, sess, logger)
	}
	if opts.tutorial {
		if err := sess.StartTutorial(); err != nil {
			return err
		}
	}

	sub, err := sess.Bus().Subscribe(ctx, pubsub.TopicSnapshot)
	if err != nil {
		return fmt.Errorf("subscribe to session: %w", err)
	}
	defer sub.Unsubscribe()

	_, err = tea.NewProgram(newUI(sess, sub.Events()), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		// interrupted by a signal
		return nil
	}
	return err
}
