package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netsim/pkg/audit"
	"github.com/dd0wney/cluso-netsim/pkg/clock"
	"github.com/dd0wney/cluso-netsim/pkg/game"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/objective"
	"github.com/dd0wney/cluso-netsim/pkg/parallel"
	"github.com/dd0wney/cluso-netsim/pkg/scoring"
)

// virtual start time of headless runs, so logs are reproducible
var simEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type simulateOptions struct {
	duration time.Duration
	step     time.Duration
	faction  string
	seed     uint64
	asJSON   bool
	runs      int
	workers   int
	auditFile string
}

// simSummary is the result of a headless run.
type simSummary struct {
	Seed       uint64                   `json:"seed"`
	Faction    model.Faction            `json:"faction"`
	Mode       game.Mode                `json:"mode"`
	Elapsed    time.Duration            `json:"elapsed"`
	Moves      int                      `json:"moves"`
	Succeeded  int                      `json:"succeeded"`
	Failed     int                      `json:"failed"`
	Idle       int                      `json:"idle"`
	Score      int                      `json:"score"`
	Combo      float64                  `json:"combo"`
	Integrity  float64                  `json:"integrity"`
	Completed  []string                 `json:"completed"`
	Pending    []string                 `json:"pending"`
	Statuses   map[model.NodeStatus]int `json:"statuses"`
	LastEvents []string                 `json:"lastEvents"`
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Let a bot play one faction on a virtual clock",
		Long: `Simulate runs a session headless on a virtual clock. Every --step the bot
dispatches one random action that would pass validation; ticks, threats
and cascades run exactly as in an interactive game. The run ends when the
game is won or lost, or after --duration of game time.

With --runs above one, independent games with consecutive seeds run on
--workers goroutines and an aggregate is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger := logging.NewJSONLogger(cmd.ErrOrStderr(), root.level())
			var result any
			if opts.runs > 1 {
				batch, err := runBatch(cmd.Context(), cfg, opts, logger)
				if err != nil {
					return err
				}
				result = batch
				if !opts.asJSON {
					printBatch(cmd.OutOrStdout(), batch)
				}
			} else {
				sum, err := runSimulation(cfg, opts, logger)
				if err != nil {
					return err
				}
				result = sum
				if !opts.asJSON {
					printSummary(cmd.OutOrStdout(), sum)
				}
			}
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.duration, "duration", 5*time.Minute, "game time to simulate")
	cmd.Flags().DurationVar(&opts.step, "step", time.Second, "game time between bot moves")
	cmd.Flags().StringVar(&opts.faction, "faction", "white", "faction the bot plays: white or black")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (default from config, else time)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().StringVar(&opts.auditFile, "audit-file", "", "append the run's audit trail to this file (single runs only)")
	cmd.Flags().IntVar(&opts.runs, "runs", 1, "number of games to play")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "games played concurrently (default one per CPU)")
	return cmd
}

func runSimulation(cfg game.Config, opts simulateOptions, logger logging.Logger) (simSummary, error) {
	faction, err := model.ParseFaction(opts.faction)
	if err != nil {
		return simSummary{}, err
	}
	if opts.step <= 0 {
		return simSummary{}, fmt.Errorf("step must be positive, got %s", opts.step)
	}
	cfg.Seed = resolveSeed(cfg, opts)

	mc := clock.NewManual(simEpoch)
	deps := game.Deps{
		Scheduler: mc,
		Store:     &scoring.MemoryStore{},
		Logger:    logger,
	}
	if opts.auditFile != "" {
		trail, err := audit.OpenFileTrail(opts.auditFile)
		if err != nil {
			return simSummary{}, err
		}
		defer trail.Close()
		deps.Audit = trail
	}
	sess, err := game.NewSession(cfg, deps)
	if err != nil {
		return simSummary{}, err
	}
	if err := sess.Start(); err != nil {
		return simSummary{}, err
	}
	defer sess.Stop()

	if err := sess.StartGame(); err != nil {
		return simSummary{}, err
	}
	if faction == model.BlackHat {
		if err := sess.ToggleFaction(); err != nil {
			return simSummary{}, err
		}
		for sess.Snapshot().Transitioning {
			mc.Advance(cfg.Ticks.Ramp)
		}
	}

	sum := simSummary{Seed: cfg.Seed, Faction: faction}
	bot := game.NewAutoplayer(sess, rand.New(rand.NewPCG(cfg.Seed+1, cfg.Seed>>1|1)))
	start := mc.Now()
	for mc.Now().Sub(start) < opts.duration {
		out, ok := bot.Step()
		switch {
		case !ok:
			sum.Idle++
		case out.Succeeded():
			sum.Moves++
			sum.Succeeded++
		default:
			sum.Moves++
			sum.Failed++
		}
		mc.Advance(opts.step)
		if sess.Snapshot().Mode.Over() {
			break
		}
	}

	snap := sess.Snapshot()
	sum.Mode = snap.Mode
	sum.Elapsed = mc.Now().Sub(start)
	sum.Score = snap.Score
	sum.Combo = snap.Combo
	sum.Integrity = snap.Integrity
	sum.Statuses = make(map[model.NodeStatus]int)
	for _, n := range snap.Nodes {
		sum.Statuses[n.Status]++
	}
	for _, o := range snap.Objectives {
		if o.Status == objective.Completed {
			sum.Completed = append(sum.Completed, o.Title)
		} else {
			sum.Pending = append(sum.Pending, o.Title)
		}
	}
	sum.LastEvents = snap.Log[:min(len(snap.Log), 10)]
	return sum, nil
}

// resolveSeed prefers the flag, then the config, then the wall clock.
func resolveSeed(cfg game.Config, opts simulateOptions) uint64 {
	switch {
	case opts.seed != 0:
		return opts.seed
	case cfg.Seed != 0:
		return cfg.Seed
	}
	return uint64(time.Now().UnixNano())
}

// batchSummary aggregates several headless runs.
type batchSummary struct {
	Runs          int           `json:"runs"`
	Faction       model.Faction `json:"faction"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
	Unfinished    int           `json:"unfinished"`
	MeanScore     float64       `json:"meanScore"`
	BestScore     int           `json:"bestScore"`
	BestSeed      uint64        `json:"bestSeed"`
	MeanIntegrity float64       `json:"meanIntegrity"`
	MeanElapsed   time.Duration `json:"meanElapsed"`
	Results       []simSummary  `json:"results"`
}

// runBatch plays opts.runs games with seeds base, base+1, ... and
// aggregates them. Results are in seed order whatever the worker count.
func runBatch(ctx context.Context, cfg game.Config, opts simulateOptions, logger logging.Logger) (batchSummary, error) {
	if opts.runs < 1 {
		return batchSummary{}, fmt.Errorf("runs must be positive, got %d", opts.runs)
	}
	if opts.auditFile != "" {
		return batchSummary{}, errors.New("--audit-file cannot be combined with --runs")
	}
	base := resolveSeed(cfg, opts)
	results, err := parallel.Map(ctx, opts.workers, opts.runs, logger, func(_ context.Context, i int) (simSummary, error) {
		o := opts
		o.seed = base + uint64(i)
		return runSimulation(cfg, o, logger)
	})
	if err != nil {
		return batchSummary{}, err
	}

	b := batchSummary{Runs: len(results), Faction: results[0].Faction, Results: results}
	var score, integrity float64
	var elapsed time.Duration
	for i, r := range results {
		switch {
		case r.Mode == game.ModeGameOverLoss:
			b.Losses++
		case r.Mode.Over():
			b.Wins++
		default:
			b.Unfinished++
		}
		if i == 0 || r.Score > b.BestScore {
			b.BestScore, b.BestSeed = r.Score, r.Seed
		}
		score += float64(r.Score)
		integrity += r.Integrity
		elapsed += r.Elapsed
	}
	n := float64(len(results))
	b.MeanScore = score / n
	b.MeanIntegrity = integrity / n
	b.MeanElapsed = elapsed / time.Duration(len(results))
	return b, nil
}

func printBatch(w io.Writer, b batchSummary) {
	fmt.Fprintf(w, "Runs:       %d as %s\n", b.Runs, b.Faction)
	fmt.Fprintf(w, "Outcomes:   %d won, %d lost, %d unfinished\n", b.Wins, b.Losses, b.Unfinished)
	fmt.Fprintf(w, "Score:      mean %.1f, best %d (seed %d)\n", b.MeanScore, b.BestScore, b.BestSeed)
	fmt.Fprintf(w, "Integrity:  mean %.1f%%\n", b.MeanIntegrity)
	fmt.Fprintf(w, "Duration:   mean %s\n", b.MeanElapsed)
}

func printSummary(w io.Writer, s simSummary) {
	fmt.Fprintf(w, "Result:     %s after %s (seed %d)\n", s.Mode, s.Elapsed, s.Seed)
	fmt.Fprintf(w, "Faction:    %s\n", s.Faction)
	fmt.Fprintf(w, "Moves:      %d (%d succeeded, %d failed, %d idle turns)\n", s.Moves, s.Succeeded, s.Failed, s.Idle)
	fmt.Fprintf(w, "Score:      %d (x%.1f combo)\n", s.Score, s.Combo)
	fmt.Fprintf(w, "Integrity:  %.1f%%\n", s.Integrity)

	statuses := make([]string, 0, len(s.Statuses))
	for st := range s.Statuses {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	fmt.Fprint(w, "Nodes:     ")
	for _, st := range statuses {
		fmt.Fprintf(w, " %s=%d", st, s.Statuses[model.NodeStatus(st)])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Objectives: %d completed, %d pending\n", len(s.Completed), len(s.Pending))
	for _, t := range s.Completed {
		fmt.Fprintf(w, "  [x] %s\n", t)
	}
	for _, t := range s.Pending {
		fmt.Fprintf(w, "  [ ] %s\n", t)
	}
	fmt.Fprintln(w, "Recent events:")
	for _, l := range s.LastEvents {
		fmt.Fprintf(w, "  %s\n", l)
	}
}
