package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netsim/pkg/audit"
	"github.com/dd0wney/cluso-netsim/pkg/model"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Verify and read audit trails written by play and simulate",
	}

	verify := &cobra.Command{
		Use:   "verify <file>...",
		Short: "Check the hash chain of audit trail files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				n, err := verifyTrail(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v (%d events intact)\n", path, err, n)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d events)\n", path, n)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d audit trails failed verification", failed, len(args))
			}
			return nil
		},
	}

	var (
		kind    string
		faction string
		action  string
		result  string
		node    int
		last    int
		asJSON  bool
	)
	show := &cobra.Command{
		Use:   "show <file>",
		Short: "Print audit events, optionally filtered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := &audit.Filter{Kind: audit.Kind(kind), Action: action, Result: result, NodeID: node}
			if faction != "" {
				f, err := model.ParseFaction(faction)
				if err != nil {
					return err
				}
				filter.Faction = &f
			}
			events, err := readTrail(args[0], filter)
			if err != nil {
				return err
			}
			if last > 0 && len(events) > last {
				events = events[len(events)-last:]
			}
			return printEvents(cmd.OutOrStdout(), events, asJSON)
		},
	}
	show.Flags().StringVar(&kind, "kind", "", "action, mode, faction or objective")
	show.Flags().StringVar(&faction, "faction", "", "white or black")
	show.Flags().StringVar(&action, "action", "", "action name, e.g. EXPLOIT")
	show.Flags().StringVar(&result, "result", "", "action result, e.g. SUCCESS")
	show.Flags().IntVar(&node, "node", 0, "target node id")
	show.Flags().IntVar(&last, "last", 0, "only the last N matching events")
	show.Flags().BoolVar(&asJSON, "json", false, "print events as JSON lines")

	cmd.AddCommand(verify, show)
	return cmd
}

func verifyTrail(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return audit.Verify(f)
}

func readTrail(path string, filter *audit.Filter) ([]audit.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return audit.Read(f, filter)
}

func printEvents(w io.Writer, events []audit.Event, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for i := range events {
			if err := enc.Encode(&events[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for i := range events {
		fmt.Fprintln(w, events[i].String())
	}
	return nil
}
