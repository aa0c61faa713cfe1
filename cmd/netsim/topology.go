package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-netsim/pkg/algorithms"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

func newTopologyCmd(_ *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Inspect and validate network topology files",
	}

	validate := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check topology files for schema and graph errors",
		Long: `Validate decodes each file, checks field constraints and then the graph
itself: unique ids, no self connections, every connection resolving to a
node and reciprocated by it. Islands cut off from the rest of the network
are reported as warnings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				n, islands, err := validateTopology(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d nodes)\n", path, n)
				for _, ids := range islands {
					fmt.Fprintf(cmd.OutOrStdout(), "warn %s: nodes %v cut off from the rest of the network\n", path, ids)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d topology files invalid", failed, len(args))
			}
			return nil
		},
	}

	def := &cobra.Command{
		Use:   "default",
		Short: "Print the built-in topology as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(network.DefaultTopology()); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	var (
		chokepoints int
		hops        int
		asJSON      bool
	)
	analyze := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Report attack paths, chokepoints and blast radius",
		Long: `Analyze treats frontend nodes as entry points and backend nodes as
targets. For every pair it prints the fewest-hop route and the weakest
route, the one crossing the least total defense. Chokepoints are ranked
by betweenness centrality; blast radius counts the nodes within --hops of
each entry. Without a file the built-in topology is analysed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo := network.DefaultTopology()
			if len(args) == 1 {
				var err error
				if topo, err = network.LoadTopology(args[0]); err != nil {
					return err
				}
				if err := topo.Check(); err != nil {
					return err
				}
			}
			rep, err := algorithms.Analyze(topo, chokepoints, hops)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printReport(cmd.OutOrStdout(), topo, rep)
			return nil
		},
	}
	analyze.Flags().IntVar(&chokepoints, "chokepoints", 3, "number of chokepoints to list")
	analyze.Flags().IntVar(&hops, "hops", 2, "blast radius depth")
	analyze.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	cmd.AddCommand(validate, def, analyze)
	return cmd
}

// validateTopology loads path and builds a registry from it, returning the
// node count and any islands cut off from the lowest-id node.
func validateTopology(path string) (int, [][]int, error) {
	topo, err := network.LoadTopology(path)
	if err != nil {
		return 0, nil, err
	}
	reg, err := network.New(topo, logging.NewNopLogger())
	if err != nil {
		return 0, nil, err
	}
	comps := algorithms.ConnectedComponents(algorithms.FromTopology(topo))
	var islands [][]int
	for _, c := range comps.Components[1:] {
		islands = append(islands, c.Nodes)
	}
	return reg.Len(), islands, nil
}

func printReport(w io.Writer, topo network.Topology, rep *algorithms.Report) {
	names := make(map[int]string, len(topo.Nodes))
	for _, n := range topo.Nodes {
		names[n.ID] = n.Name
	}
	route := func(ids []int) string {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = names[id]
		}
		return strings.Join(parts, " -> ")
	}

	fmt.Fprintf(w, "Nodes: %d  Edges: %d  Components: %d\n", rep.Nodes, rep.Edges, len(rep.Components))
	if len(rep.Components) > 1 {
		for i, c := range rep.Components {
			fmt.Fprintf(w, "  component %d: %s\n", i, route(c))
		}
	}

	fmt.Fprintln(w, "\nChokepoints (betweenness):")
	if len(rep.Chokepoints) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, c := range rep.Chokepoints {
		fmt.Fprintf(w, "  %-10s %.3f\n", names[c.NodeID], c.Score)
	}

	fmt.Fprintln(w, "\nAttack paths:")
	if len(rep.Paths) == 0 {
		fmt.Fprintln(w, "  none (no frontend node reaches a backend node)")
	}
	for _, p := range rep.Paths {
		fmt.Fprintf(w, "  %s => %s\n", names[p.From], names[p.To])
		fmt.Fprintf(w, "    shortest: %s\n", route(p.Shortest))
		fmt.Fprintf(w, "    weakest:  %s (defense %d)\n", route(p.Weakest), p.Resistance)
	}

	fmt.Fprintln(w, "\nBlast radius:")
	for _, b := range rep.Blast {
		fmt.Fprintf(w, "  %-10s %d reachable", names[b.From], b.Total)
		for hop := 1; hop <= len(b.ByHop); hop++ {
			fmt.Fprintf(w, "  hop%d=%d", hop, b.ByHop[hop])
		}
		fmt.Fprintln(w)
	}
}
