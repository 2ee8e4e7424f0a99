package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/editor"
	"github.com/alfredjeanlab/devsim/internal/ui"
)

// stepReport is the JSON form of one simulation step.
type stepReport struct {
	Step      int               `json:"step"`
	Transfers []editor.Transfer `json:"transfers"`
	Phases    map[string]string `json:"phases"`
}

var simulateCmd = &cobra.Command{
	Use:     "simulate [project-id]",
	Short:   "Step the generators of a project graph",
	GroupID: "simulation",
	Long: `Runs the project's generator nodes for a number of internal events and
prints every job delivered along an edge. With --file the graph is read from
an editor graph file instead of the server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		file, _ := cmd.Flags().GetString("file")
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}

		var g *editor.Graph
		switch {
		case file != "":
			var err error
			if g, err = readEditorGraph(file); err != nil {
				return err
			}
		case len(args) == 1:
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			res := editor.NewSynchronizer(devsimClient, logger).Load(context.Background(), id)
			if res.Degraded {
				fmt.Fprintf(os.Stderr, "warning: using example graph: %v\n", res.Err)
			}
			g = res.Graph
		default:
			return fmt.Errorf("specify a project id or --file")
		}

		reports := runSimulation(g, steps)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"steps": reports, "graph": g})
		}
		printSimulation(cmd.OutOrStdout(), g, reports)
		return nil
	},
}

// runSimulation steps g n times and then stops every generator, running
// one final step so finishing generators passivate.
func runSimulation(g *editor.Graph, n int) []stepReport {
	s := editor.NewSimulation(g)
	reports := make([]stepReport, 0, n+1)
	record := func(i int, transfers []editor.Transfer) {
		r := stepReport{Step: i, Transfers: transfers, Phases: map[string]string{}}
		for _, node := range g.Nodes {
			if gen := s.Generator(node.ID); gen != nil {
				r.Phases[node.ID] = string(gen.Phase())
			}
		}
		reports = append(reports, r)
	}
	for i := 1; i <= n; i++ {
		record(i, s.Step())
	}
	s.Stop()
	record(n+1, s.Step())
	return reports
}

func printSimulation(w io.Writer, g *editor.Graph, reports []stepReport) {
	for _, r := range reports {
		var phases []string
		for _, n := range g.Nodes {
			if p, ok := r.Phases[n.ID]; ok {
				phases = append(phases, n.Data.Label+"="+ui.RenderPhase(p))
			}
		}
		fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(fmt.Sprintf("step %d", r.Step)), strings.Join(phases, " "))
		for _, t := range r.Transfers {
			fmt.Fprintf(w, "  %s %s -> %s\n", t.Job.ID, t.Job.Source, labelOf(g, t.Target))
		}
	}
	fmt.Fprintln(w)
	for _, n := range g.Nodes {
		if len(n.Data.Jobs) == 0 {
			continue
		}
		ids := make([]string, len(n.Data.Jobs))
		for i, j := range n.Data.Jobs {
			ids[i] = j.Source + "/" + j.ID
		}
		fmt.Fprintf(w, "%s queue: %s\n", n.Data.Label, ui.Truncate(strings.Join(ids, ", "), ui.Width()-len(n.Data.Label)-8))
	}
}

func labelOf(g *editor.Graph, id string) string {
	if n := g.Node(id); n != nil {
		return n.Data.Label
	}
	return id
}

func init() {
	simulateCmd.Flags().IntP("steps", "n", 5, "number of internal events per generator")
	simulateCmd.Flags().StringP("file", "f", "", "read the graph from an editor graph file")
}
