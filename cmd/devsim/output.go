package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/alfredjeanlab/devsim/internal/editor"
	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printProjectList(w io.Writer, projects []*model.Project) error {
	if len(projects) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no projects"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED\tDESCRIPTION")
	descWidth := ui.Width() - 60
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			ui.RenderAccent(strconv.FormatInt(p.ID, 10)),
			p.Name,
			p.UpdatedAt.Format("2006-01-02 15:04"),
			ui.Truncate(p.Description, descWidth),
		)
	}
	return tw.Flush()
}

func printProject(w io.Writer, pg *model.ProjectGraph) error {
	p := pg.Project
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(strconv.FormatInt(p.ID, 10)))
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Nodes:       %d\n", pg.Counts.TotalNodes)
	fmt.Fprintf(w, "Edges:       %d\n", pg.Counts.TotalEdges)

	if len(pg.Nodes) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NODE\tKIND\tPROCESSING\tLABEL")
		for _, n := range pg.Nodes {
			fmt.Fprintf(tw, "%d\t%s\t%g\t%s\n", n.ID, n.Kind, n.ProcessingTime, n.Label)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(pg.Edges) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "EDGE\tSOURCE\tTARGET")
		for _, e := range pg.Edges {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, endpoint(e.SourceNodeID, e.SourceLabel), endpoint(e.TargetNodeID, e.TargetLabel))
		}
		return tw.Flush()
	}
	return nil
}

func endpoint(id int64, label *string) string {
	if label == nil {
		return fmt.Sprintf("%d %s", id, ui.RenderWarn("(missing)"))
	}
	return fmt.Sprintf("%d %s", id, *label)
}

// printEditorGraph prints editor ids, the way the canvas addresses nodes.
func printEditorGraph(w io.Writer, g *editor.Graph) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPROCESSING\tLABEL")
	for _, n := range g.Nodes {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\n", ui.RenderAccent(n.ID), n.Kind, n.Data.ProcessingTime, n.Data.Label)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(tw, "%s\t%s\t\t%s -> %s\n", ui.RenderMuted(e.ID), "edge", e.Source, e.Target)
	}
	return tw.Flush()
}

func readEditorGraph(path string) (*editor.Graph, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var g editor.Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decoding editor graph: %w", err)
	}
	return &g, nil
}

func writeEditorGraph(path string, g *editor.Graph) error {
	if path == "" || path == "-" {
		return printJSON(os.Stdout, g)
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project ID %q", s)
	}
	return id, nil
}
