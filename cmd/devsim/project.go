package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/client"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Short:   "List, show, and create projects",
	GroupID: "projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := devsimClient.ListProjects(context.Background())
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), projects)
		}
		return printProjectList(cmd.OutOrStdout(), projects)
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project with its stored nodes and edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		pg, err := devsimClient.GetGraph(context.Background(), id)
		if err != nil {
			return fmt.Errorf("getting project %d: %w", id, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), pg)
		}
		return printProject(cmd.OutOrStdout(), pg)
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		p, err := devsimClient.CreateProject(context.Background(), &client.CreateProjectRequest{
			Name:        args[0],
			Description: desc,
		})
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created project %d (%s)\n", p.ID, p.Name)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringP("description", "d", "", "project description")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectCreateCmd)
}
