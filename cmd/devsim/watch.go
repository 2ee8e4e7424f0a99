package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/events"
	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Follow project creation and saves",
	GroupID: "system",
	Long: `Prints a line whenever a project is created or saved. Events are read
from NATS when DEVSIM_NATS_URL (or the active remote's NATS URL) is set;
otherwise the project list is polled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		natsURL := os.Getenv("DEVSIM_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL != "" {
			return watchNATS(ctx, cmd.OutOrStdout(), natsURL)
		}
		return watchPoll(ctx, cmd.OutOrStdout(), interval)
	},
}

func watchNATS(ctx context.Context, w io.Writer, natsURL string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", msg.Topic, msg.Data)
				continue
			}
			fmt.Fprintln(w, formatEvent(msg, time.Now()))
		}
	}
}

// formatEvent renders one event as a single line.
func formatEvent(msg events.Message, at time.Time) string {
	ts := ui.RenderMuted(at.Format("15:04:05"))
	switch msg.Topic {
	case events.TopicProjectCreated:
		var ev events.ProjectCreated
		if err := json.Unmarshal(msg.Data, &ev); err == nil && ev.Project != nil {
			return fmt.Sprintf("%s %s project %d %q", ts, ui.RenderOK("created"), ev.Project.ID, ev.Project.Name)
		}
	case events.TopicProjectSaved:
		var ev events.ProjectSaved
		if err := json.Unmarshal(msg.Data, &ev); err == nil {
			line := fmt.Sprintf("%s %s project %d: %d nodes, %d edges", ts, ui.RenderAccent("saved"), ev.ProjectID, ev.NodesCount, ev.EdgesCount)
			if ev.DroppedEdges > 0 {
				line += " " + ui.RenderWarn(fmt.Sprintf("(%d edges dropped)", ev.DroppedEdges))
			}
			return line
		}
	}
	return fmt.Sprintf("%s %s %s", ts, msg.Topic, msg.Data)
}

func watchPoll(ctx context.Context, w io.Writer, interval time.Duration) error {
	seen := make(map[int64]time.Time)
	first := true
	for {
		projects, err := devsimClient.ListProjects(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("polling projects failed", slog.Any("err", err))
		} else {
			changed := diffProjects(projects, seen)
			if !first {
				for _, p := range changed {
					fmt.Fprintf(w, "%s %s project %d %q\n",
						ui.RenderMuted(p.UpdatedAt.Format("15:04:05")), ui.RenderAccent("changed"), p.ID, p.Name)
				}
			}
			first = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// diffProjects returns projects that are new or whose updated_at moved since
// last seen, and records them in seen.
func diffProjects(projects []*model.Project, seen map[int64]time.Time) []*model.Project {
	var changed []*model.Project
	for _, p := range projects {
		prev, ok := seen[p.ID]
		if !ok || !p.UpdatedAt.Equal(prev) {
			changed = append(changed, p)
		}
		seen[p.ID] = p.UpdatedAt
	}
	return changed
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
}
