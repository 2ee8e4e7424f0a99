package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/client"
	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:     "chat [message]",
	Short:   "Talk to the modelling assistant",
	GroupID: "chat",
	Long: `Sends one message to the assistant and prints the reply. Without a
message an interactive session reads lines from stdin until EOF; the whole
session shares one conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		convID, _ := cmd.Flags().GetString("conversation")
		ctx := context.Background()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			resp, err := devsimClient.Chat(ctx, &client.ChatRequest{Message: args[0], ConversationID: convID})
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			if jsonOutput {
				return printJSON(out, resp)
			}
			fmt.Fprintln(out, resp.Reply)
			fmt.Fprintln(os.Stderr, ui.RenderMuted("conversation: "+resp.ConversationID))
			return nil
		}
		return chatSession(ctx, cmd.InOrStdin(), out, convID)
	},
}

func chatSession(ctx context.Context, in io.Reader, out io.Writer, convID string) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ui.RenderAccent("> "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		msg := strings.TrimSpace(sc.Text())
		if msg == "" {
			continue
		}
		resp, err := devsimClient.Chat(ctx, &client.ChatRequest{Message: msg, ConversationID: convID})
		if err != nil {
			fmt.Fprintln(out, ui.RenderError(err.Error()))
			continue
		}
		convID = resp.ConversationID
		fmt.Fprintln(out, resp.Reply)
	}
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Print the stored history of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := devsimClient.Conversation(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting conversation: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), msgs)
		}
		printConversation(cmd.OutOrStdout(), msgs)
		return nil
	},
}

var chatForgetCmd = &cobra.Command{
	Use:   "forget <conversation-id>",
	Short: "Delete a conversation's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := devsimClient.DeleteConversation(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting conversation: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "conversation %s deleted\n", args[0])
		return nil
	},
}

func printConversation(w io.Writer, msgs []model.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no messages"))
		return
	}
	for _, m := range msgs {
		who := ui.RenderAccent("you")
		if m.Role == model.RoleAssistant {
			who = ui.RenderOK("assistant")
		}
		fmt.Fprintf(w, "%s %s\n%s\n\n", who, ui.RenderMuted(m.Timestamp.Format("15:04:05")), m.Content)
	}
}

func init() {
	chatCmd.Flags().StringP("conversation", "c", "", "continue an existing conversation")

	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatForgetCmd)
}
