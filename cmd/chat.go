package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mermaidflow/internal/chat"
	"github.com/mermaidflow/internal/storage"
)

// ChatCommand starts an interactive chat that keeps conversation context
// between prompts.
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive diagram chat (/clear resets, /quit exits)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Chat id to load and save under",
				Value: storage.DefaultChatID,
			},
		},
		Action: func(c *cli.Context) error {
			app, cleanup, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer cleanup()
			return runChat(c.Context, app.Chats, c.String("id"), c.App.Reader, c.App.Writer)
		},
	}
}

// runChat reads one prompt per line from in until EOF or /quit.
func runChat(ctx context.Context, svc *chat.Service, chatID string, in io.Reader, out io.Writer) error {
	sess, err := svc.Open(ctx, chatID)
	if err != nil {
		return err
	}
	if err := sess.Save(ctx); err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}
	if sess.Greeting != "" {
		fmt.Fprintln(out, sess.Greeting)
	}
	if n := len(sess.State.Messages); n > 0 {
		fmt.Fprintf(out, "Loaded %d previous messages.\n", n)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := svc.Clear(ctx, chatID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		turn, err := svc.Send(ctx, chatID, line)
		if err != nil {
			if errors.Is(err, chat.ErrTurnInProgress) {
				fmt.Fprintln(out, err.Error())
				continue
			}
			return err
		}
		if err := turn.Save(ctx); err != nil {
			return fmt.Errorf("failed to save chat: %w", err)
		}

		if turn.Err != nil {
			fmt.Fprintf(out, "Error: %s\n", turn.Assistant.Content)
			continue
		}
		fmt.Fprintln(out, turn.Assistant.Content)
		fmt.Fprintln(out, turn.Assistant.DiagramCode)
	}
}
