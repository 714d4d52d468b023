package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage sessions stored on the server",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsNewCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sessions, err := env.api.ListSessions(ctx)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			for _, s := range sessions {
				title := s.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Printf("%s  %-48s %s\n", s.ID, title, humanize.Time(s.LastUpdate))
			}
			return nil
		},
	}
}

func newSessionsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create an empty session and print its ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sess, err := env.api.CreateSession(ctx, uuid.NewString())
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			fmt.Println(sess.ID)
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a session; without an ID, pick one via fzf",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				sessions, err := env.api.ListSessions(ctx)
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				if len(sessions) == 0 {
					fmt.Println("No sessions found.")
					return nil
				}
				idx, err := fuzzyfinder.Find(
					sessions,
					func(i int) string {
						s := sessions[i]
						title := s.Title
						if title == "" {
							title = s.ID
						}
						return fmt.Sprintf("%s | %s", title, humanize.Time(s.LastUpdate))
					},
					fuzzyfinder.WithPromptString("Delete session> "),
				)
				if err != nil {
					return fmt.Errorf("fuzzyfinder error: %w", err)
				}
				id = sessions[idx].ID
			}

			if err := env.api.DeleteSession(ctx, id); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			fmt.Printf("Deleted session %s\n", id)
			return nil
		},
	}
}
