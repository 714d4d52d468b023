package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/renatogalera/agentchat/pkg/stream"
)

func newAskCmd() *cobra.Command {
	var keepSession bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the streamed answer",
		Long: `Sends one message in a throwaway session and writes the assistant
reply to stdout as it streams. The session is deleted afterwards
unless --keep is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAskCommand(strings.Join(args, " "), keepSession)
		},
	}
	cmd.Flags().BoolVar(&keepSession, "keep", false, "Keep the session on the server")
	return cmd
}

func runAskCommand(question string, keepSession bool) error {
	env, err := setupEnvironment()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := env.api.CreateSession(ctx, uuid.NewString())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	env.store.UpsertSession(sess)

	ctrl := stream.New(env.api, env.store,
		stream.WithTimeout(env.timeout),
		stream.WithDeltaFunc(func(messageID, content, delta string) {
			fmt.Fprint(os.Stdout, delta)
		}),
	)

	sendErr := ctrl.Send(ctx, sess.ID, question)
	fmt.Fprintln(os.Stdout)

	if !keepSession {
		if err := env.api.DeleteSession(ctx, sess.ID); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Msg("Failed to delete session")
		}
	}

	if sendErr != nil {
		return fmt.Errorf("ask failed: %w", sendErr)
	}
	return nil
}
