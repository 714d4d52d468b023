package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/renatogalera/agentchat/pkg/agentapi"
	"github.com/renatogalera/agentchat/pkg/session"
	"github.com/renatogalera/agentchat/pkg/stream"
	"github.com/renatogalera/agentchat/pkg/ui"
)

var flagResume bool

// runChatCommand opens (or resumes) a session and hands it to the TUI.
func runChatCommand(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var sess session.Session
	if flagResume {
		sess, err = pickSession(ctx, env)
	} else {
		sess, err = env.api.CreateSession(ctx, uuid.NewString())
	}
	if err != nil {
		return err
	}
	env.store.UpsertSession(sess)

	ctrl := stream.New(env.api, env.store, stream.WithTimeout(env.timeout))

	model := ui.NewModel(env.store, ctrl, sess.ID)
	p := ui.NewProgram(model)
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("TUI program error")
		return err
	}
	return nil
}

// pickSession lets the user choose an existing session via fzf and loads
// its history into the store. A session deleted on the server since it
// was listed falls back to a fresh one.
func pickSession(ctx context.Context, env *clientEnv) (session.Session, error) {
	sessions, err := env.api.ListSessions(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return session.Session{}, fmt.Errorf("no sessions to resume; start a new chat first")
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
		fuzzyfinder.WithPromptString("Select a session> "),
	)
	if err != nil {
		return session.Session{}, fmt.Errorf("fuzzyfinder error: %w", err)
	}

	sess, msgs, err := env.api.GetSession(ctx, sessions[idx].ID)
	if err != nil {
		if errors.Is(err, agentapi.ErrSessionNotFound) {
			log.Warn().Str("session", sessions[idx].ID).Msg("Session vanished on server, starting a new one")
			return env.api.CreateSession(ctx, uuid.NewString())
		}
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}

	env.store.SetMessages(sess.ID, msgs)
	return sess, nil
}
