package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/edit"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/llm"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/session"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/store"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/version"
)

func newChatCmd(app *app) *cobra.Command {
	var sessionID string
	var documentPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start or resume an interactive editing session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := openSession(cmd.Context(), app, sessionID, documentPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runChatLoop(cmd, app, ctrl)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to resume (or assign to a new session)")
	cmd.Flags().StringVar(&documentPath, "document", "", "Path to a file used as the initial document content")

	return cmd
}

func openSession(ctx context.Context, app *app, sessionID, documentPath string, out io.Writer) (*session.Controller, error) {
	opts := session.Options{
		EnableWebSearch: app.cfg.EnableWebSearch,
		UsePerplexity:   app.cfg.UsePerplexity,
		Snapshots:       app.store,
		Notify: func(s *edit.Suggestion) {
			_, _ = fmt.Fprintf(out, "proposed edit %s: %s\n", s.ID, s.Reason)
		},
	}

	if sessionID != "" {
		ctrl, err := session.Resume(sessionID, app.chat, app.backend, opts)
		if err == nil {
			_, _ = fmt.Fprintf(out, "resumed session %s (%s)\n", ctrl.ID(), version.Format(ctrl.ActiveVersion()))
			return ctrl, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("resume session %s: %w", sessionID, err)
		}
	}

	base, active, err := initialDocument(ctx, app, documentPath, out)
	if err != nil {
		return nil, err
	}

	ctrl := session.New(sessionID, base, active, app.chat, app.backend, opts)
	_, _ = fmt.Fprintf(out, "session %s (%s)\n", ctrl.ID(), version.Format(active))
	return ctrl, nil
}

// initialDocument picks the starting content for a fresh session: an
// explicit file wins, otherwise the latest stored version, otherwise an
// empty document at version 1. A failed version fetch is reported so the
// user knows the session did not load stored content.
func initialDocument(ctx context.Context, app *app, documentPath string, out io.Writer) (string, float64, error) {
	if documentPath != "" {
		data, err := os.ReadFile(documentPath)
		if err != nil {
			return "", 0, fmt.Errorf("read document: %w", err)
		}
		return string(data), 1, nil
	}

	infos, err := app.backend.ListVersions(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(out, "warning: could not load stored versions (%v); starting an empty document\n", err)
		return "", 1, nil
	}
	if len(infos) == 0 {
		return "", 1, nil
	}
	latest := infos[0]
	for _, info := range infos[1:] {
		if info.VersionNumber > latest.VersionNumber {
			latest = info
		}
	}
	return latest.Markdown, latest.VersionNumber, nil
}

func runChatLoop(cmd *cobra.Command, app *app, ctrl *session.Controller) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	_, _ = fmt.Fprintln(out, `type a message, or /help for commands`)
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runChatCommand(cmd, app, ctrl, line)
			if err != nil {
				_, _ = fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := ctrl.SendTurn(cmd.Context(), line); err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printLastReply(out, ctrl)
	}
	return scanner.Err()
}

func runChatCommand(cmd *cobra.Command, app *app, ctrl *session.Controller, line string) (quit bool, err error) {
	out := cmd.OutOrStdout()
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/help":
		printChatHelp(out)
	case "/quit", "/exit":
		return true, nil
	case "/edits":
		printEdits(out, ctrl)
	case "/stage":
		if _, ok := ctrl.Stage(arg); !ok {
			return false, fmt.Errorf("no pending edit %q", arg)
		}
	case "/unstage":
		if _, ok := ctrl.Unstage(arg); !ok {
			return false, fmt.Errorf("no staged edit %q", arg)
		}
	case "/reject":
		if !ctrl.RejectEdit(arg) {
			return false, fmt.Errorf("no edit %q", arg)
		}
	case "/discard":
		ctrl.DiscardEdits()
	case "/preview":
		_, _ = fmt.Fprintln(out, ctrl.EffectiveContent())
	case "/highlights":
		for _, h := range ctrl.Highlights() {
			_, _ = fmt.Fprintf(out, "%s: %s\n", h.Text, h.Concern)
			if h.Suggestion != "" {
				_, _ = fmt.Fprintf(out, "  suggestion: %s\n", h.Suggestion)
			}
		}
	case "/save":
		result, err := ctrl.Save(cmd.Context())
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(out, "saved %s\n", version.Format(result.VersionNumber))
	case "/commit":
		result, err := ctrl.Commit(cmd.Context())
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(out, "committed %s\n", version.Format(result.VersionNumber))
	case "/versions":
		return false, printVersions(cmd.Context(), app, out)
	case "/switch":
		return false, switchVersion(cmd, ctrl, fields)
	case "/stop":
		ctrl.Stop()
	case "/clear":
		ctrl.Clear()
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return false, nil
}

func switchVersion(cmd *cobra.Command, ctrl *session.Controller, fields []string) error {
	if len(fields) < 2 {
		return errors.New("usage: /switch <version> [force]")
	}
	target, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("invalid version %q", fields[1])
	}
	confirmed := len(fields) > 2 && fields[2] == "force"

	err = ctrl.SwitchVersion(cmd.Context(), target, confirmed)
	if errors.Is(err, session.ErrUnsavedChanges) {
		return fmt.Errorf("staged edits would be lost; use /switch %s force", fields[1])
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "switched to %s\n", version.Format(target))
	return nil
}

func printLastReply(out io.Writer, ctrl *session.Controller) {
	messages := ctrl.Messages()
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		if last.Role == session.RoleAssistant {
			if last.Text != "" {
				_, _ = fmt.Fprintln(out, last.Text)
			}
			for _, tc := range last.ToolCalls {
				if line, ok := toolCallLine(tc); ok {
					_, _ = fmt.Fprintln(out, line)
				}
			}
		}
	}
	if errText := ctrl.Err(); errText != "" {
		_, _ = fmt.Fprintf(out, "assistant error: %s\n", errText)
	}
}

// toolCallLine renders the query-shaped tool calls (research, calculation,
// workspace search) for the transcript. Edit proposals and ambiguity
// highlights have their own surfaces and are skipped here.
func toolCallLine(tc *session.ToolCall) (string, bool) {
	switch tc.Kind {
	case llm.KindResearchQuery, llm.KindCalculation, llm.KindWorkspaceSearch:
	default:
		return "", false
	}
	args, err := llm.ParseQueryArgs(tc.Input)
	if err != nil || args.Text() == "" {
		return "", false
	}
	return fmt.Sprintf("%s: %s", tc.Kind, args.Text()), true
}

func printEdits(out io.Writer, ctrl *session.Controller) {
	pending := ctrl.PendingEdits()
	staged := ctrl.StagedEdits()
	if len(pending) == 0 && len(staged) == 0 {
		_, _ = fmt.Fprintln(out, "no edits")
		return
	}
	for _, s := range pending {
		_, _ = fmt.Fprintf(out, "pending %s: %s\n", s.ID, summarizeEdit(s))
	}
	for _, s := range staged {
		_, _ = fmt.Fprintf(out, "staged  %s: %s\n", s.ID, summarizeEdit(s))
	}
}

func summarizeEdit(s *edit.Suggestion) string {
	if s.Reason != "" {
		return s.Reason
	}
	return fmt.Sprintf("%q -> %q", snippet(s.OldText), snippet(s.NewText))
}

func snippet(s string) string {
	const max = 40
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func printChatHelp(out io.Writer) {
	_, _ = fmt.Fprint(out, `/edits              list pending and staged edits
/stage <id>         stage a pending edit
/unstage <id>       return a staged edit to pending
/reject <id>        reject an edit permanently
/discard            unstage everything
/preview            show the document with staged edits applied
/highlights         list ambiguity highlights from this session
/save               save staged edits as a new sub-version
/commit             commit staged edits as the next major version
/versions           list stored versions
/switch <n> [force] load another version into the session
/stop               cancel the in-flight turn
/clear              reset the conversation
/quit               leave the session
`)
}
