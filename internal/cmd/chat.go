package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knowyourrights/kyr/internal/appdir"
	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/logging"
	"github.com/knowyourrights/kyr/internal/nav"
	"github.com/knowyourrights/kyr/internal/render"
)

var (
	chatCategory string
	chatLink     string
	chatSession  string
	chatOnce     string
	chatFresh    bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the labor-rights assistant",
	Long: `Start an interactive conversation with the assistant.

Without flags the conversation you were last looking at is restored.
Use --category to start a new conversation on a topic, or --link and
--session to open a specific one:
  kyr chat --category contract
  kyr chat --link '/chat?session_id=abc&category=union'

Use --once to ask a single question and exit:
  kyr chat --once "What is the minimum wage?"

Type /help inside the chat for the available commands.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatCategory, "category", "c", "", "Category: union, contract, health_safety, general (default: chat.category)")
	chatCmd.Flags().StringVar(&chatLink, "link", "", "Open a conversation link such as /chat?session_id=...")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Open the conversation with this session id")
	chatCmd.Flags().StringVar(&chatOnce, "once", "", "Send a single message and exit (non-interactive mode)")
	chatCmd.Flags().BoolVar(&chatFresh, "new", false, "Start a new conversation instead of restoring the last one")
}

func runChat(cmd *cobra.Command, args []string) error {
	category, err := chat.ParseCategory(firstNonEmpty(chatCategory, cfg.Chat.Category))
	if err != nil {
		return err
	}
	cl, err := newClient()
	if err != nil {
		return err
	}
	locationPath, err := appdir.LocationPath()
	if err != nil {
		return err
	}

	isOnceMode := chatOnce != ""
	var saved *nav.Location
	if !isOnceMode && !chatFresh && !cmd.Flags().Changed("category") {
		saved = savedLocation(locationPath)
	}
	start, err := startLocation(chatLink, chatSession, category, saved)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	navigator := nav.NewNavigator(start, logging.Nav())
	ctrl := chat.New(cl, navigator,
		chat.WithLogger(logging.Chat()),
		chat.WithCategory(category),
		chat.WithStalePolicy(chat.ParseStalePolicy(cfg.Chat.StaleResponses)),
	)
	defer ctrl.Close()

	// Ctrl+C aborts the reply being waited for; otherwise it stops kyr.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for {
			select {
			case sig := <-sigChan:
				if sig == syscall.SIGINT && ctrl.Cancel() {
					continue
				}
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	ctrl.SyncLocation(ctx, start)

	if isOnceMode {
		return runOnce(ctx, ctrl, render.New(), os.Stdout, chatOnce)
	}

	ctrl.RefreshSessions(ctx)

	r := newREPL(ctx, ctrl, navigator, render.New(), os.Stdout, cfg.Server.URL)
	unsubscribe := navigator.OnChange(r.onNavigate)
	defer unsubscribe()

	locSync := nav.NewFileSync(locationPath, navigator, logging.Nav())
	if err := locSync.Start(); err != nil {
		logging.CLI().Warn("Location sync disabled", "path", locationPath, "error", err)
	} else {
		defer locSync.Close()
	}

	return r.run()
}

// runOnce sends a single message and prints the reply.
func runOnce(ctx context.Context, ctrl *chat.Controller, rnd *render.Renderer, out io.Writer, message string) error {
	mark := len(ctrl.Messages())
	if !ctrl.Send(ctx, message) {
		return fmt.Errorf("nothing to send")
	}
	msgs := ctrl.Messages()
	if mark > len(msgs) {
		mark = 0
	}
	var failed bool
	for _, m := range msgs[mark:] {
		if m.Role == chat.RoleUser {
			continue
		}
		fmt.Fprintln(out, rnd.Markdown(m.Content))
		if len(m.Sources) > 0 {
			fmt.Fprintf(out, "\n%s\n", rnd.Sources(m.Sources))
		}
		failed = failed || m.Failed
	}
	if failed {
		return fmt.Errorf("chat turn failed")
	}
	return nil
}

// startLocation picks where the chat opens: an explicit link, then a session
// id, then the saved location, then a new conversation in category.
func startLocation(link, sessionID string, category chat.Category, saved *nav.Location) (nav.Location, error) {
	switch {
	case link != "":
		loc, err := nav.ParseLocation(link)
		if err != nil {
			return nav.Location{}, fmt.Errorf("--link: %w", err)
		}
		if loc.Path != nav.ChatPath {
			return nav.Location{}, fmt.Errorf("--link: unsupported path %q", loc.Path)
		}
		return loc, nil
	case sessionID != "":
		return nav.ChatLocation(sessionID, string(category)), nil
	case saved != nil && saved.Path == nav.ChatPath:
		return *saved, nil
	default:
		return nav.ChatLocation("", string(category)), nil
	}
}

// savedLocation returns the location persisted by the last chat, if any.
func savedLocation(path string) *nav.Location {
	loc, err := nav.ReadLocation(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.CLI().Warn("Ignoring saved location", "path", path, "error", err)
		}
		return nil
	}
	return &loc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
