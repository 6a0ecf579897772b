package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/shlex"
	"github.com/reeflective/readline"

	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/client"
	"github.com/knowyourrights/kyr/internal/nav"
	"github.com/knowyourrights/kyr/internal/render"
)

// slashCommands defines the available slash commands with their descriptions.
var slashCommands = []struct {
	name        string
	description string
}{
	{"/help", "Show available commands"},
	{"/h", "Show available commands (alias)"},
	{"/?", "Show available commands (alias)"},
	{"/new", "Start a new conversation"},
	{"/sessions", "List recent conversations"},
	{"/open", "Open a conversation by number or id"},
	{"/back", "Go back to the previous conversation"},
	{"/forward", "Go forward again"},
	{"/upload", "Upload a contract (.pdf, .docx, .txt) for analysis"},
	{"/web", "Toggle web search for the next message"},
	{"/category", "Show or change the category"},
	{"/link", "Show the link to this conversation"},
	{"/history", "Print the whole conversation again"},
	{"/quit", "Exit kyr"},
	{"/exit", "Exit kyr (alias)"},
	{"/q", "Exit kyr (alias)"},
}

const helpText = `
Available commands:
  /new                  - Start a new conversation
  /sessions             - List recent conversations
  /open <n|id>          - Open a conversation by list number or session id
  /back, /forward       - Move through the conversations you opened
  /upload <file>        - Upload a contract (.pdf, .docx, .txt) for analysis
  /web                  - Toggle web search for the next message
  /category [name]      - Show or change the category (union, contract, health_safety, general)
  /link                 - Show the link to this conversation
  /history              - Print the whole conversation again
  /quit, /exit, /q      - Exit kyr
  /help, /h, /?         - Show this help message

Tips:
  - Type your question and press Enter to send it
  - Press Ctrl+C while waiting to abort the reply
  - Quote file names with spaces: /upload "my contract.pdf"
  - Run 'kyr open <id>' in another terminal to switch this chat
`

// uploadTypes are the file extensions the service accepts for analysis.
var uploadTypes = []string{".pdf", ".docx", ".txt"}

// repl drives one interactive chat. Lines are handled one at a time; a
// chat turn blocks the prompt until it resolves.
type repl struct {
	ctx    context.Context
	ctrl   *chat.Controller
	nav    *nav.Navigator
	render *render.Renderer
	server string

	outMu sync.Mutex
	out   io.Writer

	// inCommand is set while a line is being handled.
	inCommand atomic.Bool
	// navigated records an external navigation during the current line.
	navigated atomic.Bool
}

func newREPL(ctx context.Context, ctrl *chat.Controller, n *nav.Navigator, rnd *render.Renderer, out io.Writer, server string) *repl {
	return &repl{ctx: ctx, ctrl: ctrl, nav: n, render: rnd, out: out, server: server}
}

func (r *repl) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) run() error {
	rl := readline.NewShell()
	rl.Prompt.Primary(r.prompt)

	history := readline.NewInMemoryHistory()
	rl.History.Add("default", history)

	rl.Completer = func(line []rune, cursor int) readline.Completions {
		return completeInput(string(line), cursor)
	}

	r.printf("\n⚖️  Know Your Rights (%s)\n", r.server)
	r.printf("📝 Type your question and press Enter. Use /help for commands. Tab completes commands.\n")
	r.printTranscript()

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || errors.Is(err, readline.ErrInterrupt) {
				r.printf("\n👋 Goodbye!\n")
				return nil
			}
			return err
		}
		if quit := r.handle(line); quit {
			return nil
		}
	}
}

func (r *repl) prompt() string {
	p := "kyr " + r.ctrl.Category().Label()
	if r.ctrl.WebSearch() {
		p += " 🌐"
	}
	return p + "> "
}

// onNavigate follows back/forward and links opened by other processes.
func (r *repl) onNavigate(c nav.Change) {
	if c.Origin != nav.OriginExternal {
		return
	}
	r.ctrl.SyncLocation(r.ctx, c.Location)
	if r.inCommand.Load() {
		r.navigated.Store(true)
		return
	}
	r.printf("\n🔗 Opened %s\n", c.Location)
	r.printTranscript()
}

// handle runs one input line. It reports whether the REPL should exit.
func (r *repl) handle(line string) (quit bool) {
	r.inCommand.Store(true)
	defer r.inCommand.Store(false)
	r.navigated.Store(false)

	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "/") {
		return r.command(line)
	}
	r.turn("⏳ Thinking...", func() bool { return r.ctrl.Send(r.ctx, line) })
	return false
}

func (r *repl) command(line string) (quit bool) {
	name, args, err := parseCommand(line)
	if err != nil {
		r.printf("❌ %v\n", err)
		return false
	}

	switch name {
	case "quit", "exit", "q":
		r.printf("👋 Goodbye!\n")
		return true
	case "help", "h", "?":
		r.printf("%s", helpText)
	case "new":
		r.ctrl.Unbind()
		r.printTranscript()
	case "sessions":
		r.ctrl.RefreshSessions(r.ctx)
		r.printf("%s\n", r.render.Sessions(r.ctrl.Sessions(), r.ctrl.CurrentID()))
	case "open":
		if len(args) != 1 {
			r.printf("Usage: /open <number|session id>\n")
			return false
		}
		sessions := r.ctrl.Sessions()
		if len(sessions) == 0 {
			r.ctrl.RefreshSessions(r.ctx)
			sessions = r.ctrl.Sessions()
		}
		id, err := resolveSession(args[0], sessions)
		if err != nil {
			r.printf("❌ %v\n", err)
			return false
		}
		r.ctrl.SelectSession(r.ctx, id)
		r.printTranscript()
	case "back", "forward":
		step := r.nav.Back
		if name == "forward" {
			step = r.nav.Forward
		}
		if _, err := step(); err != nil {
			if errors.Is(err, nav.ErrNoHistory) {
				r.printf("Nothing to go %s to.\n", name)
				return false
			}
			r.printf("❌ %v\n", err)
			return false
		}
		r.printTranscript()
	case "upload":
		if len(args) != 1 {
			r.printf("Usage: /upload <file>\n")
			return false
		}
		r.upload(args[0])
	case "web":
		if r.ctrl.ToggleWebSearch() {
			r.printf("🌐 Web search on for the next message\n")
		} else {
			r.printf("Web search off\n")
		}
	case "category":
		if len(args) == 0 {
			r.printf("📂 Category: %s\n", r.ctrl.Category().Label())
			return false
		}
		c, err := chat.ParseCategory(args[0])
		if err != nil {
			r.printf("❌ %v\n", err)
			return false
		}
		r.ctrl.SetCategory(c)
		r.nav.Replace(r.nav.Current().With(nav.ParamCategory, string(c)))
		r.printf("📂 Category: %s\n", c.Label())
	case "link":
		r.printf("🔗 %s\n", r.nav.Current())
	case "history":
		r.printTranscript()
	default:
		r.printf("❓ Unknown command: /%s (use /help for available commands)\n", name)
	}
	return false
}

func (r *repl) upload(path string) {
	if err := checkUpload(path); err != nil {
		r.printf("❌ %v\n", err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		r.printf("❌ %v\n", err)
		return
	}
	defer f.Close()

	name := filepath.Base(path)
	r.turn("📎 Analyzing "+name+"...", func() bool {
		return r.ctrl.UploadDocument(r.ctx, chat.Document{Name: name, Body: f}, r.ctrl.Category())
	})
}

// turn runs a chat or analyze call and prints the replies it produced.
func (r *repl) turn(status string, call func() bool) {
	mark := len(r.ctrl.Messages())
	r.printf("%s\n", status)
	if !call() {
		r.printf("⚠️  Still waiting for the previous reply\n")
		return
	}
	if r.navigated.Swap(false) {
		r.printf("🔗 Switched to %s while waiting\n", r.nav.Current())
		r.printTranscript()
		return
	}
	msgs := r.ctrl.Messages()
	if mark > len(msgs) {
		r.printTranscript()
		return
	}
	for _, m := range msgs[mark:] {
		if m.Role == chat.RoleUser {
			continue
		}
		r.printMessage(m)
	}
}

func (r *repl) printTranscript() {
	for _, m := range r.ctrl.Messages() {
		r.printMessage(m)
	}
}

func (r *repl) printMessage(m chat.Message) {
	r.printf("\n%s\n\n", r.render.Message(m))
}

// parseCommand splits a slash command line into its lowercased name and
// arguments. Arguments follow shell quoting rules.
func parseCommand(line string) (string, []string, error) {
	fields, err := shlex.Split(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if err != nil {
		return "", nil, fmt.Errorf("invalid command: %w", err)
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command (use /help for available commands)")
	}
	return strings.ToLower(fields[0]), fields[1:], nil
}

// resolveSession maps a 1-based list number or a session id to an id.
func resolveSession(arg string, sessions []client.SessionSummary) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(sessions) {
			return "", fmt.Errorf("no conversation number %d (see /sessions)", n)
		}
		return sessions[n-1].ID, nil
	}
	return arg, nil
}

// checkUpload verifies path is a regular file of an accepted type.
func checkUpload(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	accepted := false
	for _, t := range uploadTypes {
		if ext == t {
			accepted = true
			break
		}
	}
	if !accepted {
		return fmt.Errorf("unsupported file type %q: only %s are accepted", filepath.Base(path), strings.Join(uploadTypes, ", "))
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// matchCommands returns the slash commands completing text, as
// value/description pairs. After "/category " it completes category names.
func matchCommands(text string) []string {
	if rest, ok := strings.CutPrefix(text, "/category "); ok {
		var pairs []string
		for _, c := range chat.Categories {
			if strings.HasPrefix(string(c), rest) {
				pairs = append(pairs, string(c), c.Label())
			}
		}
		return pairs
	}
	if !strings.HasPrefix(text, "/") || strings.Contains(text, " ") {
		return nil
	}
	var pairs []string
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd.name, text) {
			pairs = append(pairs, cmd.name, cmd.description)
		}
	}
	return pairs
}

// completeInput provides tab completion for the chat input.
func completeInput(line string, cursor int) readline.Completions {
	if cursor > len(line) {
		cursor = len(line)
	}
	text := line[:cursor]

	pairs := matchCommands(text)
	if len(pairs) == 0 {
		return readline.Completions{}
	}
	if strings.HasPrefix(text, "/category ") {
		return readline.CompleteValuesDescribed(pairs...).Tag("categories")
	}
	return readline.CompleteValuesDescribed(pairs...).
		Tag("commands").
		NoSpace('/') // Don't add space after completing partial command
}
