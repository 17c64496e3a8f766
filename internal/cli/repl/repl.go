package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"learncode/internal/cli/config"
	"learncode/internal/client"
	"learncode/internal/poller"
	"learncode/internal/session"
	"learncode/internal/views"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"go.uber.org/zap"
)

const prompt = "learncode> "

var errExit = errors.New("exit")

type handlerFunc func(ctx context.Context, args []string) error

type command struct {
	usage   string
	summary string
	run     handlerFunc
}

// Session is one interactive terminal session.
type Session struct {
	cfg     config.Config
	client  *client.Client
	session *session.Session
	guard   *session.Guard
	poller  *poller.Poller
	catalog *views.Catalog
	admin   *views.Admin
	ws      *views.Workspace
	route   string

	// interrupt derives the context a command waits on; it ends on ^C.
	interrupt func(context.Context) (context.Context, context.CancelFunc)

	rl       *readline.Instance
	out      io.Writer
	log      *zap.Logger
	commands map[string]command
}

func New(cfg config.Config, c *client.Client, s *session.Session, log *zap.Logger) *Session {
	r := &Session{
		cfg:     cfg,
		client:  c,
		session: s,
		guard:   session.NewGuard(s),
		poller:  poller.New(c, poller.Config{MaxAttempts: cfg.PollMaxAttempts}),
		catalog: views.NewCatalog(c),
		route:   session.RouteHome,
		out:     os.Stdout,
		log:     log,
	}
	r.interrupt = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, os.Interrupt)
	}
	r.admin = views.NewAdmin(c, views.ConfirmFunc(r.confirm))
	r.commands = r.registry()
	return r
}

func (r *Session) registry() map[string]command {
	return map[string]command{
		"login":       {"login", "sign in with GitHub in the browser", r.cmdLogin},
		"login-local": {"login-local <user> <password>", "sign in with a local account", r.cmdLoginLocal},
		"signup":      {"signup <user> <password>", "create a local account", r.cmdSignup},
		"token":       {"token <token>", "sign in with a token from the web callback", r.cmdToken},
		"logout":      {"logout", "forget the stored credential", r.cmdLogout},
		"whoami":      {"whoami", "show the signed-in user", r.cmdWhoami},
		"problems":    {"problems [Easy|Medium|Hard|All]", "list problems", r.cmdProblems},
		"open":        {"open <n|id>", "open a problem by list number or id", r.cmdOpen},
		"lang":        {"lang <python|nodejs|cpp|java>", "choose the language", r.cmdLang},
		"load":        {"load <file>", "load source code from a file", r.cmdLoad},
		"run":         {"run", "run the code against the sample", r.cmdRun},
		"submit":      {"submit", "submit the code for grading", r.cmdSubmit},
		"history":     {"history", "list your graded submissions for the open problem", r.cmdHistory},
		"admin":       {"admin list | admin add <file.yaml> | admin delete <id>", "manage problems", r.cmdAdmin},
		"help":        {"help", "show this help", r.cmdHelp},
		"exit":        {"exit", "leave", func(context.Context, []string) error { return errExit }},
	}
}

func (r *Session) completer() *readline.PrefixCompleter {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		switch name {
		case "admin":
			items = append(items, readline.PcItem(name, readline.PcItem("list"), readline.PcItem("add"), readline.PcItem("delete")))
		case "lang":
			items = append(items, readline.PcItem(name,
				readline.PcItem("python"), readline.PcItem("nodejs"), readline.PcItem("cpp"), readline.PcItem("java")))
		case "problems":
			items = append(items, readline.PcItem(name,
				readline.PcItem("Easy"), readline.PcItem("Medium"), readline.PcItem("Hard"), readline.PcItem("All")))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands until exit or EOF.
func (r *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     r.cfg.HistoryFile,
		AutoComplete:    r.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer rl.Close()
	r.rl = rl
	r.out = rl.Stdout()
	defer r.closeWorkspace()

	r.navigate(ctx, session.RouteProblems)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := r.Exec(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				r.printf("bye\n")
				return nil
			}
			r.printf("error: %v\n", err)
		}
	}
}

// Exec runs one command line.
func (r *Session) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}
	cmd, ok := r.commands[tokens[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", tokens[0])
	}
	r.log.Debug("command", zap.String("name", tokens[0]), zap.Int("args", len(tokens)-1))
	return cmd.run(ctx, tokens[1:])
}

// navigate asks the guard for route and follows any redirect.
func (r *Session) navigate(ctx context.Context, route string) bool {
	d := r.guard.Navigate(ctx, route)
	if d.Allowed {
		r.route = d.Route
		return true
	}
	switch d.Redirect {
	case session.RouteHome:
		r.printf("Not signed in. Use login, login-local or token.\n")
		if d.Reason != nil && !errors.Is(d.Reason, session.ErrNoCredential) {
			r.log.Debug("credential rejected", zap.Error(d.Reason))
		}
		r.closeWorkspace()
	case session.RouteProblems:
		r.printf("Admin access required.\n")
	}
	r.route = d.Redirect
	return false
}

func (r *Session) confirm(question string) bool {
	if r.rl == nil {
		return false
	}
	r.rl.SetPrompt(question + " [y/N] ")
	defer r.rl.SetPrompt(prompt)
	answer, err := r.rl.Readline()
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (r *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Session) closeWorkspace() {
	if r.ws != nil {
		r.ws.Close()
		r.ws = nil
	}
}

func (r *Session) cmdHelp(context.Context, []string) error {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := r.commands[name]
		r.printf("  %-45s %s\n", c.usage, c.summary)
	}
	return nil
}

func atoiIndex(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
