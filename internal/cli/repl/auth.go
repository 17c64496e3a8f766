package repl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"learncode/internal/session"

	"go.uber.org/zap"
)

// cmdLogin runs the GitHub flow through a loopback listener that receives the
// token on /auth/callback.
func (r *Session) cmdLogin(ctx context.Context, _ []string) error {
	ln, err := net.Listen("tcp", r.cfg.CallbackAddr)
	if err != nil {
		return fmt.Errorf("open callback listener: %w", err)
	}
	callbackURL := "http://" + ln.Addr().String() + session.RouteCallback

	tokens := make(chan string, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != session.RouteCallback {
				http.NotFound(w, req)
				return
			}
			token := req.URL.Query().Get("token")
			if token == "" {
				http.Error(w, "missing token", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Signed in to learncode. You can close this window.")
			select {
			case tokens <- token:
			default:
			}
		}),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Debug("callback listener", zap.Error(err))
		}
	}()
	defer srv.Close()

	r.printf("Open this URL in your browser to sign in:\n  %s\n", r.client.GithubLoginURL(callbackURL))
	r.printf("Waiting for the callback on %s ...\n", callbackURL)

	select {
	case token := <-tokens:
		return r.completeCallback(ctx, token)
	case <-time.After(r.cfg.LoginTimeout):
		return fmt.Errorf("login timed out after %s", r.cfg.LoginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Session) cmdLoginLocal(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login-local <user> <password>")
	}
	res, err := r.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return r.completeCallback(ctx, res.Token)
}

func (r *Session) cmdSignup(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: signup <user> <password>")
	}
	res, err := r.client.Signup(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return r.completeCallback(ctx, res.Token)
}

func (r *Session) cmdToken(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: token <token>")
	}
	return r.completeCallback(ctx, args[0])
}

// completeCallback is the /auth/callback route: store the token, then go to
// the catalog.
func (r *Session) completeCallback(ctx context.Context, token string) error {
	r.navigate(ctx, session.RouteCallback)
	user, err := r.session.Login(ctx, token)
	if err != nil {
		return err
	}
	r.printf("Signed in as %s%s\n", user.Login, adminSuffix(user.IsAdmin))
	if r.navigate(ctx, session.RouteProblems) {
		return r.showProblems(ctx)
	}
	return nil
}

func (r *Session) cmdLogout(context.Context, []string) error {
	r.closeWorkspace()
	if err := r.session.Logout(); err != nil {
		return err
	}
	r.route = session.RouteHome
	r.printf("Signed out\n")
	return nil
}

func (r *Session) cmdWhoami(ctx context.Context, _ []string) error {
	if !r.navigate(ctx, r.route) {
		return nil
	}
	user, ok := r.session.Principal()
	if !ok {
		r.printf("Not signed in\n")
		return nil
	}
	r.printf("%s (%s)%s, member since %s\n", user.Login, user.ID, adminSuffix(user.IsAdmin), user.CreatedAt.Format("2006-01-02"))
	return nil
}

func adminSuffix(admin bool) string {
	if admin {
		return " [admin]"
	}
	return ""
}
