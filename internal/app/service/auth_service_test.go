package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"learncode/internal/common"
	"learncode/internal/common/security"
	"learncode/internal/domain/model"
	"learncode/internal/testutil"
	"learncode/internal/testutil/fakes"
)

type fakeGithub struct {
	user *GithubUser
	err  error
}

func (g *fakeGithub) AuthCodeURL(state string) string {
	return "https://github.com/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (g *fakeGithub) FetchUser(_ context.Context, code string) (*GithubUser, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.user, nil
}

func newAuthFixture(gh *fakeGithub, users ...model.User) (*AuthService, *fakes.UserRepo, *fakes.StateRepo) {
	userRepo := fakes.NewUserRepo(users...)
	states := fakes.NewStateRepo()
	svc := NewAuthService(userRepo, states, gh, AuthOptions{
		FrontendURL:  "https://learn.example.com",
		IsAdminLogin: func(login string) bool { return login == "octocat" },
	})
	return svc, userRepo, states
}

func TestSignupThenLogin(t *testing.T) {
	svc, users, _ := newAuthFixture(&fakeGithub{})
	ctx := context.Background()

	signed, err := svc.Signup(ctx, SignupRequest{Login: " alice ", Password: "correct horse"})
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, signed.User.Login, "alice")
	testutil.AssertEqual(t, signed.User.PasswordHash, "")
	testutil.AssertFalse(t, signed.User.IsAdmin, "local signups are never admin")

	tok, err := security.TokenAuth.Decode(signed.Token)
	testutil.MustNoError(t, err)
	sub, _ := tok.Get("user_id")
	testutil.AssertEqual(t, sub, signed.User.ID)

	logged, err := svc.Login(ctx, LoginRequest{Login: "alice", Password: "correct horse"})
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, logged.User.ID, signed.User.ID)
	testutil.AssertEqual(t, len(users.Touched), 1)

	_, err = svc.Login(ctx, LoginRequest{Login: "alice", Password: "wrong password"})
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Login(ctx, LoginRequest{Login: "bob", Password: "whatever1"})
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Signup(ctx, SignupRequest{Login: "alice", Password: "another pass"})
	testutil.AssertErrorIs(t, err, common.ErrConflict)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(&fakeGithub{})
	_, err := svc.Signup(context.Background(), SignupRequest{Login: "al", Password: "short"})
	testutil.AssertErrorIs(t, err, common.ErrValidation)
}

func TestLoginRejectsGithubOnlyAccount(t *testing.T) {
	gid := "42"
	svc, _, _ := newAuthFixture(&fakeGithub{}, model.User{ID: "u1", Login: "octocat", GithubID: &gid})
	_, err := svc.Login(context.Background(), LoginRequest{Login: "octocat", Password: ""})
	testutil.AssertErrorIs(t, err, common.ErrValidation)
	_, err = svc.Login(context.Background(), LoginRequest{Login: "octocat", Password: "anything"})
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)
}

func TestBeginGithubLoginRedirects(t *testing.T) {
	svc, _, states := newAuthFixture(&fakeGithub{})
	ctx := context.Background()

	allowed := []string{
		"",
		"https://learn.example.com/auth/callback",
		"http://127.0.0.1:53121/auth/callback",
		"http://localhost:9000/auth/callback",
	}
	for _, r := range allowed {
		u, err := svc.BeginGithubLogin(ctx, r)
		testutil.MustNoError(t, err)
		testutil.AssertTrue(t, strings.Contains(u, "state="), u)
	}
	testutil.AssertEqual(t, len(states.States()), len(allowed))

	for _, r := range []string{"https://evil.example.net/cb", "http://learn.example.com/auth/callback", "not a url"} {
		_, err := svc.BeginGithubLogin(ctx, r)
		testutil.AssertErrorIs(t, err, common.ErrBadRequest)
	}
}

func TestCompleteGithubLogin(t *testing.T) {
	gh := &fakeGithub{user: &GithubUser{ID: 42, Login: "octocat"}}
	svc, _, states := newAuthFixture(gh)
	ctx := context.Background()

	_, err := svc.BeginGithubLogin(ctx, "http://127.0.0.1:5000/auth/callback")
	testutil.MustNoError(t, err)
	state := states.States()[0]

	dest, err := svc.CompleteGithubLogin(ctx, state, "code-1")
	testutil.MustNoError(t, err)
	u, err := url.Parse(dest)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, u.Host, "127.0.0.1:5000")
	token := u.Query().Get("token")
	testutil.AssertTrue(t, token != "", "token delivered to the redirect")

	tok, err := security.TokenAuth.Decode(token)
	testutil.MustNoError(t, err)
	role, _ := tok.Get("role")
	testutil.AssertEqual(t, role, model.RoleAdmin)

	// The state is single use.
	_, err = svc.CompleteGithubLogin(ctx, state, "code-1")
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)
}

func TestCompleteGithubLoginProviderFailure(t *testing.T) {
	gh := &fakeGithub{err: errors.New("bad code")}
	svc, _, states := newAuthFixture(gh)
	ctx := context.Background()

	_, err := svc.BeginGithubLogin(ctx, "")
	testutil.MustNoError(t, err)
	_, err = svc.CompleteGithubLogin(ctx, states.States()[0], "code")
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.CompleteGithubLogin(ctx, "", "code")
	testutil.AssertErrorIs(t, err, common.ErrBadRequest)
}

func TestVerify(t *testing.T) {
	svc, _, _ := newAuthFixture(&fakeGithub{}, model.User{ID: "u1", Login: "alice", PasswordHash: "hash"})
	ctx := context.Background()

	u, err := svc.Verify(ctx, "u1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, u.Login, "alice")
	testutil.AssertEqual(t, u.PasswordHash, "")

	_, err = svc.Verify(ctx, "gone")
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)
}
