package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/uniapply/uniapply-go/config"
	"github.com/uniapply/uniapply-go/internal/bootstrap"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
	"github.com/uniapply/uniapply-go/internal/service"
	"github.com/uniapply/uniapply-go/internal/validate"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Auth   *service.AuthService
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	auth, err := bootstrap.BuildAuthService(bootstrap.AuthDeps{Config: cfg, Logger: logger})
	if err != nil {
		logger.ErrorContext(context.Background(), "build auth service", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal wiring failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Auth:   auth,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command failure to shell scripts
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in with email and password",
			run:         runLogin,
		},
		"register": {
			name:        "register",
			description: "Create an account and sign in",
			run:         runRegister,
		},
		"login-social": {
			name:        "login-social",
			description: "Sign in through a social identity provider",
			run:         runLoginSocial,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and clear the stored session",
			run:         runLogout,
		},
		"status": {
			name:        "status",
			description: "Show the current session and its expiry",
			run:         runStatus,
		},
		"refresh": {
			name:        "refresh",
			description: "Rotate the stored token pair",
			run:         runRefresh,
		},
		"profile": {
			name:        "profile",
			description: "Update profile fields on the signed-in account",
			run:         runProfile,
		},
		"verify-email": {
			name:        "verify-email",
			description: "Confirm the account email with the emailed token",
			run:         runVerifyEmail,
		},
		"forgot-password": {
			name:        "forgot-password",
			description: "Request a password reset email",
			run:         runForgotPassword,
		},
		"reset-password": {
			name:        "reset-password",
			description: "Complete a password reset with the emailed token",
			run:         runResetPassword,
		},
	}
}

func runLogin(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	pw := *password
	if pw == "" {
		var err error
		pw, err = prompt("Password: ")
		if err != nil {
			return err
		}
	}

	form := validate.LoginForm{Email: *email, Password: pw}
	if err := validate.Struct(form); err != nil {
		return err
	}

	ctx.Auth.Initialize(ctx.Ctx)
	if err := ctx.Auth.Login(ctx.Ctx, ports.LoginInput{Email: *email, Password: pw}); err != nil {
		return fmt.Errorf("%s", ctx.Auth.State().Error)
	}

	state := ctx.Auth.State()
	return writef(os.Stdout, "signed in as %s (%s)\n", state.User.FullName(), state.User.Role)
}

func runRegister(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	firstName := fs.String("first-name", "", "given name")
	lastName := fs.String("last-name", "", "family name")
	role := fs.String("role", "student", "account role (student, counselor, admin)")
	acceptTerms := fs.Bool("accept-terms", false, "accept the platform terms of service")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = prompt("Password: ")
		if err != nil {
			return err
		}
	}

	form := validate.RegisterForm{
		Email:       *email,
		Password:    pw,
		FirstName:   *firstName,
		LastName:    *lastName,
		Role:        *role,
		AcceptTerms: *acceptTerms,
	}
	if err := validate.Struct(form); err != nil {
		return err
	}

	var domainRole domainauth.Role
	if err := domainRole.UnmarshalText([]byte(*role)); err != nil {
		return err
	}

	in := ports.RegisterInput{
		Email:       *email,
		Password:    pw,
		FirstName:   *firstName,
		LastName:    *lastName,
		Role:        domainRole,
		AcceptTerms: *acceptTerms,
	}
	if err := ctx.Auth.Register(ctx.Ctx, in); err != nil {
		return fmt.Errorf("%s", ctx.Auth.State().Error)
	}

	state := ctx.Auth.State()
	return writef(os.Stdout, "account created, signed in as %s\n", state.User.Email)
}

func runLoginSocial(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login-social", flag.ContinueOnError)
	provider := fs.String("provider", "google", "identity provider (google, apple)")
	timeout := fs.Duration("timeout", 2*time.Minute, "how long to wait for the browser callback")
	if err := fs.Parse(args); err != nil {
		return err
	}

	providers := bootstrap.BuildSocialProviders(ctx.Config.Auth, ctx.Logger)
	prov, ok := providers[*provider]
	if !ok {
		return fmt.Errorf("social provider %q is not configured", *provider)
	}
	pc, ok := socialProviderConfig(ctx.Config.Auth, *provider)
	if !ok {
		return fmt.Errorf("social provider %q is not configured", *provider)
	}

	ctx.Auth.Initialize(ctx.Ctx)
	authURL, state, nonce, err := ctx.Auth.BeginSocialLogin(ctx.Ctx, prov)
	if err != nil {
		return err
	}

	addr, path, err := callbackEndpoint(pc.RedirectURL)
	if err != nil {
		return err
	}
	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(path, callbackHandler(state, results))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen for callback on %s: %w", addr, err)
	}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			ctx.Logger.Error("callback server failed", "error", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := writef(os.Stdout, "open this URL in your browser to continue:\n\n  %s\n\n", authURL); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx.Ctx, *timeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return fmt.Errorf("timed out waiting for the provider callback")
	}
	if res.err != nil {
		return res.err
	}

	if err := ctx.Auth.CompleteSocialLogin(ctx.Ctx, prov, res.code, state, nonce); err != nil {
		return fmt.Errorf("%s", ctx.Auth.State().Error)
	}
	signedIn := ctx.Auth.State()
	return writef(os.Stdout, "signed in as %s (%s)\n", signedIn.User.FullName(), signedIn.User.Role)
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler accepts the provider redirect. Responses whose state does
// not match the one issued at the start of the flow are rejected without
// completing the wait.
func callbackHandler(expectState string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != expectState {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if errCode := q.Get("error"); errCode != "" {
			http.Error(w, "sign-in failed", http.StatusBadRequest)
			select {
			case results <- callbackResult{err: fmt.Errorf("provider returned %q", errCode)}:
			default:
			}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprintln(w, "Signed in. You can close this window.")
		select {
		case results <- callbackResult{code: code}:
		default:
		}
	}
}

// callbackEndpoint derives the local listen address and handler path from
// the provider redirect URL.
func callbackEndpoint(redirectURL string) (addr, path string, err error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("parse redirect URL: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("redirect URL %q has no host", redirectURL)
	}
	addr = u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return addr, path, nil
}

func socialProviderConfig(cfg config.AuthConfig, name string) (config.SocialProviderConfig, bool) {
	switch name {
	case "google":
		return cfg.Google, cfg.Google.Configured()
	case "apple":
		return cfg.Apple, cfg.Apple.Configured()
	default:
		return config.SocialProviderConfig{}, false
	}
}

func runVerifyEmail(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("verify-email", flag.ContinueOnError)
	token := fs.String("token", "", "verification token from the email")
	resend := fs.Bool("resend", false, "request a new verification email instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx.Auth.Initialize(ctx.Ctx)
	if *resend {
		if err := ctx.Auth.ResendVerificationEmail(ctx.Ctx); err != nil {
			return err
		}
		return writef(os.Stdout, "verification email sent\n")
	}
	if *token == "" {
		return fmt.Errorf("-token is required")
	}
	if err := ctx.Auth.VerifyEmail(ctx.Ctx, *token); err != nil {
		return err
	}
	return writef(os.Stdout, "email verified\n")
}

func runLogout(ctx *commandContext, _ []string) error {
	ctx.Auth.Initialize(ctx.Ctx)
	ctx.Auth.Logout(ctx.Ctx)
	return writef(os.Stdout, "signed out\n")
}

func runStatus(ctx *commandContext, _ []string) error {
	ctx.Auth.Initialize(ctx.Ctx)
	state := ctx.Auth.State()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if !state.IsAuthenticated {
		if err := writef(w, "status:\tsigned out\n"); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := writef(w, "status:\tsigned in\nuser:\t%s\nemail:\t%s\nrole:\t%s\n",
		state.User.FullName(), state.User.Email, state.User.Role); err != nil {
		return err
	}
	return w.Flush()
}

func runRefresh(ctx *commandContext, _ []string) error {
	ctx.Auth.Initialize(ctx.Ctx)
	if !ctx.Auth.State().IsAuthenticated {
		return fmt.Errorf("not signed in")
	}
	if err := ctx.Auth.RefreshToken(ctx.Ctx); err != nil {
		return err
	}
	return writef(os.Stdout, "token pair rotated\n")
}

func runProfile(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	firstName := fs.String("first-name", "", "new given name")
	lastName := fs.String("last-name", "", "new family name")
	avatar := fs.String("avatar", "", "new avatar URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var update ports.ProfileUpdate
	if *firstName != "" {
		update.FirstName = firstName
	}
	if *lastName != "" {
		update.LastName = lastName
	}
	if *avatar != "" {
		update.Avatar = avatar
	}
	if update.FirstName == nil && update.LastName == nil && update.Avatar == nil {
		return fmt.Errorf("nothing to update")
	}

	ctx.Auth.Initialize(ctx.Ctx)
	if err := ctx.Auth.UpdateProfile(ctx.Ctx, update); err != nil {
		return err
	}

	state := ctx.Auth.State()
	return writef(os.Stdout, "profile updated: %s\n", state.User.FullName())
}

func runForgotPassword(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("forgot-password", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("-email is required")
	}

	if err := ctx.Auth.ForgotPassword(ctx.Ctx, *email); err != nil {
		return err
	}
	return writef(os.Stdout, "password reset email sent (if the account exists)\n")
}

func runResetPassword(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	token := fs.String("token", "", "reset token from the email")
	password := fs.String("password", "", "new password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("-token is required")
	}
	pw := *password
	if pw == "" {
		var err error
		pw, err = prompt("New password: ")
		if err != nil {
			return err
		}
	}

	if err := validate.Struct(validate.ResetForm{Token: *token, Password: pw}); err != nil {
		return err
	}
	if err := ctx.Auth.ResetPassword(ctx.Ctx, *token, pw); err != nil {
		return err
	}
	return writef(os.Stdout, "password reset\n")
}

func prompt(label string) (string, error) {
	if err := writef(os.Stderr, "%s", label); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUsage() error {
	names := make([]string, 0)
	cmds := commands()
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := writef(os.Stderr, "usage: uniapply <command> [flags]\n\ncommands:\n"); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	for _, name := range names {
		if err := writef(w, "  %s\t%s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
