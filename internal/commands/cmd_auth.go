package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type AuthCmd struct {
	flags *Flags

	timeout  time.Duration
	tokenTTL time.Duration
}

// NewAuthCmd creates the signin, signout and token commands.
func NewAuthCmd(flags *Flags) *AuthCmd {
	return &AuthCmd{flags: flags}
}

// Register adds the identity commands to the application.
func (cmd *AuthCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "signin",
			Usage:     "Sign in to sync progress with the remote API",
			UsageText: "cadence signin [--token <jwt>]",
			Description: `Signs in with a bearer token issued by the progress API. The token is read
from --token, CADENCE_TOKEN, a prompt or piped stdin, and is remembered
until 'cadence signout'.

Progress saved while signed out stays local and is not merged.`,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:        "timeout",
					Usage:       "give up waiting for a token after this long",
					Value:       2 * time.Minute,
					Destination: &cmd.timeout,
				},
			},
			Action: cmd.runSignIn,
		},
		&cli.Command{
			Name:   "signout",
			Usage:  "Forget the stored token and use local progress",
			Action: cmd.runSignOut,
		},
		&cli.Command{
			Name:        "token",
			Usage:       "Issue a bearer token for a user (server admin)",
			UsageText:   "cadence token <user-id> [--ttl 24h]",
			Description: "Signs a token with server.jwt_secret for use with 'cadence signin'.",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:        "ttl",
					Usage:       "token lifetime (0 for no expiry; defaults to server.token_ttl)",
					Value:       -1,
					Destination: &cmd.tokenTTL,
				},
			},
			Action: cmd.runToken,
		},
	)

	return app
}

func (cmd *AuthCmd) runSignIn(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Config.Remote.BaseURL == "" {
		return errors.New("remote.base_url is not configured")
	}

	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	src := identity.TokenSource(promptToken)
	if cmd.flags.Token != "" {
		src = identity.StaticToken(cmd.flags.Token)
	}

	id, err := a.SignIn(ctx, &identity.TokenAuthenticator{Source: src, Timeout: cmd.timeout})
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, id.UserID)
	return nil
}

func (cmd *AuthCmd) runSignOut(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}
	return a.SignOut(ctx)
}

func (cmd *AuthCmd) runToken(ctx context.Context, c *cli.Command) error {
	user, err := requireArg(c, "user-id")
	if err != nil {
		return err
	}

	cfg := cmd.flags.Config.Server
	if cfg.JWTSecret == "" {
		return errors.New("server.jwt_secret is not configured")
	}

	ttl := cmd.tokenTTL
	if ttl < 0 {
		ttl = cfg.TokenTTL
	}

	tok, err := server.IssueToken([]byte(cfg.JWTSecret), user, ttl)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.Root().Writer, tok)
	return nil
}

// promptToken asks for the token on a terminal or reads one line from stdin.
func promptToken(ctx context.Context) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	var tok string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Bearer token").
			Description("Paste the token issued by your progress API").
			EchoMode(huh.EchoModePassword).
			Value(&tok),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", identity.ErrCancelled
	}
	return tok, err
}
