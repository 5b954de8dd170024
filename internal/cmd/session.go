package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/config"
	"github.com/you/taskconsole/internal/guard"
	"github.com/you/taskconsole/internal/infrastructure/backend"
	"github.com/you/taskconsole/internal/infrastructure/repositories"
	"github.com/you/taskconsole/internal/services"
)

// terminal is what the session commands run against
type terminal struct {
	flow  domain.AuthFlowService
	store domain.SessionStore
	out   io.Writer
}

func newTerminal(cfg *config.Config, out io.Writer) (*terminal, error) {
	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	flow := services.NewAuthFlowService(client, repositories.NewMemoryFlowRepository(cfg.FlowTTL),
		services.NewSlogAuditLogger(logger), services.FlowConfig{
			OTPLength:      cfg.OTPLength,
			ResendCooldown: cfg.OTPResendCooldown,
		})
	return &terminal{
		flow:  flow,
		store: repositories.NewFileSessionRepository(cfg.SessionFile),
		out:   out,
	}, nil
}

func terminalFor(cmd *cobra.Command) (*terminal, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newTerminal(cfg, cmd.OutOrStdout())
}

func (t *terminal) login(ctx context.Context, email, password string) error {
	s, err := t.flow.Login(ctx, t.store, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", domain.UserMessage(err))
	}
	fmt.Fprintf(t.out, "Logged in as %s (%s)\n", s.DisplayName, s.Role)
	fmt.Fprintf(t.out, "Home: %s\n", guard.HomeFor(s.Role))
	return nil
}

func (t *terminal) logout(ctx context.Context) error {
	if err := t.flow.Logout(ctx, t.store); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Fprintln(t.out, "Logged out")
	return nil
}

func (t *terminal) whoami(ctx context.Context) error {
	s, err := t.store.Load(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		fmt.Fprintln(t.out, "not logged in")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	fmt.Fprintf(t.out, "User: %s\n", s.DisplayName)
	fmt.Fprintf(t.out, "ID: %s\n", s.UserID)
	fmt.Fprintf(t.out, "Role: %s\n", s.Role)
	fmt.Fprintf(t.out, "Home: %s\n", guard.HomeFor(s.Role))
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long: `Sign in to the backend and keep the session in cli.session_file.

Examples:
  taskconsole login --email admin@example.com --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}
		t, err := terminalFor(cmd)
		if err != nil {
			return err
		}
		return t.login(cmd.Context(), email, password)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := terminalFor(cmd)
		if err != nil {
			return err
		}
		return t.logout(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := terminalFor(cmd)
		if err != nil {
			return err
		}
		return t.whoami(cmd.Context())
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
