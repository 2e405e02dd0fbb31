// Package handlers provides Telnet session handling and command processing.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
	"github.com/cory-johannsen/coinclash/internal/storage/postgres"
)

// PlayerStore defines the player persistence operations required by AuthHandler.
type PlayerStore interface {
	Register(ctx context.Context, handle, password string) (postgres.Player, error)
	Authenticate(ctx context.Context, handle, password string) (postgres.Player, error)
}

// Handle and password bounds enforced at registration.
const (
	MinHandleLength   = 3
	MaxHandleLength   = 32
	MinPasswordLength = 6
)

const welcomeBanner = telnet.Bold + telnet.BrightYellow + `
   ___      _        ___ _          _
  / __|___ (_)_ _   / __| |__ _ ___| |_
 | (__/ _ \| | ' \ | (__| / _` + "`" + ` (_-<| ' \
  \___\___/|_|_||_| \___|_\__,_/__/|_||_|` + telnet.Reset + `

  Flip, roll, and clash against everyone at the table.

  Type ` + telnet.Green + `login <handle> [password]` + telnet.Reset + ` to sit down.
  Type ` + telnet.Green + `register <handle> <password>` + telnet.Reset + ` to create a player.
  Type ` + telnet.Green + `quit` + telnet.Reset + ` to disconnect.`

// AuthHandler implements telnet.SessionHandler. It authenticates a connection
// and then hands it to the table.
type AuthHandler struct {
	players PlayerStore
	table   *Table
	logger  *zap.Logger
}

// NewAuthHandler creates an AuthHandler backed by the given player store.
//
// Precondition: players, table, and logger must be non-nil.
func NewAuthHandler(players PlayerStore, table *Table, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{players: players, table: table, logger: logger}
}

// HandleSession implements telnet.SessionHandler. It shows the welcome banner
// and processes authentication commands until the player logs in or quits.
//
// Postcondition: Returns nil on clean quit, or an error if the session ended abnormally.
func (h *AuthHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	addr := conn.RemoteAddr().String()

	if err := conn.WriteLines(strings.Split(welcomeBanner, "\n")); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "quit", "exit":
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			h.logger.Info("client quit",
				zap.String("remote_addr", addr),
				zap.Duration("session_duration", time.Since(start)),
			)
			return nil

		case "login":
			player, err := h.handleLogin(ctx, conn, args)
			if err != nil {
				return err
			}
			if player.ID == 0 {
				continue
			}
			h.logger.Info("player logged in",
				zap.String("remote_addr", addr),
				zap.String("handle", player.Handle),
				zap.Duration("login_time", time.Since(start)),
			)
			return h.table.Serve(ctx, conn, player.Handle)

		case "register":
			h.handleRegister(ctx, conn, args)

		case "help":
			h.showHelp(conn)

		default:
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", cmd))
		}
	}
}

// handleLogin authenticates a player, prompting for the password when it
// was not given inline.
//
// Postcondition: Returns (player, nil) on success, (postgres.Player{}, nil) if the
// error was shown to the user and the auth loop should continue, or
// (postgres.Player{}, error) when the connection failed.
func (h *AuthHandler) handleLogin(ctx context.Context, conn *telnet.Conn, args []string) (postgres.Player, error) {
	if len(args) < 1 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: login <handle> [password]"))
		return postgres.Player{}, nil
	}
	handle := args[0]
	var password string
	if len(args) > 1 {
		password = args[1]
	} else {
		if err := conn.WritePrompt("Password: "); err != nil {
			return postgres.Player{}, err
		}
		pw, err := conn.ReadPassword()
		if err != nil {
			return postgres.Player{}, fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimSpace(pw)
	}

	start := time.Now()
	player, err := h.players.Authenticate(ctx, handle, password)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrPlayerNotFound):
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Player not found. Use 'register' to create one."))
		case errors.Is(err, postgres.ErrInvalidCredentials):
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Invalid password."))
		default:
			h.logger.Error("authentication error", zap.Error(err), zap.Duration("elapsed", elapsed))
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
		}
		return postgres.Player{}, nil
	}

	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Welcome back, %s! [%s]", player.Handle, elapsed.Round(time.Millisecond)))
	return player, nil
}

func (h *AuthHandler) handleRegister(ctx context.Context, conn *telnet.Conn, args []string) {
	if len(args) < 2 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: register <handle> <password>"))
		return
	}
	handle, password := args[0], args[1]

	if n := utf8.RuneCountInString(handle); n < MinHandleLength || n > MaxHandleLength {
		_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Handle must be %d-%d characters.", MinHandleLength, MaxHandleLength))
		return
	}
	if len(password) < MinPasswordLength {
		_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Password must be at least %d characters.", MinPasswordLength))
		return
	}

	player, err := h.players.Register(ctx, handle, password)
	if err != nil {
		if errors.Is(err, postgres.ErrPlayerExists) {
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That handle is already taken."))
			return
		}
		h.logger.Error("registration error", zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
		return
	}

	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Player created: %s (#%d). You may now 'login'.", player.Handle, player.ID))
}

func (h *AuthHandler) showHelp(conn *telnet.Conn) {
	_ = conn.WriteLines([]string{
		telnet.Colorize(telnet.BrightWhite, "Available commands:"),
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "login <handle> [password]"), 30) + " Sit down at the table",
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "register <handle> <password>"), 30) + " Create a new player",
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "help"), 30) + " Show this help",
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "quit"), 30) + " Disconnect",
	})
}
