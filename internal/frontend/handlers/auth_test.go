package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
)

func TestWelcomeBannerContainsKeyElements(t *testing.T) {
	stripped := telnet.StripANSI(welcomeBanner)
	assert.Contains(t, stripped, "Flip, roll, and clash")
	assert.Contains(t, stripped, "login")
	assert.Contains(t, stripped, "register")
	assert.Contains(t, stripped, "quit")
}

func TestHandleSession_Quit(t *testing.T) {
	f := newTableFixture(t, time.Second)
	c := f.connect(t)
	c.Send("quit")
	c.ReadUntil("Goodbye!", 2*time.Second)
}

func TestHandleSession_Help(t *testing.T) {
	f := newTableFixture(t, time.Second)
	c := f.connect(t)
	c.Send("help")
	out := c.ReadUntil("Disconnect", 2*time.Second)
	assert.Contains(t, out, "login <handle> [password]")
	assert.Contains(t, out, "register <handle> <password>")
}

func TestHandleSession_UnknownCommand(t *testing.T) {
	f := newTableFixture(t, time.Second)
	c := f.connect(t)
	c.Send("foobar")
	out := c.ReadUntil("available commands", 2*time.Second)
	assert.Contains(t, out, "foobar")
}

func TestHandleSession_Register(t *testing.T) {
	f := newTableFixture(t, time.Second)
	c := f.connect(t)
	c.Send("register newbie password123")
	out := c.ReadUntil("You may now", 2*time.Second)
	assert.Contains(t, out, "newbie")

	c.Send("login newbie password123")
	c.Expect(2*time.Second, "Welcome back, newbie", "Welcome to the table, newbie")
}

func TestHandleSession_RegisterRejections(t *testing.T) {
	f := newTableFixture(t, time.Second)
	f.players.add("taken", "password123")
	c := f.connect(t)

	c.Send("register")
	c.ReadUntil("Usage: register", 2*time.Second)
	c.Send("register ab password123")
	c.ReadUntil("3-32 characters", 2*time.Second)
	c.Send("register someone abc")
	c.ReadUntil("at least 6", 2*time.Second)
	c.Send("register taken password123")
	c.ReadUntil("already taken", 2*time.Second)
}

func TestHandleSession_LoginFailures(t *testing.T) {
	f := newTableFixture(t, time.Second)
	f.players.add("hero", "correctpass")
	c := f.connect(t)

	c.Send("login")
	c.ReadUntil("Usage: login", 2*time.Second)
	c.Send("login nobody secret123")
	c.ReadUntil("Player not found", 2*time.Second)
	c.Send("login hero wrongpass")
	c.ReadUntil("Invalid password", 2*time.Second)
}

func TestHandleSession_LoginPromptsForPassword(t *testing.T) {
	f := newTableFixture(t, time.Second)
	f.players.add("hero", "secret123")
	c := f.connect(t)

	c.Send("login hero")
	c.ReadUntil("Password: ", 2*time.Second)
	c.Send("secret123")
	c.Expect(2*time.Second, "Welcome back, hero", "[hero]> ")
}

func TestHandleSession_DuplicateSeatRejected(t *testing.T) {
	f := newTableFixture(t, time.Second)
	f.seat(t, "hero")

	c := f.connect(t)
	c.Send("login hero secret123")
	c.ReadUntil("already seated", 2*time.Second)
}
