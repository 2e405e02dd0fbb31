package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
)

// TelnetClient is a line-oriented test client for the table's Telnet front door.
// Output is kept in a persistent buffer with IAC sequences and ANSI styling
// removed, so expectations match the text a player would read.
type TelnetClient struct {
	conn   net.Conn
	t      *testing.T
	buffer string
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until substr appears in the plain-text output or timeout elapses.
// It consumes and returns the output up to and including the match; anything
// after the match stays buffered for the next call.
//
// Precondition: substr must be non-empty.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	if out, ok := c.take(substr); ok {
		return out
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 4096)
	var raw []byte
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			raw = append(raw, tmp[:n]...)
			// An escape sequence may straddle reads; only decode up to the last ESC.
			cut := len(raw)
			if i := strings.LastIndexByte(string(raw), '\033'); i >= 0 && !strings.Contains(string(raw[i:]), "m") {
				cut = i
			}
			if i := strings.LastIndexByte(string(raw), telnet.IAC); i >= 0 && i > len(raw)-3 {
				cut = min(cut, i)
			}
			c.buffer += telnet.StripANSI(stripIAC(raw[:cut]))
			raw = raw[cut:]
			if out, ok := c.take(substr); ok {
				return out
			}
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.buffer, err)
		}
	}
}

// Expect reads until every substring has appeared, in order.
func (c *TelnetClient) Expect(timeout time.Duration, substrs ...string) string {
	c.t.Helper()
	var out strings.Builder
	for _, s := range substrs {
		out.WriteString(c.ReadUntil(s, timeout))
	}
	return out.String()
}

func (c *TelnetClient) take(substr string) (string, bool) {
	idx := strings.Index(c.buffer, substr)
	if idx < 0 {
		return "", false
	}
	end := idx + len(substr)
	out := c.buffer[:end]
	c.buffer = c.buffer[end:]
	return out, true
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}

// stripIAC drops three-byte Telnet option negotiations.
func stripIAC(b []byte) string {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == telnet.IAC && i+2 < len(b) {
			i += 2
			continue
		}
		out = append(out, b[i])
	}
	return string(out)
}
