// Package client is the interactive terminal client: a dumb pass-through
// that ships each stdin line to the server as one write and prints each
// reply from one fixed-size read.
package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/fatih/color"
)

const disconnectReply = "Disconnected from server."

// Client drives one interactive session.
type Client struct {
	conn       net.Conn
	in         io.Reader
	out        io.Writer
	bufferSize int

	prompt   *color.Color
	errStyle *color.Color
}

// New creates a client over an open connection.
func New(conn net.Conn, in io.Reader, out io.Writer, bufferSize int) *Client {
	return &Client{
		conn:       conn,
		in:         in,
		out:        out,
		bufferSize: bufferSize,
		prompt:     color.New(color.FgCyan),
		errStyle:   color.New(color.FgRed),
	}
}

// Run reads commands until stdin closes, the server drops the connection, or
// the server acknowledges a disconnect.
func (c *Client) Run() error {
	scanner := bufio.NewScanner(c.in)
	buf := make([]byte, c.bufferSize)

	for {
		c.prompt.Fprint(c.out, "<< ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if _, err := c.conn.Write([]byte(line)); err != nil {
			c.errStyle.Fprintf(c.out, "connection lost: %v\n", err)
			return err
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			c.errStyle.Fprintf(c.out, "connection lost: %v\n", err)
			return err
		}

		reply := string(buf[:n])
		fmt.Fprintln(c.out, reply)

		if strings.TrimSpace(reply) == disconnectReply {
			return nil
		}
	}
}
