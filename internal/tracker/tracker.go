// Package tracker implements the client side of the MogileFS tracker
// text protocol: one url-encoded request line per command, one OK or ERR
// response line back.
package tracker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds each tracker dial and round trip.
const DefaultTimeout = 10 * time.Second

// Error is a protocol-level failure reported by the tracker itself,
// e.g. unknown_key or domain_not_found.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tracker: %s", e.Code)
	}
	return fmt.Sprintf("tracker: %s (%s)", e.Message, e.Code)
}

// Client talks to one or more trackers. Hosts are tried in order until
// one produces a protocol-level response; dial and I/O errors fall
// through to the next host.
type Client struct {
	hosts   []string
	timeout time.Duration
}

// New returns a Client for the given host:port endpoints. A zero timeout
// falls back to DefaultTimeout.
func New(hosts []string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{hosts: hosts, timeout: timeout}
}

// Do sends cmd with args to the first reachable tracker and returns the
// decoded OK payload. A tracker ERR response is returned as *Error and
// stops the host iteration: the tracker answered, it just said no.
func (c *Client) Do(ctx context.Context, cmd string, args url.Values) (url.Values, error) {
	if len(c.hosts) == 0 {
		return nil, errors.New("no trackers configured")
	}

	var errs []error
	for _, host := range c.hosts {
		vals, err := c.roundTrip(ctx, host, cmd, args)
		if err == nil {
			return vals, nil
		}
		var terr *Error
		if errors.As(err, &terr) {
			return nil, terr
		}
		errs = append(errs, fmt.Errorf("%s: %w", host, err))
	}
	return nil, fmt.Errorf("all trackers failed: %w", errors.Join(errs...))
}

func (c *Client) roundTrip(
	ctx context.Context, host, cmd string, args url.Values,
) (url.Values, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s %s\r\n", cmd, args.Encode()); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(strings.TrimRight(line, "\r\n"))
}

func parseResponse(line string) (url.Values, error) {
	switch {
	case strings.HasPrefix(line, "OK"):
		payload := strings.TrimPrefix(line, "OK")
		payload = strings.TrimPrefix(payload, " ")
		vals, err := url.ParseQuery(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed OK payload: %w", err)
		}
		return vals, nil
	case strings.HasPrefix(line, "ERR"):
		rest := strings.TrimPrefix(line, "ERR")
		rest = strings.TrimPrefix(rest, " ")
		code, msg, _ := strings.Cut(rest, " ")
		// Messages come back url-escaped ("+" for spaces).
		if unescaped, err := url.QueryUnescape(msg); err == nil {
			msg = unescaped
		}
		return nil, &Error{Code: code, Message: msg}
	default:
		return nil, fmt.Errorf("malformed tracker response %q", line)
	}
}
