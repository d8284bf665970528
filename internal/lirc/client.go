package lirc

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/config"
	"github.com/nadzzz/lircbridge/internal/macro"
)

// Client is a Driver backed by a lircd socket. Each command uses its own
// connection, the same way irsend does.
type Client struct {
	network     string
	address     string
	dialTimeout time.Duration
	retry       RetryConfig

	queue   *queue
	remotes atomic.Pointer[catalog.Catalog]
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient creates a client for the lircd socket in cfg and starts its
// send worker. The catalog is empty until Reload succeeds.
func NewClient(cfg config.LIRCConfig) *Client {
	network, address := splitSocket(cfg.Socket)

	retry := DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialDelay > 0 {
		retry.InitialDelay = cfg.Retry.InitialDelay
	}
	if cfg.Retry.MaxDelay > 0 {
		retry.MaxDelay = cfg.Retry.MaxDelay
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		network:     network,
		address:     address,
		dialTimeout: timeout,
		retry:       retry,
		queue:       newQueue(cfg.QueueSize),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	empty := catalog.Catalog{}
	c.remotes.Store(&empty)

	go func() {
		defer close(c.done)
		c.queue.run(ctx)
	}()
	return c
}

// splitSocket treats anything with a slash as a unix socket path and
// everything else as a TCP host:port.
func splitSocket(socket string) (network, address string) {
	if strings.Contains(socket, "/") {
		return "unix", socket
	}
	return "tcp", socket
}

// SendOnce queues a single transmission of command on remote.
func (c *Client) SendOnce(remote, command string) error {
	return c.enqueue(macro.ModeOnce, remote, command)
}

// SendStart queues the start of a repeated transmission.
func (c *Client) SendStart(remote, command string) error {
	return c.enqueue(macro.ModeStart, remote, command)
}

// SendStop queues the end of a repeated transmission.
func (c *Client) SendStop(remote, command string) error {
	return c.enqueue(macro.ModeStop, remote, command)
}

func (c *Client) enqueue(mode macro.Mode, remote, command string) error {
	if !validName(remote) || !validName(command) {
		return fmt.Errorf("lirc: invalid remote/command %q/%q", remote, command)
	}
	line := Directive(mode) + " " + remote + " " + command
	return c.queue.enqueue(func(ctx context.Context) error {
		if _, err := c.Command(ctx, line); err != nil {
			slog.Error("lirc send failed", "command", line, "error", err)
			return err
		}
		slog.Debug("lirc send complete", "command", line)
		return nil
	})
}

func validName(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}

// Command sends one raw lircd command and returns the reply data lines.
// Only the dial is retried. Once the line has been written it is never sent
// again, whatever happens to the reply.
func (c *Client) Command(ctx context.Context, line string) ([]string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("lircd %s: %w", line, err)
	}
	defer conn.Close()

	rep, err := c.exchange(ctx, conn, line)
	if err != nil {
		return nil, fmt.Errorf("lircd %s: %w", line, err)
	}
	if !rep.success {
		return nil, fmt.Errorf("lircd %s: %s", line, strings.Join(rep.data, "; "))
	}
	return rep.data, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.dialTimeout}
	var conn net.Conn
	err := withRetry(ctx, c.retry, func() error {
		var err error
		conn, err = d.DialContext(ctx, c.network, c.address)
		return err
	})
	return conn, err
}

func (c *Client) exchange(ctx context.Context, conn net.Conn, line string) (*reply, error) {
	deadline := time.Now().Add(c.dialTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return nil, err
	}
	return readReply(bufio.NewReader(conn), line)
}

// Remotes returns the last discovered catalog.
func (c *Client) Remotes() catalog.Catalog {
	return *c.remotes.Load()
}

// Reload lists every remote and its codes, then swaps the new catalog in.
// The previous catalog stays in place if any step fails.
func (c *Client) Reload(ctx context.Context) error {
	names, err := c.Command(ctx, "LIST")
	if err != nil {
		return fmt.Errorf("listing remotes: %w", err)
	}

	next := make(catalog.Catalog, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		lines, err := c.Command(ctx, "LIST "+name)
		if err != nil {
			return fmt.Errorf("listing codes for %s: %w", name, err)
		}
		commands := make([]string, 0, len(lines))
		for _, l := range lines {
			if code := codeName(l); code != "" {
				commands = append(commands, code)
			}
		}
		next[name] = commands
	}

	c.remotes.Store(&next)
	slog.Info("lirc catalog loaded", "remotes", len(next), "socket", c.address)
	return nil
}

// Close stops accepting sends and waits for queued ones to be written.
func (c *Client) Close() error {
	c.queue.close()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		slog.Warn("lirc queue did not drain, dropping pending sends")
		c.cancel()
		<-c.done
	}
	c.cancel()
	return nil
}
