package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"leasemeter/internal/config"
	"leasemeter/internal/types"
	"leasemeter/internal/version"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConnector opens SSH sessions to RouterOS devices
type SSHConnector struct {
	config       *config.SSHConfig
	clientConfig *ssh.ClientConfig
	dialer       *net.Dialer
	logger       *zap.Logger
}

// NewSSHConnector creates new SSH connector
func NewSSHConnector(cfg *config.SSHConfig, logger *zap.Logger) (*SSHConnector, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts file: %w", err)
		}
		hostKeyCallback = cb
	} else {
		logger.Warn("Host key verification disabled, set ssh.known_hosts_file to enable it")
	}

	user := cfg.Username
	if cfg.LoginOptions != "" {
		user += "+" + cfg.LoginOptions
	}

	password := cfg.Password
	clientConfig := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		ClientVersion:   version.SSHClientVersion(),
		Timeout:         cfg.Timeout,
	}

	return &SSHConnector{
		config:       cfg,
		clientConfig: clientConfig,
		dialer:       &net.Dialer{Timeout: cfg.Timeout},
		logger:       logger,
	}, nil
}

// Connect dials address and completes the SSH handshake
func (c *SSHConnector) Connect(ctx context.Context, address string) (Session, error) {
	addr := hostPort(address, c.config.Port)

	dialCtx := ctx
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, &types.ConnectionError{Address: addr, Err: err}
	}

	// Bound the handshake as well as the dial
	if c.config.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.config.Timeout))
	}
	sc, chans, reqs, err := ssh.NewClientConn(conn, addr, c.clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, &types.ConnectionError{Address: addr, Err: err}
	}
	_ = conn.SetDeadline(time.Time{})

	c.logger.Debug("SSH session established", zap.String("address", addr))

	return &sshSession{
		client:         ssh.NewClient(sc, chans, reqs),
		address:        addr,
		commandTimeout: c.config.CommandTimeout,
	}, nil
}

// sshSession runs each command on its own SSH channel
type sshSession struct {
	client         *ssh.Client
	address        string
	commandTimeout time.Duration
}

// Run implements Session
func (s *sshSession) Run(ctx context.Context, command string) ([]string, error) {
	if s.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return nil, &types.ConnectionError{Address: s.address, Err: fmt.Errorf("failed to open channel: %w", err)}
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		return nil, &types.ConnectionError{Address: s.address, Err: fmt.Errorf("command %q: %w", command, ctx.Err())}
	case err := <-done:
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				return nil, &types.MalformedResponseError{
					Command: command,
					Output:  strings.TrimSpace(stdout.String() + stderr.String()),
					Reason:  fmt.Sprintf("exit status %d", exitErr.ExitStatus()),
				}
			}
			return nil, &types.ConnectionError{Address: s.address, Err: fmt.Errorf("command %q: %w", command, err)}
		}
	}

	return SplitLines(stdout.String()), nil
}

// Close implements Session
func (s *sshSession) Close() error {
	return s.client.Close()
}

// hostPort appends the default port unless address already carries one
func hostPort(address string, port int) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	address = strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
	return net.JoinHostPort(address, strconv.Itoa(port))
}
