// Package remote runs log searches on the log server over SSH.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/retry"
)

// Session runs shell commands on the log server.
type Session interface {
	// Run executes command and returns its standard output.
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Dialer opens sessions to the log server.
type Dialer interface {
	Dial(ctx context.Context, cfg config.LogServerConfig) (Session, error)
}

// SSHDialer opens password-authenticated SSH sessions.
type SSHDialer struct {
	logger *zap.Logger
	retry  *retry.Config
}

var _ Dialer = (*SSHDialer)(nil)

// NewSSHDialer creates a dialer. A nil retryCfg uses retry.DefaultConfig.
func NewSSHDialer(logger *zap.Logger, retryCfg *retry.Config) *SSHDialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &SSHDialer{logger: logger.Named("ssh"), retry: retryCfg}
}

// Dial connects and authenticates, retrying transient network failures.
// Authentication failures are returned immediately.
func (d *SSHDialer) Dial(ctx context.Context, cfg config.LogServerConfig) (Session, error) {
	clientCfg, err := d.clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	addr := cfg.Address()
	retryCfg := *d.retry
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		d.logger.Warn("SSH dial failed, retrying",
			zap.String("addr", addr),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("error", logging.SanitizeError(err)))
	}

	client, err := retry.DoWithResult(ctx, &retryCfg, func() (*ssh.Client, error) {
		return dialContext(ctx, addr, clientCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to log server %s: %w", addr, err)
	}

	d.logger.Debug("Connected to log server",
		zap.String("addr", addr),
		zap.String("user", cfg.Username))
	return &sshSession{client: client, logger: d.logger}, nil
}

func (d *SSHDialer) clientConfig(cfg config.LogServerConfig) (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		d.logger.Debug("Host key verification disabled; set logServer.knownHostsFile to enable it")
	}

	password := cfg.Password
	return &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// Some servers only offer keyboard-interactive for password logins.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.TimeoutDuration(),
	}, nil
}

func dialContext(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

type sshSession struct {
	client *ssh.Client
	logger *zap.Logger
}

func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = sess.Close()
		<-done
		return "", ctx.Err()
	}

	if err == nil && stderr.Len() > 0 {
		// grep reports unreadable files on stderr but the pipeline still succeeds.
		s.logger.Warn("Remote command wrote to stderr",
			zap.String("stderr", logging.TruncateString(strings.TrimSpace(stderr.String()), 500)))
	}
	return commandOutput(err, stdout.String(), stderr.String())
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

// exitStatuser is implemented by *ssh.ExitError.
type exitStatuser interface {
	ExitStatus() int
}

// commandOutput interprets the result of a remote command. grep exits with
// status 1 when nothing matched, which is an empty result rather than a failure.
func commandOutput(runErr error, stdout, stderr string) (string, error) {
	if runErr == nil {
		return stdout, nil
	}

	var exit exitStatuser
	if errors.As(runErr, &exit) && exit.ExitStatus() == 1 && strings.TrimSpace(stderr) == "" {
		return stdout, nil
	}

	if msg := strings.TrimSpace(stderr); msg != "" {
		return stdout, fmt.Errorf("remote command failed: %s: %w", msg, runErr)
	}
	return stdout, fmt.Errorf("remote command failed: %w", runErr)
}

// WithSession dials the log server, runs fn, and closes the session however
// fn returns, including by panic. A close error is reported only when fn succeeded.
func WithSession(ctx context.Context, dialer Dialer, cfg config.LogServerConfig, fn func(Session) error) (err error) {
	session, err := dialer.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close session: %w", cerr)
		}
	}()

	return fn(session)
}
