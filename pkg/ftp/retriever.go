package ftp

import (
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	goftp "github.com/jlaffaye/ftp"
	"golang.org/x/xerrors"

	"github.com/winefeed/catalog-sync/pkg/types"
)

const (
	defaultPort    = "21"
	defaultTimeout = 5 * time.Second
)

// Conn is the subset of an FTP control connection used to fetch one file.
type Conn interface {
	Login(user, password string) error
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

// DialFunc opens a control connection to addr (host:port).
type DialFunc func(ctx context.Context, addr string, timeout time.Duration) (Conn, error)

type Option struct {
	Host     string
	Username string
	Password string
	Filename string
	Timeout  time.Duration
	Dial     DialFunc
}

// Retriever downloads the feed file from an FTP server.
type Retriever struct {
	addr     string
	username string
	password string
	filename string
	timeout  time.Duration
	dial     DialFunc
	logger   *slog.Logger
}

func NewRetriever(opt Option) *Retriever {
	if opt.Timeout == 0 {
		opt.Timeout = defaultTimeout
	}
	if opt.Dial == nil {
		opt.Dial = dial
	}
	return &Retriever{
		addr:     address(opt.Host),
		username: opt.Username,
		password: opt.Password,
		filename: opt.Filename,
		timeout:  opt.Timeout,
		dial:     opt.Dial,
		logger:   slog.Default().With(slog.String("component", "ftp")),
	}
}

// Retrieve returns the full content of the configured file.
// Every failure is reported as *types.RetrievalError.
func (r *Retriever) Retrieve(ctx context.Context) ([]byte, error) {
	data, err := r.retrieve(ctx)
	if err != nil {
		return nil, &types.RetrievalError{Err: err}
	}
	return data, nil
}

func (r *Retriever) retrieve(ctx context.Context) ([]byte, error) {
	r.logger.Debug("Connecting", slog.String("addr", r.addr))
	conn, err := r.dial(ctx, r.addr, r.timeout)
	if err != nil {
		return nil, xerrors.Errorf("dial error: %w", err)
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			r.logger.Debug("Quit failed", slog.String("error", err.Error()))
		}
	}()

	if err = conn.Login(r.username, r.password); err != nil {
		return nil, xerrors.Errorf("login error: %w", err)
	}

	resp, err := conn.Retr(r.filename)
	if err != nil {
		return nil, xerrors.Errorf("unable to retrieve %s: %w", r.filename, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, xerrors.Errorf("unable to read %s: %w", r.filename, err)
	}
	r.logger.Debug("Downloaded file", slog.String("file", r.filename), slog.Int("bytes", len(data)))
	return data, nil
}

// address appends the default FTP port when host has none.
func address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultPort)
}

type serverConn struct {
	*goftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

func dial(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
	c, err := goftp.Dial(addr, goftp.DialWithContext(ctx), goftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return serverConn{ServerConn: c}, nil
}
