package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultQueueSize = 100
	flushTimeout     = 5 * time.Second
)

type logClient interface {
	Authenticate(ctx context.Context, creds Credentials) (*Token, error)
	SendLog(ctx context.Context, accessToken string, e Entry) (string, error)
}

type tokenStore interface {
	Token(ctx context.Context) (*Token, error)
	Save(ctx context.Context, t *Token) error
	Clear(ctx context.Context) error
}

type dropCounter interface {
	RemoteLogDropped()
}

type nopCounter struct{}

func (nopCounter) RemoteLogDropped() {}

// NopSink discards every entry. It is used when the collector is disabled.
type NopSink struct{}

func (NopSink) Log(string, string, string) {}

type SinkOption func(*Sink)

func WithQueueSize(n int) SinkOption {
	return func(s *Sink) {
		if n > 0 {
			s.queue = make(chan Entry, n)
		}
	}
}

func WithStack(stack string) SinkOption {
	return func(s *Sink) {
		if stack != "" {
			s.stack = stack
		}
	}
}

func WithDropCounter(c dropCounter) SinkOption {
	return func(s *Sink) {
		s.dropped = c
	}
}

func WithLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) SinkOption {
	return func(s *Sink) {
		s.now = now
	}
}

// Sink forwards log entries to the collector from a background worker. Log
// never blocks and never fails; entries are dropped when the queue is full.
type Sink struct {
	client  logClient
	tokens  tokenStore
	creds   Credentials
	stack   string
	queue   chan Entry
	dropped dropCounter
	logger  *slog.Logger
	now     func() time.Time
}

func NewSink(client logClient, tokens tokenStore, creds Credentials, opts ...SinkOption) *Sink {
	s := &Sink{
		client:  client,
		tokens:  tokens,
		creds:   creds,
		stack:   DefaultStack,
		queue:   make(chan Entry, defaultQueueSize),
		dropped: nopCounter{},
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Log mirrors the entry to the local logger and enqueues it for delivery.
func (s *Sink) Log(level, pkg, message string) {
	s.logger.Log(context.Background(), slogLevel(level), message,
		slog.String("stack", s.stack), slog.String("package", pkg))

	e := Entry{Stack: s.stack, Level: level, Package: pkg, Message: message}

	select {
	case s.queue <- e:
	default:
		s.dropped.RemoteLogDropped()
		s.logger.Debug("remote log queue is full, entry dropped", slog.String("package", pkg))
	}
}

// Run delivers queued entries until ctx is done, then flushes what is left
// with a short grace period. It always returns nil.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush(ctx)
			return nil
		case e := <-s.queue:
			s.deliver(ctx, e)
		}
	}
}

func (s *Sink) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	for {
		select {
		case e := <-s.queue:
			s.deliver(ctx, e)
		default:
			return
		}
	}
}

func (s *Sink) deliver(ctx context.Context, e Entry) {
	const op = "adapter.evaluation.Sink.deliver"

	token, err := s.token(ctx)
	if err != nil {
		s.logger.Warn("failed to obtain access token, entry dropped", slog.Group(op, slog.Any("err", err)))
		return
	}

	_, err = s.client.SendLog(ctx, token.AccessToken, e)
	if errors.Is(err, ErrUnauthorized) {
		if err := s.tokens.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear rejected token", slog.Group(op, slog.Any("err", err)))
		}

		token, err = s.token(ctx)
		if err != nil {
			s.logger.Warn("failed to refresh access token, entry dropped", slog.Group(op, slog.Any("err", err)))
			return
		}

		_, err = s.client.SendLog(ctx, token.AccessToken, e)
	}
	if err != nil {
		s.logger.Warn("failed to send log", slog.Group(op, slog.Any("err", err)))
	}
}

// token returns the stored token, authenticating when it is missing or expired.
func (s *Sink) token(ctx context.Context) (*Token, error) {
	token, err := s.tokens.Token(ctx)
	if err == nil && !token.Expired(s.now()) {
		return token, nil
	}
	if err != nil && !errors.Is(err, ErrNoToken) {
		s.logger.Debug("stored token is unreadable, authenticating", slog.Any("err", err))
	}

	token, err = s.client.Authenticate(ctx, s.creds)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Save(ctx, token); err != nil {
		s.logger.Warn("failed to save access token", slog.Any("err", err))
	}

	return token, nil
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
