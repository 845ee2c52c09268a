package webclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrExhausted is wrapped into the final error once every attempt has failed.
var ErrExhausted = errors.New("webclient: retry attempts exhausted")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d", e.Status)
}

// Kind says whether a failed attempt may be repeated.
type Kind int

const (
	Retryable Kind = iota
	Terminal
)

func (k Kind) String() string {
	if k == Terminal {
		return "terminal"
	}
	return "retryable"
}

type terminalError struct{ err error }

func (e terminalError) Error() string { return e.err.Error() }
func (e terminalError) Unwrap() error { return e.err }

// MarkTerminal marks err so that no classifier will retry it.
func MarkTerminal(err error) error {
	if err == nil {
		return nil
	}
	return terminalError{err: err}
}

// IsTerminal reports whether err was marked with MarkTerminal.
func IsTerminal(err error) bool {
	var t terminalError
	return errors.As(err, &t)
}

// Classifier decides the Kind of a failed attempt.
type Classifier func(status int, err error) Kind

// ClassifyAll retries every failure that is not explicitly marked terminal.
func ClassifyAll(_ int, err error) Kind {
	if IsTerminal(err) {
		return Terminal
	}
	return Retryable
}

// ClassifyStatus retries transport failures, timeouts, throttling and 5xx.
// Any other non-2xx status is terminal.
func ClassifyStatus(status int, err error) Kind {
	if IsTerminal(err) {
		return Terminal
	}
	var se *StatusError
	if errors.As(err, &se) {
		status = se.Status
	}
	switch {
	case status == 0:
		return Retryable
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= 500:
		return Retryable
	case status >= 400:
		return Terminal
	}
	return Retryable
}

// ClassifierByName maps the configured policy name to a Classifier. Names
// are case-insensitive; anything other than "classified" retries every failure.
func ClassifierByName(name string) Classifier {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "classified", "status":
		return ClassifyStatus
	default:
		return ClassifyAll
	}
}

// RetryState is the per-invocation view handed to OnRetry.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	LastErr     error
	Delay       time.Duration
}

// Policy bounds a retried operation.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Classify  Classifier
	OnRetry   func(RetryState)
	Sleep     func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy waits 1s, 2s between three attempts and retries every
// failure alike. A 4xx that will never succeed still costs all attempts;
// ClassifyStatus avoids that when configured.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Second, Classify: ClassifyAll}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Classify == nil {
		p.Classify = ClassifyAll
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Backoff returns the wait after the given 0-based attempt: BaseDelay * 2^attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

type observerKey struct{}

// WithObserver attaches a request-scoped retry observer to ctx. DoWithRetry
// calls it alongside Policy.OnRetry.
func WithObserver(ctx context.Context, fn func(RetryState)) context.Context {
	return context.WithValue(ctx, observerKey{}, fn)
}

func observerFrom(ctx context.Context) func(RetryState) {
	fn, _ := ctx.Value(observerKey{}).(func(RetryState))
	return fn
}

type AttemptFunc func() (status int, body []byte, err error)

// DoWithRetry runs fn until it returns a 2xx status with no error, a terminal
// failure occurs, or the policy's attempts run out.
func DoWithRetry(ctx context.Context, policy Policy, fn AttemptFunc) (int, []byte, error) {
	p := policy.normalized()
	observe := observerFrom(ctx)
	var (
		status int
		body   []byte
		err    error
	)
	for i := 0; i < p.Attempts; i++ {
		status, body, err = fn()
		if err == nil && status >= 200 && status < 300 {
			return status, body, nil
		}
		if err == nil {
			err = &StatusError{Status: status, Body: body}
		}
		if p.Classify(status, err) == Terminal {
			return status, body, err
		}
		if i == p.Attempts-1 {
			break
		}
		delay := p.Backoff(i)
		state := RetryState{Attempt: i, MaxAttempts: p.Attempts, LastErr: err, Delay: delay}
		if p.OnRetry != nil {
			p.OnRetry(state)
		}
		if observe != nil {
			observe(state)
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return status, body, serr
		}
	}
	return status, body, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.Attempts, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
