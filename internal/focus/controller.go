package focus

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	shellerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/wm"
)

// Outcome is how a focus request ended
type Outcome string

const (
	OutcomeFocused       Outcome = "focused"
	OutcomeNoMatch       Outcome = "no_match"
	OutcomeParseMismatch Outcome = "parse_mismatch"
	OutcomeListFailed    Outcome = "list_failed"
	OutcomeFocusFailed   Outcome = "focus_failed"
)

// Window is the host window whose title doubles as the correlation channel
type Window interface {
	Title() string
	SetTitle(title string)
}

// Bridge is the compositor surface the controller needs
type Bridge interface {
	ListWindows(ctx context.Context) ([]string, error)
	FocusWindow(ctx context.Context, id int) error
}

// Recorder receives every finished request
type Recorder interface {
	RecordFocus(ctx context.Context, result Result) error
}

// Result describes one focus request. Err is informational only; a request
// never fails from the caller's point of view.
type Result struct {
	RequestID string        `yaml:"request_id"`
	Token     string        `yaml:"token"`
	Outcome   Outcome       `yaml:"outcome"`
	WindowID  int           `yaml:"window_id,omitempty"`
	Error     string        `yaml:"error,omitempty"`
	StartedAt time.Time     `yaml:"started_at"`
	Duration  time.Duration `yaml:"duration"`
	Err       error         `yaml:"-"`
}

// Controller brings the host window to the foreground by temporarily
// renaming it, looking the name up in the compositor's window listing and
// focusing the matching id. Requests are serialized.
type Controller struct {
	bridge   Bridge
	window   Window
	log      logging.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string

	mu        sync.Mutex
	lastToken string
}

// Option configures a Controller
type Option func(*Controller)

// WithRecorder stores every result through r
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithClock replaces the token clock
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator replaces the request ID source
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		c.newID = newID
	}
}

// NewController creates a Controller
func NewController(bridge Bridge, window Window, log logging.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logging.NewDefaultLogger()
	}
	c := &Controller{
		bridge: bridge,
		window: window,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestFocus runs one focus request to completion. The window title is
// restored on every path before RequestFocus returns.
func (c *Controller) RequestFocus(ctx context.Context) Result {
	result := func() Result {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.correlate(ctx)
	}()

	if c.recorder != nil {
		if err := c.recorder.RecordFocus(ctx, result); err != nil {
			c.log.Warn("Failed to record focus request", "request_id", result.RequestID, "error", err)
		}
	}
	return result
}

// correlate must be called with mu held
func (c *Controller) correlate(ctx context.Context) (result Result) {
	const op = "focus.RequestFocus"

	original := c.window.Title()
	result = Result{
		RequestID: c.newID(),
		Token:     c.token(original),
		StartedAt: c.now(),
	}
	logCtx := map[string]interface{}{"request_id": result.RequestID, "token": result.Token}

	c.window.SetTitle(result.Token)
	defer func() {
		c.window.SetTitle(original)
		result.Duration = c.now().Sub(result.StartedAt)
		if result.Err != nil {
			result.Error = result.Err.Error()
		}
		logging.LogOperation(c.log, "focus_request", result.Duration, map[string]interface{}{
			"request_id": result.RequestID,
			"outcome":    string(result.Outcome),
		})
	}()

	blocks, err := c.bridge.ListWindows(ctx)
	if err != nil {
		result.Outcome, result.Err = OutcomeListFailed, err
		logging.LogShellError(c.log, err, "list_windows", logCtx)
		return result
	}

	block, found := findBlock(blocks, result.Token)
	if !found {
		result.Outcome = OutcomeNoMatch
		c.log.Info("Window not found in listing", "request_id", result.RequestID, "token", result.Token, "windows", len(blocks))
		return result
	}

	id, ok := wm.ParseID(block)
	if !ok {
		result.Outcome = OutcomeParseMismatch
		result.Err = shellerrors.NewWithContext(op,
			fmt.Errorf("window block matched title but has no id line"),
			shellerrors.ErrCodeParseMismatch,
			map[string]string{"token": result.Token, "block": block})
		c.log.Warn("Listing format not recognised", "request_id", result.RequestID, "token", result.Token, "block", block)
		return result
	}
	result.WindowID = id

	if err := c.bridge.FocusWindow(ctx, id); err != nil {
		result.Outcome, result.Err = OutcomeFocusFailed, err
		logCtx["window_id"] = id
		logging.LogShellError(c.log, err, "focus_window", logCtx)
		return result
	}

	result.Outcome = OutcomeFocused
	c.log.Info("Window focused", "request_id", result.RequestID, "window_id", id)
	return result
}

// token returns the current Unix milliseconds as text, bumped until it
// differs from the original title and from the previous token.
func (c *Controller) token(original string) string {
	ms := c.now().UnixMilli()
	for {
		t := strconv.FormatInt(ms, 10)
		if t != original && t != c.lastToken {
			c.lastToken = t
			return t
		}
		ms++
	}
}

func findBlock(blocks []string, token string) (string, bool) {
	for _, b := range blocks {
		if wm.HasTitle(b, token) {
			return b, true
		}
	}
	return "", false
}
