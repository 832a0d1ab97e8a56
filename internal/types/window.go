package types

import "time"

// WindowState is the last saved geometry of the main window
type WindowState struct {
	Width     int       `json:"width" yaml:"width"`
	Height    int       `json:"height" yaml:"height"`
	X         int       `json:"x" yaml:"x"`
	Y         int       `json:"y" yaml:"y"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Valid reports whether the state describes a usable window size
func (s WindowState) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// FocusEvent is one recorded focus request
type FocusEvent struct {
	RequestID  string    `json:"requestId" yaml:"request_id"`
	Token      string    `json:"token" yaml:"token"`
	Outcome    string    `json:"outcome" yaml:"outcome"`
	WindowID   int       `json:"windowId,omitempty" yaml:"window_id,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64     `json:"durationMs" yaml:"duration_ms"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at"`
}
