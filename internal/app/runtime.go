package app

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// windowRuntime is the part of the Wails runtime the app drives
type windowRuntime interface {
	SetTitle(title string)
	ExecJS(js string)
	Show()
	Unminimise()
	Size() (width, height int)
	Position() (x, y int)
	SetSize(width, height int)
	SetPosition(x, y int)
	OpenURL(url string)
}

// wailsRuntime forwards to the Wails runtime bound to the startup context
type wailsRuntime struct {
	ctx context.Context
}

func (r *wailsRuntime) SetTitle(title string)     { runtime.WindowSetTitle(r.ctx, title) }
func (r *wailsRuntime) ExecJS(js string)          { runtime.WindowExecJS(r.ctx, js) }
func (r *wailsRuntime) Show()                     { runtime.WindowShow(r.ctx) }
func (r *wailsRuntime) Unminimise()               { runtime.WindowUnminimise(r.ctx) }
func (r *wailsRuntime) Size() (int, int)          { return runtime.WindowGetSize(r.ctx) }
func (r *wailsRuntime) Position() (int, int)      { return runtime.WindowGetPosition(r.ctx) }
func (r *wailsRuntime) SetSize(width, height int) { runtime.WindowSetSize(r.ctx, width, height) }
func (r *wailsRuntime) SetPosition(x, y int)      { runtime.WindowSetPosition(r.ctx, x, y) }
func (r *wailsRuntime) OpenURL(url string)        { runtime.BrowserOpenURL(r.ctx, url) }

// wailsWindow tracks the window title, which Wails can set but not read
// back. Title changes made before the runtime is ready are remembered and
// applied by attach.
type wailsWindow struct {
	mu      sync.Mutex
	title   string
	runtime windowRuntime
}

func newWailsWindow(title string) *wailsWindow {
	return &wailsWindow{title: title}
}

// attach binds the window to rt and pushes the current title
func (w *wailsWindow) attach(rt windowRuntime) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runtime = rt
	rt.SetTitle(w.title)
}

func (w *wailsWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *wailsWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
	if w.runtime != nil {
		w.runtime.SetTitle(title)
	}
}
