package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"text/template"
)

// DefaultNamespace is where Wails exposes the bound App methods
const DefaultNamespace = "window.go.app.App"

//go:embed bridge.js.tmpl
var bridgeSource string

var (
	bridgeTemplate = template.Must(template.New("bridge").Funcs(template.FuncMap{
		"json": toJSON,
	}).Parse(bridgeSource))

	namespacePattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)
)

// Options controls the injected page script
type Options struct {
	// CSS is appended to the document as a <style> element. May be empty.
	CSS string
	// Namespace is the JS expression holding RequestWindowFocus and
	// OpenExternal. Defaults to DefaultNamespace.
	Namespace string
	// DisableSpellcheck marks the document and later editable elements
	// with spellcheck=false.
	DisableSpellcheck bool
}

// Script renders the page patch. It exposes window.webAppBridge with
// requestWindowFocus and openExternal, wraps window.Notification so a click
// requests focus, routes window.focus, window.open and target=_blank links
// through the bridge, and appends opts.CSS. Running it twice on one page is
// a no-op.
func Script(opts Options) (string, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if !namespacePattern.MatchString(opts.Namespace) {
		return "", fmt.Errorf("invalid bridge namespace %q", opts.Namespace)
	}

	var buf bytes.Buffer
	if err := bridgeTemplate.Execute(&buf, opts); err != nil {
		return "", fmt.Errorf("failed to render page script: %w", err)
	}
	return buf.String(), nil
}

// toJSON renders s as a JS string literal. encoding/json escapes <, > and &
// so the stylesheet cannot close an enclosing script element.
func toJSON(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
