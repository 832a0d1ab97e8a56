package wm

import (
	"fmt"
	"os"
	"os/exec"

	"webwrap/internal/platform"
)

// Status describes how reachable the compositor is
type Status struct {
	Socket         string `yaml:"socket"`
	SocketWritable bool   `yaml:"socket_writable"`
	Binary         string `yaml:"binary"`
}

// Available reports whether focus requests can be expected to work
func (s Status) Available() bool {
	return s.SocketWritable && s.Binary != ""
}

// Err explains why the compositor is unavailable, or returns nil
func (s Status) Err() error {
	switch {
	case s.Socket == "":
		return fmt.Errorf("NIRI_SOCKET is not set: not running under niri")
	case !s.SocketWritable:
		return fmt.Errorf("niri socket %s is not writable", s.Socket)
	case s.Binary == "":
		return fmt.Errorf("niri not found in PATH")
	default:
		return nil
	}
}

// Detect probes the niri session through api
func Detect(api platform.API) Status {
	s := Status{Socket: os.Getenv("NIRI_SOCKET")}
	if s.Socket != "" {
		s.SocketWritable = api.SocketWritable(s.Socket)
	}
	if path, err := exec.LookPath("niri"); err == nil {
		s.Binary = path
	}
	return s
}
