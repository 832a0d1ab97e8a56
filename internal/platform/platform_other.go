//go:build !linux && !darwin

package platform

import "runtime"

// GenericAPI implements API for platforms without a supported compositor
type GenericAPI struct{}

// NewAPI returns the API for the running OS
func NewAPI() API {
	return &GenericAPI{}
}

func (g *GenericAPI) Name() string { return runtime.GOOS }

func (g *GenericAPI) StaysResident() bool { return false }

// SocketWritable always reports false; niri only runs on Linux
func (g *GenericAPI) SocketWritable(path string) bool { return false }
