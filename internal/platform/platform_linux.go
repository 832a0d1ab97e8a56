//go:build linux

package platform

// LinuxAPI implements API for Linux
type LinuxAPI struct{}

// NewAPI returns the API for the running OS
func NewAPI() API {
	return &LinuxAPI{}
}

func (l *LinuxAPI) Name() string { return "linux" }

func (l *LinuxAPI) StaysResident() bool { return false }

func (l *LinuxAPI) SocketWritable(path string) bool { return socketWritable(path) }
