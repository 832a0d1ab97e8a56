//go:build darwin

package platform

// DarwinAPI implements API for macOS, where apps conventionally stay
// running in the dock after their last window closes.
type DarwinAPI struct{}

// NewAPI returns the API for the running OS
func NewAPI() API {
	return &DarwinAPI{}
}

func (d *DarwinAPI) Name() string { return "darwin" }

func (d *DarwinAPI) StaysResident() bool { return true }

func (d *DarwinAPI) SocketWritable(path string) bool { return socketWritable(path) }
