package platform

// API exposes the few OS-specific decisions the shell makes
type API interface {
	// Name returns the OS name for logging
	Name() string
	// StaysResident reports whether the process keeps running with zero
	// windows after the last window closes.
	StaysResident() bool
	// SocketWritable reports whether the unix socket at path exists and the
	// current user may write to it.
	SocketWritable(path string) bool
}
