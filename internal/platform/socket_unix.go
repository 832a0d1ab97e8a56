//go:build unix

package platform

import "golang.org/x/sys/unix"

func socketWritable(path string) bool {
	if path == "" {
		return false
	}
	return unix.Access(path, unix.W_OK) == nil
}
