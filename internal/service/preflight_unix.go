//go:build !windows

package service

import "golang.org/x/sys/unix"

// checkWritable fails early when the current user cannot create files in
// dir, which is the usual outcome of running the installer without root.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}
