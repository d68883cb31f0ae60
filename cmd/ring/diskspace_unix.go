//go:build linux || darwin || freebsd

package main

import "golang.org/x/sys/unix"

// availableDiskSpace returns the bytes available to unprivileged users on dir's filesystem.
func availableDiskSpace(dir string) (uint64, bool, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, false, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), true, nil //nolint:gosec,unconvert // field types vary by platform
}
