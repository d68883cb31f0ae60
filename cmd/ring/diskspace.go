package main

import (
	"errors"
	"fmt"
)

// diskSpaceMargin is the free space kept in reserve beyond the size of an output file.
const diskSpaceMargin = 1 << 20

var errInsufficientDiskSpace = errors.New("insufficient disk space")

// checkDiskSpace returns an error if dir's filesystem lacks room for size bytes plus a margin. Platforms without a free
// space query always pass.
func checkDiskSpace(dir string, size int64) error {
	available, ok, err := availableDiskSpace(dir)
	if err != nil {
		return fmt.Errorf("check disk space: %w", err)
	}

	if !ok || size < 0 {
		return nil
	}

	if need := uint64(size) + diskSpaceMargin; available < need {
		return fmt.Errorf("%w: need %d bytes, have %d", errInsufficientDiskSpace, need, available)
	}
	return nil
}
