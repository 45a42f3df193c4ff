//go:build !linux

package platform

import "io/fs"

// FileTimes returns the modification time for all three timestamps on
// platforms where creation and access times are not read.
func FileTimes(_ string, info fs.FileInfo) (Times, error) {
	mt := info.ModTime()
	return Times{Created: mt, Accessed: mt, Modified: mt}, nil
}
