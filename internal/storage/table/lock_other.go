//go:build !unix

package table

import "os"

// Advisory locking is only available on unix; elsewhere the store relies
// on a single writer by convention.

func lockFile(f *os.File, exclusive bool) error { return nil }

func unlockFile(f *os.File) error { return nil }
