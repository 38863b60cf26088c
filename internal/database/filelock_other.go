//go:build !unix

package database

// lockFile is a no-op where flock is unavailable; FileBackend then only
// serialises writers within one process.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
