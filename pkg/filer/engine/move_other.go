//go:build !unix

package engine

// os.Rename moves across volumes on platforms without EXDEV.
func isCrossDevice(error) bool {
	return false
}
