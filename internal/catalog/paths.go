package catalog

import (
	"os"
	"path/filepath"
	"strconv"
)

// CatalogDir returns <prefix>/catalog, creating it if necessary. Unlike
// the desktop application's per-OS application-data directory, the build
// tools always work out of an explicit prefix directory supplied on the
// command line (spec.md §6): there is no platform-specific default to
// fall back to.
func CatalogDir(prefix string) (string, error) {
	dir := filepath.Join(prefix, "catalog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// BoardDir returns <prefix>/board{Bx}x{By}/partition{Px}x{Py}, the
// on-disk location spec.md §6 specifies for one board/block
// configuration's record file.
func BoardDir(prefix string, boardX, boardY, gridX, gridY int) (string, error) {
	dir := filepath.Join(prefix,
		boardSubdir(boardX, boardY),
		partitionSubdir(gridX, gridY),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func boardSubdir(boardX, boardY int) string {
	return "board" + strconv.Itoa(boardX) + "x" + strconv.Itoa(boardY)
}

func partitionSubdir(gridX, gridY int) string {
	return "partition" + strconv.Itoa(gridX) + "x" + strconv.Itoa(gridY)
}
