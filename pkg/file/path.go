package file

import (
	"path/filepath"
	"strings"
)

// OutputPrefix is prepended to the base name of every translated file.
const OutputPrefix = "trans_"

// IsOutput reports whether name looks like a file this tool produced.
func IsOutput(name string) bool {
	return strings.HasPrefix(filepath.Base(name), OutputPrefix)
}

// OutputPath maps a relative input name to its translated file under
// outputDir, e.g. ("out", "s1/ep1.srt") -> "out/s1/trans_ep1.srt".
func OutputPath(outputDir, name string) string {
	dir, base := filepath.Split(filepath.FromSlash(name))
	return filepath.Join(outputDir, dir, OutputPrefix+base)
}

// ReplaceExt swaps the extension of path, adding the leading dot if missing.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}

	return filepath.Join(dir, filename[:lastDot]+ext)
}
