package output

import (
	"io"
	"os"
)

// ResolveColorMode folds the --color flag into the effective TTY answer
// the printer is built with. "never" and "always" force the result;
// anything else ("auto", the default) trusts the detected value.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTTY
	}
}

// IsTTY reports whether writer is attached to a terminal. Only an
// *os.File that is a character device qualifies; buffers and pipes are
// not terminals.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
