package serialize

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteModule writes a Lua module returning body to path. The parent
// directory of path is created if needed, and any existing file at path
// is overwritten.
func WriteModule(path, body string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("writemodule: could not create directory: %w",
				err)
		}
	}

	content := "return " + body + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writemodule: could not write %v: %w", path, err)
	}
	return nil
}
