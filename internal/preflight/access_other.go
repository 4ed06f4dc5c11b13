//go:build !unix

package preflight

import (
	"fmt"
	"os"
)

func accessExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func accessReadWrite(path string) error {
	_, err := os.Stat(path)
	return err
}
