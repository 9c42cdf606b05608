package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFile renders content into a temporary file named after pattern and
// then moves it to destPath. A failed render leaves destPath untouched.
func WriteFile(destPath, pattern string, render func(w io.Writer) error) error {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return errors.Wrap(err, "couldn't create a temporary file")
	}
	tmpName := file.Name()

	err = render(file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}

	if err = os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "couldn't change file mode")
	}

	return FileMove(tmpName, destPath)
}

// FileMove moves a file from a source path to a destination path. It copies
// the content instead of calling [os.Rename], which fails with "invalid
// cross-device link" when the temporary directory is on another volume.
func FileMove(sourcePath, destPath string) error {
	sourceFileStat, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	destFileStat, err := os.Stat(destPath)
	if err == nil {
		if sourcePath == destPath || os.SameFile(sourceFileStat, destFileStat) {
			return fmt.Errorf("files %s and %s are the same", sourcePath, destPath)
		}
	}

	destDir := filepath.Dir(destPath)
	if _, err = os.Stat(destDir); os.IsNotExist(err) {
		if err = os.MkdirAll(destDir, 0755); err != nil {
			return err
		}
	}

	inputFile, err := os.Open(sourcePath)
	if err != nil {
		return err
	}

	outputFile, err := os.Create(destPath)
	if err != nil {
		inputFile.Close()
		return err
	}

	_, err = io.Copy(outputFile, inputFile)
	inputFile.Close()
	outputFile.Close()

	if err != nil {
		if errRem := os.Remove(destPath); errRem != nil {
			return fmt.Errorf(
				"unable to os.Remove error: %s after io.Copy error: %s",
				errRem,
				err,
			)
		}

		return err
	}

	return os.Remove(sourcePath)
}
