package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

func Now() int64 {
	return time.Now().Unix()
}

func DirExists(name string) bool {
	stat, err := os.Stat(name)
	return err == nil && stat.IsDir()
}

// Print value json string to output.
// It prints a trailing \n
func PrintJson(output io.Writer, value any) error {
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	fmt.Fprintln(output, string(bytes))
	return nil
}
