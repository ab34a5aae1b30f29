package feed

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external command with the given stdin and
// returns its stdout. Split out so the extractor is testable without a
// poppler install.
type CommandRunner func(name string, stdin []byte, args ...string) ([]byte, error)

func runCommand(name string, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// NewPdftotextExtractor returns a TextExtractor backed by the poppler
// pdftotext binary, reading the document from stdin and writing plain
// text to stdout. runner may be nil to use the real binary.
func NewPdftotextExtractor(runner CommandRunner) TextExtractor {
	if runner == nil {
		runner = runCommand
	}
	return func(data []byte) (string, error) {
		if len(data) == 0 {
			return "", fmt.Errorf("empty document")
		}
		out, err := runner("pdftotext", data, "-layout", "-", "-")
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(string(out))
		if text == "" {
			return "", fmt.Errorf("document contains no extractable text")
		}
		return text, nil
	}
}
