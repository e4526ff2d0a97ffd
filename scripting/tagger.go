package scripting

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Tagger invokes the external AI-tagging program against an image and parses
// its stdout into a tag list. every failure mode (missing executable or
// script, nonzero exit, timeout, unreadable output) surfaces as an error the
// pipeline treats as non-fatal
type Tagger struct {
	Executable string
	Script     string
	Timeout    time.Duration

	runner Runner
}

func NewTagger(executable, script string, timeout time.Duration) *Tagger {
	return &Tagger{Executable: executable, Script: script, Timeout: timeout}
}

// Enabled reports whether a tagger executable is configured at all
func (t *Tagger) Enabled() bool {
	return t.Executable != ""
}

// Generate runs `<executable> <script> <imagePath>` and tokenizes stdout into
// tags. blank output means zero tags, not a failure
func (t *Tagger) Generate(imagePath string) ([]string, error) {
	if !t.Enabled() {
		return nil, fmt.Errorf("tagger executable not configured")
	}
	if _, err := os.Stat(t.Executable); err != nil {
		return nil, fmt.Errorf("tagger executable %s not usable: %w", t.Executable, err)
	}
	if t.Script != "" {
		if _, err := os.Stat(t.Script); err != nil {
			return nil, fmt.Errorf("tagger script %s not usable: %w", t.Script, err)
		}
	}

	args := make([]string, 0, 2)
	if t.Script != "" {
		args = append(args, t.Script)
	}
	args = append(args, imagePath)

	res, err := t.runner.Run(t.Executable, args, t.Timeout)
	if err != nil {
		return nil, fmt.Errorf("tagger failed for %s: %w", imagePath, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("tagger exited with code %d for %s: %s", res.ExitCode, imagePath, strings.TrimSpace(res.Stderr))
	}

	return ParseTagOutput(res.Stdout), nil
}

// ParseTagOutput tokenizes tagger stdout by newline or comma, trimming each
// piece and dropping empties
func ParseTagOutput(output string) []string {
	var tags []string
	for _, line := range strings.Split(output, "\n") {
		for _, piece := range strings.Split(line, ",") {
			tag := strings.TrimSpace(piece)
			if tag == "" {
				continue
			}
			tags = append(tags, tag)
		}
	}
	return tags
}
