package scripting

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/camden-git/photosyncbackend/models"
)

// ExecutionLogStore is the narrow persistence surface the executor needs:
// append-only audit rows, one per invocation
type ExecutionLogStore interface {
	AppendExecutionLog(entry *models.ScriptExecutionLog) error
}

// EventSink receives script execution outcomes for realtime broadcast.
// implementations must not block
type EventSink interface {
	ScriptExecuted(scriptName string, photoID *uint, success bool, errText string)
}

// Executor materializes a script's stored body to a temporary file and runs it
// through the shared Runner with the configured interpreter and timeout.
// every invocation is recorded in the execution log regardless of outcome
type Executor struct {
	Interpreter string
	Timeout     time.Duration

	runner   Runner
	logStore ExecutionLogStore
	events   EventSink // optional
}

func NewExecutor(interpreter string, timeout time.Duration, logStore ExecutionLogStore, events EventSink) *Executor {
	return &Executor{
		Interpreter: interpreter,
		Timeout:     timeout,
		logStore:    logStore,
		events:      events,
	}
}

// Execute runs the script, optionally against a photo (photoPath empty for
// scheduled firings). the returned error reports failure to the caller's log;
// the audit row has already been written by the time Execute returns
func (e *Executor) Execute(script models.Script, photoPath string, photoID *uint) error {
	res, runErr := e.run(script, photoPath)

	success := runErr == nil && res.ExitCode == 0

	var errText *string
	if !success {
		msg := describeFailure(res, runErr)
		errText = &msg
	}
	var output *string
	if trimmed := strings.TrimSpace(res.Stdout); trimmed != "" {
		output = &trimmed
	}

	entry := &models.ScriptExecutionLog{
		ScriptID:  script.ID,
		PhotoID:   photoID,
		RanAt:     time.Now().Unix(),
		Success:   success,
		Output:    output,
		ErrorText: errText,
	}
	if err := e.logStore.AppendExecutionLog(entry); err != nil {
		log.Printf("executor: ERROR appending execution log for script %q: %v", script.Name, err)
	}

	if e.events != nil {
		msg := ""
		if errText != nil {
			msg = *errText
		}
		e.events.ScriptExecuted(script.Name, photoID, success, msg)
	}

	if !success {
		return fmt.Errorf("script %q failed: %s", script.Name, *errText)
	}
	return nil
}

// run writes the body to a temp file and invokes the interpreter on it
func (e *Executor) run(script models.Script, photoPath string) (Result, error) {
	tmpFile, err := os.CreateTemp("", "photoscript-*.sh")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp file for script %q: %w", script.Name, err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.WriteString(script.Contents); err != nil {
		tmpFile.Close()
		return Result{}, fmt.Errorf("failed to write script %q body: %w", script.Name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close script %q temp file: %w", script.Name, err)
	}

	args := []string{tmpPath}
	if photoPath != "" {
		args = append(args, photoPath)
	}

	return e.runner.Run(e.Interpreter, args, e.Timeout)
}

func describeFailure(res Result, runErr error) string {
	if runErr != nil {
		return runErr.Error()
	}
	msg := fmt.Sprintf("exited with code %d", res.ExitCode)
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}
