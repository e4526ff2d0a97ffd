package vcs

// ChangeType distinguishes how a path changed since the cursor
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
)

// FileChange is one watched file that was added or modified since the last
// processed revision. Author is the commit author name of the change that
// produced the file's final content
type FileChange struct {
	Path        string // repository-relative, forward slashes
	Type        ChangeType
	Author      string
	CommittedAt int64 // Unix timestamp of the attributing commit
}
