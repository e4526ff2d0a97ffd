package vcs

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Client wraps a local working copy of the photo repository. it is the only
// component that talks to the remote
type Client struct {
	repo       *git.Repository
	path       string
	remoteURL  string
	auth       transport.AuthMethod
	extensions map[string]bool
}

// Open opens the working copy at path, cloning it from remoteURL first if it
// does not exist yet. username/token are used for HTTP basic auth; both may be
// empty for public or purely local repositories
func Open(path, remoteURL, username, token string, extensions []string) (*Client, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	var auth transport.AuthMethod
	if token != "" {
		if username == "" {
			// any non-empty username works for token auth over HTTP
			username = "token"
		}
		auth = &githttp.BasicAuth{Username: username, Password: token}
	}

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if remoteURL == "" {
			return nil, fmt.Errorf("no repository at %s and no REPO_URL configured to clone from", path)
		}
		log.Printf("vcs: cloning %s into %s", remoteURL, path)
		repo, err = git.PlainClone(path, false, &git.CloneOptions{
			URL:  remoteURL,
			Auth: auth,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}

	return &Client{
		repo:       repo,
		path:       path,
		remoteURL:  remoteURL,
		auth:       auth,
		extensions: extSet,
	}, nil
}

// AbsolutePath resolves a repository-relative path to the filesystem
func (c *Client) AbsolutePath(relPath string) string {
	return filepath.Join(c.path, filepath.FromSlash(relPath))
}

// Sync pulls the latest changes from the remote. failures here are transient:
// the caller is expected to skip the cycle and retry on the next tick
func (c *Client) Sync() error {
	if c.remoteURL == "" {
		return nil
	}

	worktree, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.Pull(&git.PullOptions{
		RemoteName: "origin",
		Auth:       c.auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pull from %s: %w", c.remoteURL, err)
	}
	return nil
}

// Head returns the current head revision identifier
func (c *Client) Head() (string, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Changes lists watched files added or modified between sinceRev (exclusive)
// and the current head, oldest change first. a path touched by several commits
// appears once, attributed to the last commit that touched it. an empty
// sinceRev yields the full head tree as added files. the head revision the
// listing was computed against is returned alongside the changes
func (c *Client) Changes(sinceRev string) ([]FileChange, string, error) {
	headRef, err := c.repo.Head()
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	headCommit, err := c.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, "", fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	head := headRef.Hash().String()

	if sinceRev == "" {
		changes, err := c.fullTree(headCommit)
		return changes, head, err
	}
	if sinceRev == head {
		return nil, head, nil
	}

	commits, err := c.commitsSince(headCommit, plumbing.NewHash(sinceRev))
	if err != nil {
		return nil, "", err
	}

	ordered := make([]*FileChange, 0)
	byPath := make(map[string]*FileChange)

	for _, commit := range commits {
		treeChanges, err := diffAgainstParent(commit)
		if err != nil {
			return nil, "", err
		}
		for _, tc := range treeChanges {
			action, err := tc.Action()
			if err != nil {
				return nil, "", fmt.Errorf("failed to resolve change action: %w", err)
			}

			switch action {
			case merkletrie.Insert, merkletrie.Modify:
				path := tc.To.Name
				if !c.watches(path) {
					continue
				}
				if existing, ok := byPath[path]; ok {
					// later commit wins for content attribution; a path first
					// seen as added stays added
					existing.Author = commit.Author.Name
					existing.CommittedAt = commit.Author.When.Unix()
					continue
				}
				changeType := ChangeModified
				if action == merkletrie.Insert {
					changeType = ChangeAdded
				}
				fc := &FileChange{
					Path:        path,
					Type:        changeType,
					Author:      commit.Author.Name,
					CommittedAt: commit.Author.When.Unix(),
				}
				byPath[path] = fc
				ordered = append(ordered, fc)

			case merkletrie.Delete:
				// a file added and deleted within the window never surfaces
				path := tc.From.Name
				if pending, ok := byPath[path]; ok {
					pending.Path = ""
					delete(byPath, path)
				}
			}
		}
	}

	result := make([]FileChange, 0, len(ordered))
	for _, fc := range ordered {
		if fc.Path == "" {
			continue
		}
		result = append(result, *fc)
	}
	return result, head, nil
}

// fullTree lists every watched file in the commit's tree as an added change
func (c *Client) fullTree(commit *object.Commit) ([]FileChange, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}

	var changes []FileChange
	err = tree.Files().ForEach(func(f *object.File) error {
		if !c.watches(f.Name) {
			return nil
		}
		changes = append(changes, FileChange{
			Path:        f.Name,
			Type:        ChangeAdded,
			Author:      commit.Author.Name,
			CommittedAt: commit.Author.When.Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk HEAD tree: %w", err)
	}
	return changes, nil
}

// commitsSince walks the first-parent lineage from head back to since
// (exclusive) and returns the commits oldest first. if since is not on the
// lineage the full history is returned and a warning logged, so a rewritten
// upstream re-indexes rather than stalls
func (c *Client) commitsSince(head *object.Commit, since plumbing.Hash) ([]*object.Commit, error) {
	var commits []*object.Commit
	current := head
	found := false
	for {
		if current.Hash == since {
			found = true
			break
		}
		commits = append(commits, current)
		if current.NumParents() == 0 {
			break
		}
		parent, err := current.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent of %s: %w", current.Hash, err)
		}
		current = parent
	}
	if !found {
		log.Printf("vcs: cursor revision %s not found in history, re-listing from root", since)
	}

	// reverse to oldest-first
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

// diffAgainstParent diffs a commit's tree against its first parent. the
// initial commit diffs against an empty tree
func diffAgainstParent(commit *object.Commit) (object.Changes, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", commit.Hash, err)
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent of %s: %w", commit.Hash, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("failed to load parent tree of %s: %w", commit.Hash, err)
		}
	}

	treeChanges, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s against parent: %w", commit.Hash, err)
	}
	return treeChanges, nil
}

func (c *Client) watches(path string) bool {
	return c.extensions[strings.ToLower(filepath.Ext(path))]
}
