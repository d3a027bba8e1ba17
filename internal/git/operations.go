package git

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Cloner fetches a remote repository into a local working directory.
// This allows mocking network clones in tests.
type Cloner interface {
	// Clone checks out url into a fresh temporary directory. The returned
	// cleanup removes the directory and is safe to call more than once.
	Clone(ctx context.Context, url string) (dir string, cleanup func(), err error)
}

// gitCloner is the real implementation using go-git.
type gitCloner struct{}

// NewCloner returns the default go-git backed cloner.
func NewCloner() Cloner {
	return &gitCloner{}
}

// Clone is a convenience wrapper around NewCloner().Clone.
func Clone(ctx context.Context, url string) (string, func(), error) {
	return NewCloner().Clone(ctx, url)
}

func (g *gitCloner) Clone(ctx context.Context, url string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "critic-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	cleanup := func() {
		_ = os.RemoveAll(dir)
	}

	opts := &gogit.CloneOptions{URL: url}
	// The file transport cannot serve shallow clones.
	if !strings.HasPrefix(url, "file://") {
		opts.Depth = 1
	}

	if _, err := gogit.PlainCloneContext(ctx, dir, false, opts); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone repo '%s': %w", url, err)
	}

	if head, err := HeadCommit(dir); err == nil {
		log.Printf("Cloned %s at %s", url, shortHash(head))
	}

	return dir, cleanup, nil
}

// HeadCommit returns the full hash HEAD points at in the repository at dir.
func HeadCommit(dir string) (string, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// scpLike matches git@host:owner/repo style addresses.
var scpLike = regexp.MustCompile(`^[A-Za-z0-9_.-]+@[A-Za-z0-9_.-]+:[^/]`)

// IsRemote reports whether a CLI argument names a repository to clone
// rather than a local directory.
func IsRemote(arg string) bool {
	for _, prefix := range []string{"http://", "https://", "ssh://", "git://", "file://"} {
		if strings.HasPrefix(arg, prefix) {
			return true
		}
	}
	return scpLike.MatchString(arg)
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
