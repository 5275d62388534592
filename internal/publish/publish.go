// Package publish commits the output tree to a branch of a remote git
// repository and pushes it.
package publish

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docsite/internal/auth"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

const remoteName = "origin"

// Options describes one publish.
type Options struct {
	// Name labels the target in logs and errors.
	Name   string
	Dir    string
	Target config.PublishTarget
	// WorkDir is the scratch checkout; empty means a temporary directory
	// removed afterwards.
	WorkDir string
}

// Result reports what a publish did.
type Result struct {
	Commit string
	Files  int
	// Pushed is false when the branch already matched the output tree.
	Pushed bool
}

// Publish replaces the content of the target branch with opts.Dir. The
// remote history is preserved; an absent branch is created as an orphan.
func Publish(ctx context.Context, opts Options) (Result, error) {
	t := opts.Target
	log := slog.With(logfields.Target(opts.Name), logfields.Remote(t.Remote), logfields.Branch(t.Branch))

	if _, err := os.Stat(opts.Dir); err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryPublish, "output tree is missing").
			WithContext("path", opts.Dir).
			Build()
	}

	method, err := auth.CreateAuth(t.Auth)
	if err != nil {
		return Result{}, err
	}

	work := opts.WorkDir
	if work == "" {
		work, err = os.MkdirTemp("", "docsite-publish-*")
		if err != nil {
			return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to create publish checkout").Build()
		}
		defer func() { _ = os.RemoveAll(work) }()
	}

	branch := plumbing.NewBranchReferenceName(t.Branch)
	repo, err := checkout(ctx, work, t.Remote, branch, method)
	if err != nil {
		return Result{}, wrap(err, "failed to check out publish branch", opts)
	}

	if err := clearWorktree(work); err != nil {
		return Result{}, err
	}
	files, err := copyTree(opts.Dir, work)
	if err != nil {
		return Result{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return Result{}, wrap(err, "failed to open worktree", opts)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return Result{}, wrap(err, "failed to stage output", opts)
	}
	status, err := wt.Status()
	if err != nil {
		return Result{}, wrap(err, "failed to read worktree status", opts)
	}
	if status.IsClean() {
		log.Info("Publish branch already up to date", logfields.Count(files))
		return Result{Files: files}, nil
	}

	hash, err := wt.Commit(t.Message, &git.CommitOptions{
		Author: &object.Signature{Name: t.AuthorName, Email: t.AuthorEmail, When: time.Now()},
	})
	if err != nil {
		return Result{}, wrap(err, "failed to commit output", opts)
	}

	spec := gitconfig.RefSpec(branch.String() + ":" + branch.String())
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       method,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return Result{}, wrap(err, "failed to push publish branch", opts)
	}

	log.Info("Published output", logfields.Count(files), slog.String("commit", hash.String()[:8]))
	return Result{Commit: hash.String(), Files: files, Pushed: true}, nil
}

// checkout clones branch shallowly, or initialises an empty repository whose
// HEAD points at the not-yet-existing branch.
func checkout(ctx context.Context, work, remote string, branch plumbing.ReferenceName, method transport.AuthMethod) (*git.Repository, error) {
	repo, err := git.PlainCloneContext(ctx, work, false, &git.CloneOptions{
		URL:           remote,
		Auth:          method,
		ReferenceName: branch,
		SingleBranch:  true,
		Depth:         1,
	})
	if err == nil {
		return repo, nil
	}
	if !missingBranch(err) {
		return nil, err
	}

	slog.Debug("Publish branch does not exist yet, starting orphan", logfields.Branch(branch.Short()))
	if err := os.RemoveAll(filepath.Join(work, ".git")); err != nil {
		return nil, err
	}
	repo, err = git.PlainInit(work, false)
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{remote}}); err != nil {
		return nil, err
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)); err != nil {
		return nil, err
	}
	return repo, nil
}

func missingBranch(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return stderrors.Is(err, transport.ErrEmptyRemoteRepository) ||
		stderrors.Is(err, plumbing.ErrReferenceNotFound) ||
		stderrors.As(err, &noMatch)
}

// clearWorktree removes everything in dir except the repository metadata.
func clearWorktree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read publish checkout").Build()
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := sitefs.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies every regular file below src into dst and returns the count.
func copyTree(src, dst string) (int, error) {
	n := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		data, err := sitefs.ReadFile(path)
		if err != nil {
			return err
		}
		n++
		return sitefs.WriteFile(filepath.Join(dst, rel), data)
	})
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to copy output tree").
			WithContext("path", src).
			Build()
	}
	return n, nil
}

// wrap classifies every clone or push failure as a publish error. Rejected
// credentials are marked with cause=auth.
func wrap(err error, msg string, opts Options) error {
	b := errors.WrapError(err, errors.CategoryPublish, msg).
		WithContext("target", opts.Name).
		WithContext("remote", opts.Target.Remote).
		WithContext("branch", opts.Target.Branch)
	if stderrors.Is(err, transport.ErrAuthenticationRequired) || stderrors.Is(err, transport.ErrAuthorizationFailed) {
		b = b.WithContext("cause", "auth")
	}
	return b.Build()
}
