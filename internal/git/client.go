// Package git clones and updates the remote article source through
// go-git. Failures are classified into typed errors so callers can
// distinguish a bad URL from a flaky network.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/metrics"
	"git.home.luguber.info/inful/mdpage/internal/retry"
)

// cloneDepth keeps remote fetches shallow; article rendering never
// needs history.
const cloneDepth = 1

// Client performs git operations inside a workspace directory.
type Client struct {
	workspaceDir string
	policy       retry.Policy
	rec          metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRecorder wires a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(c *Client) { c.rec = rec }
}

// NewClient creates a git client that clones into workspaceDir.
func NewClient(workspaceDir string, opts ...Option) *Client {
	c := &Client{
		workspaceDir: workspaceDir,
		policy:       retry.DefaultPolicy(),
		rec:          metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CloneResult describes a completed clone or update.
type CloneResult struct {
	Path   string
	Branch string
	Commit string
}

// Clone fetches url into the workspace at depth 1. An existing target
// directory is removed first; transient failures are retried under the
// client's policy.
func (c *Client) Clone(ctx context.Context, url, branch string) (CloneResult, error) {
	target := filepath.Join(c.workspaceDir, repoDirName(url))

	slog.Debug("cloning repository",
		logfields.URL(url),
		slog.String("branch", branch),
		logfields.Path(target))

	return retry.DoValue(ctx, "clone", c.policy, c.rec, IsPermanent, func() (CloneResult, error) {
		if err := os.RemoveAll(target); err != nil {
			return CloneResult{}, fmt.Errorf("clear clone target: %w", err)
		}

		opts := &gogit.CloneOptions{
			URL:   url,
			Depth: cloneDepth,
		}
		if branch != "" {
			opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
			opts.SingleBranch = true
		}

		repo, err := gogit.PlainCloneContext(ctx, target, false, opts)
		if err != nil {
			return CloneResult{}, Classify("clone", url, err)
		}

		res := CloneResult{Path: target, Branch: branch}
		if ref, headErr := repo.Head(); headErr == nil {
			res.Commit = ref.Hash().String()
			if branch == "" {
				res.Branch = ref.Name().Short()
			}
		}

		slog.Info("repository cloned",
			logfields.URL(url),
			slog.String("commit", shortHash(res.Commit)),
			logfields.Path(target))
		return res, nil
	})
}

// Update fast-forwards an existing clone, or clones fresh when the
// target is missing or unopenable. Serve mode calls this on schedule
// so the workspace tracks the remote.
func (c *Client) Update(ctx context.Context, url, branch string) (CloneResult, error) {
	target := filepath.Join(c.workspaceDir, repoDirName(url))

	if _, err := os.Stat(filepath.Join(target, ".git")); err != nil {
		slog.Debug("no existing clone, cloning fresh", logfields.Path(target))
		return c.Clone(ctx, url, branch)
	}

	repo, err := gogit.PlainOpen(target)
	if err != nil {
		slog.Warn("existing clone unopenable, recloning",
			logfields.Path(target),
			logfields.Error(err))
		return c.Clone(ctx, url, branch)
	}

	res, err := retry.DoValue(ctx, "update", c.policy, c.rec, IsPermanent, func() (CloneResult, error) {
		return c.pull(ctx, repo, target, url, branch)
	})
	if err == nil {
		return res, nil
	}

	// A diverged worktree is cheaper to replace than to repair at
	// depth 1.
	var diverged *DivergedError
	if errors.As(err, &diverged) {
		slog.Warn("remote diverged, recloning", logfields.URL(url), logfields.Error(err))
		return c.Clone(ctx, url, branch)
	}
	return CloneResult{}, err
}

func (c *Client) pull(ctx context.Context, repo *gogit.Repository, target, url, branch string) (CloneResult, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return CloneResult{}, fmt.Errorf("worktree: %w", err)
	}

	opts := &gogit.PullOptions{
		RemoteName: "origin",
		Depth:      cloneDepth,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	if err := wt.PullContext(ctx, opts); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		if errors.Is(err, gogit.ErrNonFastForwardUpdate) {
			return CloneResult{}, &DivergedError{Op: "update", URL: url, Branch: branch, Err: err}
		}
		return CloneResult{}, Classify("update", url, err)
	}

	res := CloneResult{Path: target, Branch: branch}
	if ref, headErr := repo.Head(); headErr == nil {
		res.Commit = ref.Hash().String()
		if branch == "" {
			res.Branch = ref.Name().Short()
		}
	}

	slog.Info("repository updated",
		logfields.URL(url),
		slog.String("commit", shortHash(res.Commit)))
	return res, nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
