// Package gitstore implements domain.DocumentStore on a local git
// repository: one JSON document per path, every save and delete recorded as
// a commit. The repository is the system of record for published content;
// conflicting writers resolve last-write-wins.
package gitstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"pagesmith/internal/domain"
)

// Options configures the store.
type Options struct {
	// Dir is the REQUIRED repository root on disk. Opened if a repository
	// already exists there, initialized otherwise.
	Dir string

	// AuthorName and AuthorEmail sign every commit. Defaults identify the
	// editor itself.
	AuthorName  string
	AuthorEmail string
}

func (o *Options) Validate() error {
	if o.Dir == "" {
		return errors.New("gitstore: Dir is required")
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.AuthorName == "" {
		o.AuthorName = "pagesmith"
	}
	if o.AuthorEmail == "" {
		o.AuthorEmail = "pagesmith@localhost"
	}
}

// Store is a git-backed document store. All file access goes through the
// worktree's billy filesystem, which is rooted at the repository directory.
type Store struct {
	authorName  string
	authorEmail string

	mu       sync.Mutex
	repo     *git.Repository
	worktree *git.Worktree
}

// Open opens or initializes the repository described by opts.
func Open(opts Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	repo, err := git.PlainOpen(opts.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(opts.Dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	return &Store{
		authorName:  opts.AuthorName,
		authorEmail: opts.AuthorEmail,
		repo:        repo,
		worktree:    worktree,
	}, nil
}

// Load returns the document at path, or domain.ErrNotFound.
func (s *Store) Load(ctx context.Context, docPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := resolve(docPath)
	if err != nil {
		return nil, err
	}
	content, err := util.ReadFile(s.worktree.Filesystem, rel)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", docPath, err)
	}
	return content, nil
}

// Save writes the document and commits it with message. An identical write
// produces no new commit but still succeeds.
func (s *Store) Save(ctx context.Context, docPath string, content []byte, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := resolve(docPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.WriteFile(s.worktree.Filesystem, rel, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", docPath, err)
	}
	if _, err := s.worktree.Add(rel); err != nil {
		return fmt.Errorf("stage %s: %w", docPath, err)
	}
	return s.commit(message)
}

// Delete removes the document and commits the removal with message.
// Deleting an absent document returns domain.ErrNotFound.
func (s *Store) Delete(ctx context.Context, docPath string, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := resolve(docPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.worktree.Filesystem.Stat(rel); errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	if _, err := s.worktree.Remove(rel); err != nil {
		return fmt.Errorf("remove %s: %w", docPath, err)
	}
	return s.commit(message)
}

// List returns the repository-relative paths of all documents under prefix,
// sorted. The .git directory is never listed.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := resolve(prefix)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = util.Walk(s.worktree.Filesystem, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			if info.Name() == git.GitDirName {
				return fs.SkipDir
			}
			return nil
		}
		paths = append(paths, path.Clean(strings.ReplaceAll(p, "\\", "/")))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Store) commit(message string) error {
	status, err := s.worktree.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	_, err = s.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.authorName,
			Email: s.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// resolve normalizes a store path, refusing escapes from the repository
// root. Store paths are always slash-separated and relative.
func resolve(docPath string) (string, error) {
	clean := path.Clean(docPath)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("invalid document path %q", docPath)
	}
	return clean, nil
}

// PagePath returns the document path for a page slug.
func PagePath(slug string) string {
	return "pages/" + slug + ".json"
}

// LayoutPath returns the document path for a layout id.
func LayoutPath(id string) string {
	return "layouts/" + id + ".json"
}

// ComponentPath returns the document path for a component definition id.
func ComponentPath(id string) string {
	return "components/" + id + ".json"
}
