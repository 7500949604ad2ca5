package gitutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/user/reach-plots-go/internal/models"
)

// OpenRepository opens the git work tree containing path. Parent directories
// are searched for .git.
func OpenRepository(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// GetHeadCommit retrieves the commit object for the repository's HEAD.
func GetHeadCommit(repo *git.Repository) (*object.Commit, error) {
	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	commit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for HEAD (%s): %w", headRef.Hash(), err)
	}
	return commit, nil
}

// GetRepoBranch returns the current branch name, or the commit SHA with a
// "(detached)" marker when HEAD is not a branch.
func GetRepoBranch(repo *git.Repository, headCommit *object.Commit) (string, error) {
	headRef, err := repo.Head()
	if err != nil {
		return headCommit.Hash.String() + " (detached - error getting head)", err
	}
	if headRef.Name().IsBranch() {
		return headRef.Name().Short(), nil
	}
	return headCommit.Hash.String() + " (detached)", nil
}

// GetRevision describes HEAD of repo.
func GetRevision(repo *git.Repository) (*models.SourceRevision, error) {
	head, err := GetHeadCommit(repo)
	if err != nil {
		return nil, err
	}
	branch, err := GetRepoBranch(repo, head)
	if err != nil {
		return nil, err
	}
	return &models.SourceRevision{
		SHA:     head.Hash.String(),
		Branch:  branch,
		Date:    head.Committer.When,
		Message: strings.Split(head.Message, "\n")[0],
	}, nil
}

// DescribePath returns the revision of the work tree holding path. It returns
// nil without error when path is not inside a repository.
func DescribePath(path string) (*models.SourceRevision, error) {
	repo, err := OpenRepository(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, err
	}
	return GetRevision(repo)
}
