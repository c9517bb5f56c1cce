package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jakoblorz/go-gbuild/internal/models"
)

// MockRepository implements Repository for testing with full commit graph simulation
type MockRepository struct {
	mu       sync.RWMutex
	root     string
	commits  map[string]*MockCommit // key: commit hash
	branches map[string]string      // key: short branch name, value: head commit hash
	tags     []*MockTag             // creation order
	head     string                 // current HEAD commit hash
	branch   string                 // current short branch name, empty when detached
	counter  uint64
	clock    time.Time

	// Hooks for testing error scenarios
	CurrentBranchError    error
	ListCommitsError      error
	ListChangedFilesError error
	ListTagsError         error
}

// MockCommit represents a git commit
type MockCommit struct {
	Hash      string
	Parents   []string // parent commit hashes
	Message   string
	Author    string
	Timestamp time.Time
	Files     []models.ChangedFile

	seq uint64
}

// MockTag represents a git tag
type MockTag struct {
	Name       string
	Message    string
	CommitHash string
	Timestamp  time.Time
}

// MockEpoch is the timestamp of the initial commit of every MockRepository.
var MockEpoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// NewMockRepository creates a new MockRepository with an initial commit on master
func NewMockRepository(root string) *MockRepository {
	mock := &MockRepository{
		root:     root,
		commits:  make(map[string]*MockCommit),
		branches: make(map[string]string),
		branch:   "master",
		clock:    MockEpoch,
	}

	initialHash := mock.addCommit("Initial commit", nil, nil)
	mock.branches["master"] = initialHash
	mock.head = initialHash

	return mock
}

var _ Repository = (*MockRepository)(nil)

// nextHash generates a unique, deterministic 40-char hex commit hash
func (m *MockRepository) nextHash() string {
	m.counter++
	return fmt.Sprintf("%040x", m.counter)
}

// tick advances the mock clock by one minute and returns the new time
func (m *MockRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *MockRepository) addCommit(message string, parents []string, files []models.ChangedFile) string {
	hash := m.nextHash()
	m.commits[hash] = &MockCommit{
		Hash:      hash,
		Parents:   parents,
		Message:   message,
		Author:    "Test User <test@example.com>",
		Timestamp: m.tick(),
		Files:     files,
		seq:       m.counter,
	}
	return hash
}

// Graph operations for simulating git commit history

// CreateCommit creates a new commit on top of HEAD touching the given files
// (as modifications). Returns the commit hash.
func (m *MockRepository) CreateCommit(message string, paths ...string) string {
	files := make([]models.ChangedFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, models.ChangedFile{Path: p, Kind: models.FileModified})
	}
	return m.CreateCommitWithChanges(message, files...)
}

// CreateCommitWithChanges creates a new commit on top of HEAD with explicit file changes.
func (m *MockRepository) CreateCommitWithChanges(message string, files ...models.ChangedFile) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parents []string
	if m.head != "" {
		parents = []string{m.head}
	}

	hash := m.addCommit(message, parents, files)
	m.moveHead(hash)
	return hash
}

// moveHead points HEAD and the current branch at hash
func (m *MockRepository) moveHead(hash string) {
	m.head = hash
	if m.branch != "" {
		m.branches[m.branch] = hash
	}
}

// CreateBranch creates a new branch pointing to current HEAD
func (m *MockRepository) CreateBranch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = shortBranchName(name)
	if _, exists := m.branches[name]; exists {
		return fmt.Errorf("branch %s already exists", name)
	}

	m.branches[name] = m.head
	return nil
}

// CreateOrphanBranch creates and checks out a branch with a fresh root commit
// that shares no history with any other branch.
func (m *MockRepository) CreateOrphanBranch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = shortBranchName(name)
	if _, exists := m.branches[name]; exists {
		return fmt.Errorf("branch %s already exists", name)
	}

	hash := m.addCommit("Orphan root", nil, nil)
	m.branches[name] = hash
	m.branch = name
	m.head = hash
	return nil
}

// CheckoutBranch switches to an existing branch
func (m *MockRepository) CheckoutBranch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = shortBranchName(name)
	head, exists := m.branches[name]
	if !exists {
		return fmt.Errorf("branch %s not found", name)
	}

	m.branch = name
	m.head = head
	return nil
}

// Detach detaches HEAD at the current commit
func (m *MockRepository) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branch = ""
}

// MergeBranch merges a branch into the current branch (creates merge commit)
func (m *MockRepository) MergeBranch(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = shortBranchName(name)
	sourceHead, exists := m.branches[name]
	if !exists {
		return "", fmt.Errorf("branch %s not found", name)
	}

	hash := m.addCommit(fmt.Sprintf("Merge branch '%s'", name), []string{m.head, sourceHead}, nil)
	m.moveHead(hash)
	return hash, nil
}

// AddTag creates a tag at current HEAD. A non-empty message makes it annotated.
func (m *MockRepository) AddTag(name, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tags {
		if t.Name == name {
			return fmt.Errorf("tag %s already exists", name)
		}
	}

	m.tags = append(m.tags, &MockTag{
		Name:       name,
		Message:    message,
		CommitHash: m.head,
		Timestamp:  m.tick(),
	})
	return nil
}

// AddTagAt creates a tag with an explicit timestamp at current HEAD.
func (m *MockRepository) AddTagAt(name, message string, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tags = append(m.tags, &MockTag{
		Name:       name,
		Message:    message,
		CommitHash: m.head,
		Timestamp:  timestamp,
	})
}

// Head returns the current HEAD commit hash
func (m *MockRepository) Head() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.head
}

func (m *MockRepository) Root() string {
	return m.root
}

func (m *MockRepository) CurrentBranch(_ context.Context) (string, error) {
	if m.CurrentBranchError != nil {
		return "", m.CurrentBranchError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.branch == "" {
		return "", accessError("read current branch", m.root, "HEAD", fmt.Errorf("HEAD is detached"))
	}
	return "refs/heads/" + m.branch, nil
}

func (m *MockRepository) ResolveRef(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.resolve(name)
}

// resolve resolves refs without locking
func (m *MockRepository) resolve(name string) (string, error) {
	switch {
	case name == "HEAD":
		return m.head, nil
	case strings.HasPrefix(name, "refs/heads/"):
		if hash, ok := m.branches[strings.TrimPrefix(name, "refs/heads/")]; ok {
			return hash, nil
		}
	case strings.HasPrefix(name, "refs/tags/"):
		if tag := m.findTag(strings.TrimPrefix(name, "refs/tags/")); tag != nil {
			return tag.CommitHash, nil
		}
	default:
		if hash, ok := m.branches[name]; ok {
			return hash, nil
		}
		if tag := m.findTag(name); tag != nil {
			return tag.CommitHash, nil
		}
		if _, ok := m.commits[name]; ok {
			return name, nil
		}
	}

	return "", accessError("resolve ref", m.root, name, fmt.Errorf("reference not found"))
}

func (m *MockRepository) findTag(name string) *MockTag {
	for _, t := range m.tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// ancestors returns every commit reachable from hash (inclusive) using BFS
func (m *MockRepository) ancestors(hash string) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{hash}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		if commit, exists := m.commits[current]; exists {
			queue = append(queue, commit.Parents...)
		}
	}

	return visited
}

func (m *MockRepository) MergeBase(_ context.Context, a, b string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashA, err := m.resolve(a)
	if err != nil {
		return "", err
	}
	hashB, err := m.resolve(b)
	if err != nil {
		return "", err
	}

	fromB := m.ancestors(hashB)
	var best *MockCommit
	for hash := range m.ancestors(hashA) {
		if !fromB[hash] {
			continue
		}
		if c := m.commits[hash]; best == nil || c.seq > best.seq {
			best = c
		}
	}

	if best == nil {
		return "", &NoCommonAncestorError{Head: a, Parent: b}
	}
	return best.Hash, nil
}

func (m *MockRepository) ListCommits(_ context.Context, from, excluding string) ([]models.Commit, error) {
	if m.ListCommitsError != nil {
		return nil, m.ListCommitsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	fromHash, err := m.resolve(from)
	if err != nil {
		return nil, err
	}

	excluded := map[string]bool{}
	if excluding != "" {
		excludingHash, err := m.resolve(excluding)
		if err != nil {
			return nil, err
		}
		excluded = m.ancestors(excludingHash)
	}

	var selected []*MockCommit
	for hash := range m.ancestors(fromHash) {
		if excluded[hash] {
			continue
		}
		selected = append(selected, m.commits[hash])
	}

	// Oldest first; creation order is a valid topological order
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].seq < selected[j].seq
	})

	commits := make([]models.Commit, 0, len(selected))
	for _, c := range selected {
		commits = append(commits, models.Commit{
			ID:        c.Hash,
			Message:   c.Message,
			Timestamp: c.Timestamp,
			Author:    c.Author,
		})
	}
	return commits, nil
}

func (m *MockRepository) ListChangedFiles(_ context.Context, commitID string) ([]models.ChangedFile, error) {
	if m.ListChangedFilesError != nil {
		return nil, m.ListChangedFilesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	commit, ok := m.commits[commitID]
	if !ok {
		return nil, accessError("list changed files", m.root, commitID, fmt.Errorf("commit not found"))
	}

	return append([]models.ChangedFile(nil), commit.Files...), nil
}

func (m *MockRepository) ListTags(_ context.Context) ([]Tag, error) {
	if m.ListTagsError != nil {
		return nil, m.ListTagsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]Tag, 0, len(m.tags))
	for _, t := range m.tags {
		tags = append(tags, Tag{
			Name:      t.Name,
			Message:   t.Message,
			CommitID:  t.CommitHash,
			Timestamp: t.Timestamp,
		})
	}
	return tags, nil
}

func shortBranchName(name string) string {
	return strings.TrimPrefix(name, "refs/heads/")
}
