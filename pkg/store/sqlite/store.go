// Package sqlite provides a SQLite-backed vcs.Store for single-host
// deployments and the CLI.
//
// SQLite's single-writer model pairs naturally with the compare-and-swap
// head protocol: AppendAndAdvance runs the head check, the commit insert,
// and the head update inside one immediate transaction, so a lost race is
// detected before anything is written.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/branchline/branchline/pkg/graph"
	"github.com/branchline/branchline/pkg/vcs"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is how timestamps are stored; RFC 3339 text sorts correctly.
const timeLayout = time.RFC3339Nano

// Store is a SQLite-backed vcs.Store.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies
// the schema. The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Open is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent engine calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendCommit stores a new commit after checking ID uniqueness and parent
// references inside one transaction.
func (s *Store) AppendCommit(ctx context.Context, c *vcs.Commit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertCommit(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

// insertCommit validates and writes one commit row within tx.
func insertCommit(ctx context.Context, tx *sql.Tx, c *vcs.Commit) error {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM commits WHERE id = ?)`, c.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check commit id: %w", err)
	}
	if exists {
		return vcs.ErrDuplicateCommit
	}
	for _, parent := range c.ParentIDs() {
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM commits WHERE id = ?)`, parent).Scan(&exists); err != nil {
			return fmt.Errorf("check parent: %w", err)
		}
		if !exists {
			return vcs.ErrParentMissing
		}
	}

	graphJSON, err := json.Marshal(c.Graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO commits (id, playbook_id, branch_id, version, graph, message,
			parent_commit_id, merge_parent_commit_id, author_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PlaybookID, c.BranchID, c.Version, string(graphJSON), c.Message,
		nullable(c.ParentCommitID), nullable(c.MergeParentCommitID),
		c.AuthorID, c.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

// Commit returns the commit with the given ID.
func (s *Store) Commit(ctx context.Context, id string) (*vcs.Commit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, playbook_id, branch_id, version, graph, message,
			parent_commit_id, merge_parent_commit_id, author_id, created_at
		FROM commits WHERE id = ?`, id)
	return scanCommit(row)
}

func scanCommit(row *sql.Row) (*vcs.Commit, error) {
	var (
		c           vcs.Commit
		graphJSON   string
		parent      sql.NullString
		mergeParent sql.NullString
		createdAt   string
	)
	err := row.Scan(&c.ID, &c.PlaybookID, &c.BranchID, &c.Version, &graphJSON,
		&c.Message, &parent, &mergeParent, &c.AuthorID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, vcs.ErrCommitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan commit: %w", err)
	}

	var g graph.Graph
	if err := json.Unmarshal([]byte(graphJSON), &g); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	c.Graph = g
	c.ParentCommitID = parent.String
	c.MergeParentCommitID = mergeParent.String
	if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &c, nil
}

// Parents returns the parent IDs of the commit.
func (s *Store) Parents(ctx context.Context, id string) ([]string, error) {
	var parent, mergeParent sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT parent_commit_id, merge_parent_commit_id FROM commits WHERE id = ?`, id).
		Scan(&parent, &mergeParent)
	if err == sql.ErrNoRows {
		return nil, vcs.ErrCommitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query parents: %w", err)
	}

	var ids []string
	if parent.Valid && parent.String != "" {
		ids = append(ids, parent.String)
		if mergeParent.Valid && mergeParent.String != "" {
			ids = append(ids, mergeParent.String)
		}
	}
	return ids, nil
}

// MaxVersion returns the highest version recorded on the branch, 0 if none.
func (s *Store) MaxVersion(ctx context.Context, branchID string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM commits WHERE branch_id = ?`, branchID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("query max version: %w", err)
	}
	return v, nil
}

// CreateBranch registers a new branch.
func (s *Store) CreateBranch(ctx context.Context, b *vcs.Branch) error {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM branches WHERE playbook_id = ? AND name = ?)`,
		b.PlaybookID, b.Name).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check branch name: %w", err)
	}
	if taken {
		return vcs.ErrBranchExists
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO branches (id, playbook_id, name, parent_branch_id,
			is_protected, head_commit_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PlaybookID, b.Name, nullable(b.ParentBranchID),
		b.IsProtected, nullable(b.HeadCommitID), b.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}
	return nil
}

// Branch returns the branch with the given ID.
func (s *Store) Branch(ctx context.Context, id string) (*vcs.Branch, error) {
	return s.queryBranch(ctx, `WHERE id = ?`, id)
}

// BranchByName resolves a branch by playbook and name.
func (s *Store) BranchByName(ctx context.Context, playbookID, name string) (*vcs.Branch, error) {
	return s.queryBranch(ctx, `WHERE playbook_id = ? AND name = ?`, playbookID, name)
}

func (s *Store) queryBranch(ctx context.Context, where string, args ...any) (*vcs.Branch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, playbook_id, name, parent_branch_id, is_protected,
			head_commit_id, created_at
		FROM branches `+where, args...)

	b, err := scanBranch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, vcs.ErrBranchNotFound
	}
	return b, err
}

func scanBranch(scan func(dest ...any) error) (*vcs.Branch, error) {
	var (
		b         vcs.Branch
		parent    sql.NullString
		head      sql.NullString
		createdAt string
	)
	if err := scan(&b.ID, &b.PlaybookID, &b.Name, &parent, &b.IsProtected, &head, &createdAt); err != nil {
		return nil, err
	}
	b.ParentBranchID = parent.String
	b.HeadCommitID = head.String

	var err error
	if b.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &b, nil
}

// Branches lists the playbook's branches in creation order.
func (s *Store) Branches(ctx context.Context, playbookID string) ([]*vcs.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, playbook_id, name, parent_branch_id, is_protected,
			head_commit_id, created_at
		FROM branches WHERE playbook_id = ? ORDER BY rowid`, playbookID)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var out []*vcs.Branch
	for rows.Next() {
		b, err := scanBranch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetProtected toggles the protection flag.
func (s *Store) SetProtected(ctx context.Context, id string, protected bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE branches SET is_protected = ? WHERE id = ?`, protected, id)
	if err != nil {
		return fmt.Errorf("update protection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return vcs.ErrBranchNotFound
	}
	return nil
}

// CompareAndSwapHead moves the branch head if it still matches oldHead.
func (s *Store) CompareAndSwapHead(ctx context.Context, branchID, oldHead, newHead string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := casHead(ctx, tx, branchID, oldHead, newHead); err != nil {
		return err
	}
	return tx.Commit()
}

// casHead performs the guarded head update within tx. A zero-row update is
// disambiguated into branch-missing versus head-moved.
func casHead(ctx context.Context, tx *sql.Tx, branchID, oldHead, newHead string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE branches SET head_commit_id = ?
		WHERE id = ? AND COALESCE(head_commit_id, '') = ?`,
		newHead, branchID, oldHead)
	if err != nil {
		return fmt.Errorf("update head: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM branches WHERE id = ?)`, branchID).Scan(&exists); err != nil {
		return fmt.Errorf("check branch: %w", err)
	}
	if !exists {
		return vcs.ErrBranchNotFound
	}
	return vcs.ErrHeadMoved
}

// AppendAndAdvance appends the commit and advances its branch head in one
// transaction. The head check runs first, so a lost race writes nothing.
func (s *Store) AppendAndAdvance(ctx context.Context, c *vcs.Commit, expectedOldHead string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := casHead(ctx, tx, c.BranchID, expectedOldHead, c.ID); err != nil {
		return err
	}
	if err := insertCommit(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

// nullable maps an empty string onto SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure Store implements vcs.Store.
var _ vcs.Store = (*Store)(nil)
