// Package mongo provides a MongoDB-backed vcs.Store for multi-process
// deployments.
//
// Branch heads move through conditional updates (matched-count zero means
// the compare-and-swap lost), and AppendAndAdvance runs inside a causally
// consistent transaction, which requires the server to be a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/branchline/branchline/pkg/vcs"
)

const (
	branchesCollection = "branches"
	commitsCollection  = "commits"
)

// Store is a MongoDB-backed vcs.Store.
type Store struct {
	client   *mongo.Client
	branches *mongo.Collection
	commits  *mongo.Collection
}

// Open connects to MongoDB and prepares the collections and indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		branches: db.Collection(branchesCollection),
		commits:  db.Collection(commitsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.branches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "playbook_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.commits.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "branch_id", Value: 1}, {Key: "version", Value: -1}},
	})
	return err
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// AppendCommit stores a new commit after checking parent references.
func (s *Store) AppendCommit(ctx context.Context, c *vcs.Commit) error {
	if err := s.checkParents(ctx, c); err != nil {
		return err
	}
	_, err := s.commits.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return vcs.ErrDuplicateCommit
	}
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

func (s *Store) checkParents(ctx context.Context, c *vcs.Commit) error {
	for _, parent := range c.ParentIDs() {
		n, err := s.commits.CountDocuments(ctx, bson.M{"_id": parent})
		if err != nil {
			return fmt.Errorf("check parent: %w", err)
		}
		if n == 0 {
			return vcs.ErrParentMissing
		}
	}
	return nil
}

// Commit returns the commit with the given ID.
func (s *Store) Commit(ctx context.Context, id string) (*vcs.Commit, error) {
	var c vcs.Commit
	err := s.commits.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, vcs.ErrCommitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find commit: %w", err)
	}
	return &c, nil
}

// Parents returns the parent IDs of the commit.
func (s *Store) Parents(ctx context.Context, id string) ([]string, error) {
	var doc struct {
		ParentCommitID      string `bson:"parent_commit_id"`
		MergeParentCommitID string `bson:"merge_parent_commit_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{
		"parent_commit_id":       1,
		"merge_parent_commit_id": 1,
	})
	err := s.commits.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, vcs.ErrCommitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find parents: %w", err)
	}

	var ids []string
	if doc.ParentCommitID != "" {
		ids = append(ids, doc.ParentCommitID)
		if doc.MergeParentCommitID != "" {
			ids = append(ids, doc.MergeParentCommitID)
		}
	}
	return ids, nil
}

// MaxVersion returns the highest version recorded on the branch, 0 if none.
func (s *Store) MaxVersion(ctx context.Context, branchID string) (int, error) {
	var doc struct {
		Version int `bson:"version"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "version", Value: -1}}).
		SetProjection(bson.M{"version": 1})
	err := s.commits.FindOne(ctx, bson.M{"branch_id": branchID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find max version: %w", err)
	}
	return doc.Version, nil
}

// CreateBranch registers a new branch. The unique (playbook_id, name)
// index enforces name uniqueness.
func (s *Store) CreateBranch(ctx context.Context, b *vcs.Branch) error {
	_, err := s.branches.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return vcs.ErrBranchExists
	}
	if err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}
	return nil
}

// Branch returns the branch with the given ID.
func (s *Store) Branch(ctx context.Context, id string) (*vcs.Branch, error) {
	return s.findBranch(ctx, bson.M{"_id": id})
}

// BranchByName resolves a branch by playbook and name.
func (s *Store) BranchByName(ctx context.Context, playbookID, name string) (*vcs.Branch, error) {
	return s.findBranch(ctx, bson.M{"playbook_id": playbookID, "name": name})
}

func (s *Store) findBranch(ctx context.Context, filter bson.M) (*vcs.Branch, error) {
	var b vcs.Branch
	err := s.branches.FindOne(ctx, filter).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, vcs.ErrBranchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find branch: %w", err)
	}
	return &b, nil
}

// Branches lists the playbook's branches in creation order.
func (s *Store) Branches(ctx context.Context, playbookID string) ([]*vcs.Branch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.branches.Find(ctx, bson.M{"playbook_id": playbookID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find branches: %w", err)
	}
	defer cur.Close(ctx)

	var out []*vcs.Branch
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode branches: %w", err)
	}
	return out, nil
}

// SetProtected toggles the protection flag.
func (s *Store) SetProtected(ctx context.Context, id string, protected bool) error {
	res, err := s.branches.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_protected": protected}})
	if err != nil {
		return fmt.Errorf("update protection: %w", err)
	}
	if res.MatchedCount == 0 {
		return vcs.ErrBranchNotFound
	}
	return nil
}

// CompareAndSwapHead moves the branch head if it still matches oldHead.
func (s *Store) CompareAndSwapHead(ctx context.Context, branchID, oldHead, newHead string) error {
	return s.casHead(ctx, branchID, oldHead, newHead)
}

// casHead performs the guarded head update. A zero match is disambiguated
// into branch-missing versus head-moved.
func (s *Store) casHead(ctx context.Context, branchID, oldHead, newHead string) error {
	res, err := s.branches.UpdateOne(ctx,
		bson.M{"_id": branchID, "head_commit_id": oldHead},
		bson.M{"$set": bson.M{"head_commit_id": newHead}})
	if err != nil {
		return fmt.Errorf("update head: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.branches.CountDocuments(ctx, bson.M{"_id": branchID})
	if err != nil {
		return fmt.Errorf("check branch: %w", err)
	}
	if n == 0 {
		return vcs.ErrBranchNotFound
	}
	return vcs.ErrHeadMoved
}

// AppendAndAdvance appends the commit and advances its branch head inside
// one transaction. Requires a replica-set deployment.
func (s *Store) AppendAndAdvance(ctx context.Context, c *vcs.Commit, expectedOldHead string) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		// Head check first: a lost race aborts before the commit exists.
		if err := s.casHead(sc, c.BranchID, expectedOldHead, c.ID); err != nil {
			return nil, err
		}
		if err := s.AppendCommit(sc, c); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// Ensure Store implements vcs.Store.
var _ vcs.Store = (*Store)(nil)
