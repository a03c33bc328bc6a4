package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"message-service/internal/apperror"
	"message-service/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	Create(ctx context.Context, group models.Group) (models.Group, error)
	Get(ctx context.Context, groupID int) (models.Group, error)
	IsMember(ctx context.Context, groupID int, username string) (bool, error)
	AddMember(ctx context.Context, groupID int, username string) error
	RemoveMember(ctx context.Context, groupID int, username string) error
	ListGroupsForUser(ctx context.Context, username string) ([]models.Group, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Create inserts the group and its owner membership atomically. A reused id
// surfaces as a validation error with the exact client-facing text.
func (r *GroupRepo) Create(ctx context.Context, group models.Group) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (id, name, description, owner) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		group.ID, group.Name, group.Description, group.Owner).
		Scan(&group.CreatedAt)
	if isUniqueViolation(err) {
		return models.Group{}, apperror.NewValidation("id already exists!", err)
	}
	if err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, username) VALUES ($1, $2)`,
		group.ID, group.Owner); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// Get fetches a single group.
func (r *GroupRepo) Get(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, description, owner, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND username=$2)`, groupID, username)
	return exists, err
}

// AddMember adds a user to a group. Re-adding an existing member is a no-op.
func (r *GroupRepo) AddMember(ctx context.Context, groupID int, username string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		groupID, username)
	return err
}

// RemoveMember removes a user from a group.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID int, username string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND username=$2`, groupID, username)
	return err
}

// ListGroupsForUser returns the groups the user is a member of.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, username string) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.db.SelectContext(ctx, &groups,
		`SELECT g.id, g.name, g.description, g.owner, g.created_at
         FROM groups g
         INNER JOIN group_members gm ON gm.group_id = g.id
         WHERE gm.username=$1
         ORDER BY g.created_at DESC`, username)
	return groups, err
}
