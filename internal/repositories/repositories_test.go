package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"message-service/internal/apperror"
	"message-service/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestGroupRepoGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, owner, created_at FROM groups WHERE id=$1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "owner", "created_at"}).
			AddRow(7, "devs", "dev chatter", "alice", created))

	group, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 7, group.ID)
	require.Equal(t, "alice", group.Owner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepoGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, owner, created_at FROM groups WHERE id=$1`)).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "owner", "created_at"}))

	_, err := repo.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestGroupRepoCreateDuplicateID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO groups (id, name, description, owner) VALUES ($1, $2, $3, $4) RETURNING created_at`)).
		WithArgs(7, "devs", "", "alice").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), models.Group{ID: 7, Name: "devs", Owner: "alice"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, "id already exists!", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepoCreateInsertsOwnerMembership(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO groups (id, name, description, owner) VALUES ($1, $2, $3, $4) RETURNING created_at`)).
		WithArgs(7, "devs", "", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO group_members (group_id, username) VALUES ($1, $2)`)).
		WithArgs(7, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	group, err := repo.Create(context.Background(), models.Group{ID: 7, Name: "devs", Owner: "alice"})
	require.NoError(t, err)
	require.Equal(t, 7, group.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepoIsMember(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(7, "alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	member, err := repo.IsMember(context.Background(), 7, "alice")
	require.NoError(t, err)
	require.True(t, member)
}

func TestUserRepoCreateDuplicateUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at`)).
		WithArgs("alice", "", "hash").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), models.User{Username: "alice", PasswordHash: "hash"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, "username already exists!", appErr.Message)
}

func TestUserRepoGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT username, email, password_hash, created_at FROM users`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"username", "email", "password_hash", "created_at"}))

	_, err := repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMessageRepoCreateDuplicateID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(3, 7, "alice", "hello", "normal").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), models.Message{ID: 3, GroupID: 7, Sender: "alice", Text: "hello", Priority: "normal"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, "id already exists!", appErr.Message)
}

func TestMessageRepoListByGroupOrdersBySeq(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	now := time.Now()
	mock.ExpectQuery(`FROM messages WHERE group_id=\$1 ORDER BY seq ASC`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "sender", "text", "priority", "seq", "created_at"}).
			AddRow(5, 7, "alice", "first", "normal", 1, now).
			AddRow(2, 7, "bob", "second", "urgent", 2, now))

	msgs, err := repo.ListByGroup(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, "second", msgs[1].Text)
}
