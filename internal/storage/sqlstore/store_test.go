package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:                 mockDB,
		DriverName:           "postgres",
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return New(db, DriverPostgres), mock
}

func TestStore_GetGroupBySlug(t *testing.T) {
	tests := []struct {
		name        string
		rows        *sqlmock.Rows
		expectedErr error
	}{
		{
			name: "group exists",
			rows: sqlmock.NewRows([]string{"id", "title", "slug", "description"}).
				AddRow(1, "Котики", "cats", "Всё о котиках"),
		},
		{
			name:        "group is missing",
			rows:        sqlmock.NewRows([]string{"id", "title", "slug", "description"}),
			expectedErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery(`SELECT \* FROM "groups" WHERE slug = \$1`).
				WillReturnRows(tt.rows)

			group, err := store.GetGroupBySlug(context.Background(), "cats")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, group)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Котики", group.Title)
				assert.EqualValues(t, 1, group.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_IsFollowing(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		expected bool
	}{
		{name: "user is following", count: 1, expected: true},
		{name: "user is not following", count: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery(`SELECT count\(\*\) FROM "follows" WHERE user_id = \$1 AND author_id = \$2`).
				WithArgs(int64(1), int64(2)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			ok, err := store.IsFollowing(context.Background(), 1, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_CreateFollow_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "follows"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := store.CreateFollow(context.Background(), &domain.Follow{UserID: 1, AuthorID: 2})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteFollow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "follows" WHERE user_id = \$1 AND author_id = \$2`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.DeleteFollow(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteGroup_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET "group_id"=\$1 WHERE group_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "groups" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteGroup(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CountPosts_FollowFeed(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts" WHERE author_id IN \(SELECT .*author_id.* FROM "follows" WHERE user_id = \$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	follower := int64(7)
	count, err := store.CountPosts(context.Background(), storage.PostFilter{FollowerID: &follower})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListPosts_NewestFirst(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "text", "pub_date", "author_id", "group_id", "image"}).
		AddRow(2, "второй", now, 1, 5, "").
		AddRow(1, "первый", now.Add(-time.Hour), 1, 5, "posts/a.png")
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE group_id = \$1 ORDER BY pub_date DESC, id DESC LIMIT`).
		WillReturnRows(rows)

	group := int64(5)
	posts, err := store.ListPosts(context.Background(), storage.PostFilter{GroupID: &group}, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.EqualValues(t, 2, posts[0].ID)
	require.NotNil(t, posts[1].GroupID)
	assert.EqualValues(t, 5, *posts[1].GroupID)
	assert.Equal(t, "posts/a.png", posts[1].Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := NormalizeMySQLDSN("yatube:secret@tcp(localhost:3306)/yatube")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)
	assert.True(t, cfg.MultiStatements)
	assert.Equal(t, "yatube", cfg.DBName)

	_, err = NormalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%100\\%%", likePattern("100%"))
	assert.Equal(t, "%привет%", likePattern("ПРИВЕТ"))
}
