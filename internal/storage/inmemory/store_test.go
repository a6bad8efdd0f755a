// internal/storage/inmemory/store_test.go

package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище с автором, группой и одним постом
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.Group, *domain.Post) {
	store := New()
	ctx := context.Background()

	author, err := store.CreateUser(ctx, &domain.User{Username: "author"})
	require.NoError(t, err)
	group, err := store.CreateGroup(ctx, &domain.Group{Title: "title", Slug: "slug", Description: "description"})
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, &domain.Post{Text: "text", AuthorID: author.ID, GroupID: &group.ID})
	require.NoError(t, err)
	return store, author, group, post
}

func TestStore_CreateAndGetPost(t *testing.T) {
	store, author, group, post := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "text", retrieved.Text)
	assert.Equal(t, author.ID, retrieved.AuthorID)
	require.NotNil(t, retrieved.GroupID)
	assert.Equal(t, group.ID, *retrieved.GroupID)
	assert.False(t, retrieved.PubDate.IsZero())

	_, err = store.GetPostByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreatePost_UnknownGroup(t *testing.T) {
	store, author, _, _ := newTestStore(t)
	missing := int64(999)

	_, err := store.CreatePost(context.Background(), &domain.Post{Text: "x", AuthorID: author.ID, GroupID: &missing})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_UniqueUsernameAndSlug(t *testing.T) {
	store, _, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &domain.User{Username: "author"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.CreateGroup(ctx, &domain.Group{Title: "other", Slug: "slug"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestStore_UpdatePost_KeepsPubDate(t *testing.T) {
	store, author, _, post := newTestStore(t)
	ctx := context.Background()

	updated, err := store.UpdatePost(ctx, &domain.Post{ID: post.ID, Text: "edited", AuthorID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, "edited", updated.Text)
	assert.Nil(t, updated.GroupID)
	assert.Equal(t, post.PubDate, updated.PubDate)

	count, err := store.CountPosts(ctx, storage.PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStore_DeleteGroup_ClearsPostGroup(t *testing.T) {
	store, _, group, post := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteGroup(ctx, group.ID))

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved.GroupID)

	_, err = store.GetGroupBySlug(ctx, "slug")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_DeletePost_CascadesComments(t *testing.T) {
	store, author, _, post := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: author.ID, Text: "comment"})
		require.NoError(t, err)
	}

	require.NoError(t, store.DeletePost(ctx, post.ID))

	comments, err := store.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	all, err := store.ListComments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, store.DeletePost(ctx, post.ID), storage.ErrNotFound)
}

func TestStore_CommentsOrderedOldestFirst(t *testing.T) {
	store, author, _, post := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: author.ID, Text: "first"})
	require.NoError(t, err)
	second, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: author.ID, Text: "second"})
	require.NoError(t, err)

	comments, err := store.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: 999, AuthorID: author.ID, Text: "orphan"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ListPosts_NewestFirstAndPagination(t *testing.T) {
	store, author, _, _ := newTestStore(t)
	ctx := context.Background()

	// Создаем еще 12 постов, всего 13
	var last *domain.Post
	for i := 0; i < 12; i++ {
		p, err := store.CreatePost(ctx, &domain.Post{Text: "post", AuthorID: author.ID})
		require.NoError(t, err)
		last = p
	}

	firstPage, err := store.ListPosts(ctx, storage.PostFilter{}, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, firstPage, 10)
	assert.Equal(t, last.ID, firstPage[0].ID)

	secondPage, err := store.ListPosts(ctx, storage.PostFilter{}, storage.PaginationArgs{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, secondPage, 3)

	empty, err := store.ListPosts(ctx, storage.PostFilter{}, storage.PaginationArgs{Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_ListPosts_Filters(t *testing.T) {
	store, author, group, post := newTestStore(t)
	ctx := context.Background()

	other, err := store.CreateUser(ctx, &domain.User{Username: "other"})
	require.NoError(t, err)
	otherPost, err := store.CreatePost(ctx, &domain.Post{Text: "Другой текст", AuthorID: other.ID})
	require.NoError(t, err)

	byGroup, err := store.ListPosts(ctx, storage.PostFilter{GroupID: &group.ID}, storage.PaginationArgs{})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, post.ID, byGroup[0].ID)

	byAuthor, err := store.ListPosts(ctx, storage.PostFilter{AuthorID: &other.ID}, storage.PaginationArgs{})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, otherPost.ID, byAuthor[0].ID)

	bySearch, err := store.ListPosts(ctx, storage.PostFilter{Search: "другой"}, storage.PaginationArgs{})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)

	tomorrow := time.Now().Add(24 * time.Hour)
	future, err := store.CountPosts(ctx, storage.PostFilter{PubAfter: &tomorrow})
	require.NoError(t, err)
	assert.Zero(t, future)

	// Лента подписок: пусто, пока нет подписок
	feed, err := store.ListPosts(ctx, storage.PostFilter{FollowerID: &author.ID}, storage.PaginationArgs{})
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = store.CreateFollow(ctx, &domain.Follow{UserID: author.ID, AuthorID: other.ID})
	require.NoError(t, err)

	feed, err = store.ListPosts(ctx, storage.PostFilter{FollowerID: &author.ID}, storage.PaginationArgs{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, otherPost.ID, feed[0].ID)
}

func TestStore_FollowIsUniqueAndUnfollowRestoresCount(t *testing.T) {
	store, author, _, _ := newTestStore(t)
	ctx := context.Background()

	follower, err := store.CreateUser(ctx, &domain.User{Username: "follower"})
	require.NoError(t, err)

	_, err = store.CreateFollow(ctx, &domain.Follow{UserID: follower.ID, AuthorID: author.ID})
	require.NoError(t, err)
	_, err = store.CreateFollow(ctx, &domain.Follow{UserID: follower.ID, AuthorID: author.ID})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	follows, err := store.ListFollows(ctx)
	require.NoError(t, err)
	assert.Len(t, follows, 1)

	ok, err := store.IsFollowing(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	followers, err := store.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, followers)

	require.NoError(t, store.DeleteFollow(ctx, follower.ID, author.ID))
	// Повторная отписка - не ошибка
	require.NoError(t, store.DeleteFollow(ctx, follower.ID, author.ID))

	follows, err = store.ListFollows(ctx)
	require.NoError(t, err)
	assert.Empty(t, follows)
}

func TestStore_BatchLookups(t *testing.T) {
	store, author, group, _ := newTestStore(t)
	ctx := context.Background()

	users, err := store.GetUsersByIDs(ctx, []int64{author.ID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "author", users[author.ID].Username)

	groups, err := store.GetGroupsByIDs(ctx, []int64{group.ID})
	require.NoError(t, err)
	assert.Equal(t, "slug", groups[group.ID].Slug)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store, _, _, post := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	retrieved.Text = "mutated"

	again, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "text", again.Text)
}
