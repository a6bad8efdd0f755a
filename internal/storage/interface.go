package storage

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
)

var (
	// ErrNotFound возвращается, когда запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists возвращается при нарушении уникальности.
	ErrAlreadyExists = errors.New("record already exists")
)

// PostFilter задаёт область выборки ленты. Пустой фильтр - все посты.
type PostFilter struct {
	AuthorID   *int64
	GroupID    *int64
	FollowerID *int64 // посты авторов, на которых подписан пользователь

	// Поля ниже используются только операторским CLI.
	Search    string
	PubAfter  *time.Time
	PubBefore *time.Time
}

// PaginationArgs - аргументы для постраничной выборки.
type PaginationArgs struct {
	Limit  int
	Offset int
}

// Storage определяет контракт для хранилищ.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context, search string) ([]*domain.User, error)

	CreateGroup(ctx context.Context, group *domain.Group) (*domain.Group, error)
	GetGroupByID(ctx context.Context, id int64) (*domain.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error)
	ListGroups(ctx context.Context, search string) ([]*domain.Group, error)
	// DeleteGroup удаляет группу; посты остаются, их группа обнуляется.
	DeleteGroup(ctx context.Context, id int64) error

	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id int64) (*domain.Post, error)
	// UpdatePost перезаписывает текст, группу и картинку. PubDate не меняется.
	UpdatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	// DeletePost удаляет пост вместе с комментариями.
	DeletePost(ctx context.Context, id int64) error
	// ListPosts возвращает посты от новых к старым.
	ListPosts(ctx context.Context, filter PostFilter, args PaginationArgs) ([]*domain.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	// GetCommentsByPostID возвращает комментарии от старых к новым.
	GetCommentsByPostID(ctx context.Context, postID int64) ([]*domain.Comment, error)
	ListComments(ctx context.Context, postID *int64) ([]*domain.Comment, error)

	// CreateFollow возвращает ErrAlreadyExists, если ребро уже есть.
	CreateFollow(ctx context.Context, follow *domain.Follow) (*domain.Follow, error)
	DeleteFollow(ctx context.Context, userID, authorID int64) error
	IsFollowing(ctx context.Context, userID, authorID int64) (bool, error)
	CountFollowers(ctx context.Context, authorID int64) (int64, error)
	CountFollowing(ctx context.Context, userID int64) (int64, error)
	ListFollows(ctx context.Context) ([]*domain.Follow, error)

	// Методы для Dataloader'ов
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	GetGroupsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Group, error)
}
