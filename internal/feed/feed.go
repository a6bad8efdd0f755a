// Package feed собирает ленты постов и страницу поста.
package feed

import (
	"context"
	"fmt"

	"github.com/UkralStul/yatube/internal/dataloader"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/paginate"
	"github.com/UkralStul/yatube/internal/storage"
)

// Page - страница ленты. У каждого поста заполнены Author и Group.
type Page struct {
	paginate.Page
	Posts []*domain.Post
}

// GroupPage - лента сообщества.
type GroupPage struct {
	Page
	Group *domain.Group
}

// ProfilePage - лента автора.
type ProfilePage struct {
	Page
	Author         *domain.User
	Following      bool
	PostCount      int64
	FollowerCount  int64
	FollowingCount int64
}

// Detail - пост с комментариями.
type Detail struct {
	Post            *domain.Post
	Comments        []*domain.Comment
	AuthorPostCount int64
}

// Service собирает ленты из хранилища.
type Service struct {
	store   storage.Storage
	perPage int
}

func NewService(store storage.Storage, perPage int) *Service {
	if perPage <= 0 {
		perPage = paginate.DefaultPerPage
	}
	return &Service{store: store, perPage: perPage}
}

// Index - все посты.
func (s *Service) Index(ctx context.Context, rawPage string) (*Page, error) {
	return s.list(ctx, storage.PostFilter{}, rawPage)
}

// Group - посты сообщества. Неизвестный slug дает storage.ErrNotFound.
func (s *Service) Group(ctx context.Context, slug, rawPage string) (*GroupPage, error) {
	group, err := s.store.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	page, err := s.list(ctx, storage.PostFilter{GroupID: &group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Page: *page, Group: group}, nil
}

// Profile - посты автора. viewer может быть nil.
func (s *Service) Profile(ctx context.Context, username string, viewer *domain.User, rawPage string) (*ProfilePage, error) {
	author, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := s.list(ctx, storage.PostFilter{AuthorID: &author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	profile := &ProfilePage{Page: *page, Author: author, PostCount: page.Total}
	if viewer != nil {
		if profile.Following, err = s.store.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return nil, fmt.Errorf("check following: %w", err)
		}
	}
	if profile.FollowerCount, err = s.store.CountFollowers(ctx, author.ID); err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	if profile.FollowingCount, err = s.store.CountFollowing(ctx, author.ID); err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}
	return profile, nil
}

// Follow - посты авторов, на которых подписан viewer.
func (s *Service) Follow(ctx context.Context, viewer *domain.User, rawPage string) (*Page, error) {
	return s.list(ctx, storage.PostFilter{FollowerID: &viewer.ID}, rawPage)
}

// Post возвращает пост с комментариями от старых к новым.
func (s *Service) Post(ctx context.Context, id int64) (*Detail, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.GetCommentsByPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	userIDs := []int64{post.AuthorID}
	for _, c := range comments {
		userIDs = append(userIDs, c.AuthorID)
	}
	loaders := dataloader.For(ctx, s.store)
	users, err := loaders.Users(ctx, unique(userIDs))
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	post.Author = users[post.AuthorID]
	for _, c := range comments {
		c.Author = users[c.AuthorID]
	}
	if post.GroupID != nil {
		groups, err := loaders.Groups(ctx, []int64{*post.GroupID})
		if err != nil {
			return nil, fmt.Errorf("load group: %w", err)
		}
		post.Group = groups[*post.GroupID]
	}

	count, err := s.store.CountPosts(ctx, storage.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	return &Detail{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

func (s *Service) list(ctx context.Context, filter storage.PostFilter, rawPage string) (*Page, error) {
	total, err := s.store.CountPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	page := paginate.New(rawPage, total, s.perPage)

	posts, err := s.store.ListPosts(ctx, filter, storage.PaginationArgs{Limit: page.Limit(), Offset: page.Offset()})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if err := s.attach(ctx, posts); err != nil {
		return nil, err
	}
	return &Page{Page: page, Posts: posts}, nil
}

// attach подгружает авторов и группы постов батчами.
func (s *Service) attach(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	var userIDs, groupIDs []int64
	for _, p := range posts {
		userIDs = append(userIDs, p.AuthorID)
		if p.GroupID != nil {
			groupIDs = append(groupIDs, *p.GroupID)
		}
	}

	loaders := dataloader.For(ctx, s.store)
	users, err := loaders.Users(ctx, unique(userIDs))
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	groups, err := loaders.Groups(ctx, unique(groupIDs))
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	for _, p := range posts {
		p.Author = users[p.AuthorID]
		if p.GroupID != nil {
			p.Group = groups[*p.GroupID]
		}
	}
	return nil
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
