package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются копии записей, чтобы вызывающий код не менял состояние хранилища.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*domain.User
	groups   map[int64]*domain.Group
	posts    map[int64]*domain.Post
	comments map[int64]*domain.Comment
	follows  map[int64]*domain.Follow

	commentsByPost map[int64][]int64 // map[postID][]commentID
	now            func() time.Time
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:          make(map[int64]*domain.User),
		groups:         make(map[int64]*domain.Group),
		posts:          make(map[int64]*domain.Post),
		comments:       make(map[int64]*domain.Comment),
		follows:        make(map[int64]*domain.Follow),
		commentsByPost: make(map[int64][]int64),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("username %q: %w", user.Username, storage.ErrAlreadyExists)
		}
	}
	u := *user
	u.ID = s.id()
	u.DateJoined = s.now()
	s.users[u.ID] = &u
	user.ID, user.DateJoined = u.ID, u.DateJoined
	return cloneUser(&u), nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %d: %w", id, storage.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
}

func (s *Store) ListUsers(ctx context.Context, search string) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		if containsFold(u.Username, search) {
			result = append(result, cloneUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// === Group Methods ===

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Slug == group.Slug {
			return nil, fmt.Errorf("group slug %q: %w", group.Slug, storage.ErrAlreadyExists)
		}
	}
	g := *group
	g.ID = s.id()
	s.groups[g.ID] = &g
	group.ID = g.ID
	return cloneGroup(&g), nil
}

func (s *Store) GetGroupByID(ctx context.Context, id int64) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group with id %d: %w", id, storage.ErrNotFound)
	}
	return cloneGroup(g), nil
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.Slug == slug {
			return cloneGroup(g), nil
		}
	}
	return nil, fmt.Errorf("group %q: %w", slug, storage.ErrNotFound)
}

func (s *Store) ListGroups(ctx context.Context, search string) ([]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Group, 0, len(s.groups))
	for _, g := range s.groups {
		if containsFold(g.Title, search) || containsFold(g.Description, search) {
			result = append(result, cloneGroup(g))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("group with id %d: %w", id, storage.ErrNotFound)
	}
	delete(s.groups, id)
	// ON DELETE SET NULL
	for _, p := range s.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
		}
	}
	return nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPostRefs(post); err != nil {
		return nil, err
	}
	p := clonePost(post)
	p.ID = s.id()
	p.PubDate = s.now()
	s.posts[p.ID] = p
	post.ID, post.PubDate = p.ID, p.PubDate
	return clonePost(p), nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %d: %w", id, storage.ErrNotFound)
	}
	return clonePost(post), nil
}

func (s *Store) UpdatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[post.ID]
	if !ok {
		return nil, fmt.Errorf("post with id %d: %w", post.ID, storage.ErrNotFound)
	}
	if err := s.checkPostRefs(post); err != nil {
		return nil, err
	}
	existing.Text = post.Text
	existing.GroupID = cloneID(post.GroupID)
	existing.Image = post.Image
	return clonePost(existing), nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post with id %d: %w", id, storage.ErrNotFound)
	}
	delete(s.posts, id)
	// ON DELETE CASCADE
	for _, cID := range s.commentsByPost[id] {
		delete(s.comments, cID)
	}
	delete(s.commentsByPost, id)
	return nil
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter, args storage.PaginationArgs) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filterPosts(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PubDate.Equal(matched[j].PubDate) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].PubDate.After(matched[j].PubDate)
	})

	start := args.Offset
	if start >= len(matched) {
		return []*domain.Post{}, nil
	}
	end := len(matched)
	if args.Limit > 0 && start+args.Limit < end {
		end = start + args.Limit
	}

	result := make([]*domain.Post, 0, end-start)
	for _, p := range matched[start:end] {
		result = append(result, clonePost(p))
	}
	return result, nil
}

func (s *Store) CountPosts(ctx context.Context, filter storage.PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.filterPosts(filter))), nil
}

func (s *Store) filterPosts(filter storage.PostFilter) []*domain.Post {
	var followed map[int64]bool
	if filter.FollowerID != nil {
		followed = make(map[int64]bool)
		for _, f := range s.follows {
			if f.UserID == *filter.FollowerID {
				followed[f.AuthorID] = true
			}
		}
	}

	matched := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.GroupID != nil && (p.GroupID == nil || *p.GroupID != *filter.GroupID) {
			continue
		}
		if followed != nil && !followed[p.AuthorID] {
			continue
		}
		if !containsFold(p.Text, filter.Search) {
			continue
		}
		if filter.PubAfter != nil && p.PubDate.Before(*filter.PubAfter) {
			continue
		}
		if filter.PubBefore != nil && !p.PubDate.Before(*filter.PubBefore) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

func (s *Store) checkPostRefs(post *domain.Post) error {
	if _, ok := s.users[post.AuthorID]; !ok {
		return fmt.Errorf("author with id %d: %w", post.AuthorID, storage.ErrNotFound)
	}
	if post.GroupID != nil {
		if _, ok := s.groups[*post.GroupID]; !ok {
			return fmt.Errorf("group with id %d: %w", *post.GroupID, storage.ErrNotFound)
		}
	}
	return nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("post with id %d: %w", comment.PostID, storage.ErrNotFound)
	}
	if _, ok := s.users[comment.AuthorID]; !ok {
		return nil, fmt.Errorf("author with id %d: %w", comment.AuthorID, storage.ErrNotFound)
	}

	c := *comment
	c.Author = nil
	c.ID = s.id()
	c.Created = s.now()
	s.comments[c.ID] = &c
	s.commentsByPost[c.PostID] = append(s.commentsByPost[c.PostID], c.ID)

	comment.ID, comment.Created = c.ID, c.Created
	cp := c
	return &cp, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByPost[postID]
	result := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			cp := *c
			result = append(result, &cp)
		}
	}
	sortComments(result)
	return result, nil
}

func (s *Store) ListComments(ctx context.Context, postID *int64) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if postID != nil && c.PostID != *postID {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sortComments(result)
	return result, nil
}

// === Follow Methods ===

func (s *Store) CreateFollow(ctx context.Context, follow *domain.Follow) (*domain.Follow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.follows {
		if f.UserID == follow.UserID && f.AuthorID == follow.AuthorID {
			return nil, fmt.Errorf("follow %d -> %d: %w", follow.UserID, follow.AuthorID, storage.ErrAlreadyExists)
		}
	}
	f := domain.Follow{ID: s.id(), UserID: follow.UserID, AuthorID: follow.AuthorID}
	s.follows[f.ID] = &f
	follow.ID = f.ID
	cp := f
	return &cp, nil
}

func (s *Store) DeleteFollow(ctx context.Context, userID, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, f := range s.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			delete(s.follows, id)
		}
	}
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, userID, authorID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountFollowers(ctx context.Context, authorID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.follows {
		if f.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.follows {
		if f.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListFollows(ctx context.Context) ([]*domain.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Follow, 0, len(s.follows))
	for _, f := range s.follows {
		cp := *f
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = cloneUser(u)
		}
	}
	return result, nil
}

func (s *Store) GetGroupsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*domain.Group, len(ids))
	for _, id := range ids {
		if g, ok := s.groups[id]; ok {
			result[id] = cloneGroup(g)
		}
	}
	return result, nil
}

func sortComments(comments []*domain.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Created.Equal(comments[j].Created) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Created.Before(comments[j].Created)
	})
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	return &cp
}

func cloneGroup(g *domain.Group) *domain.Group {
	cp := *g
	return &cp
}

func clonePost(p *domain.Post) *domain.Post {
	cp := *p
	cp.GroupID = cloneID(p.GroupID)
	cp.Author, cp.Group, cp.Comments = nil, nil, nil
	return &cp
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
