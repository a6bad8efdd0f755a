package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Поддерживаемые СУБД.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Store реализует интерфейс Storage поверх gorm (PostgreSQL или MySQL).
type Store struct {
	db     *gorm.DB
	driver string
}

// Open подключается к базе данных. Миграции не применяются, см. Migrate.
func Open(driver, dsn string, logLevel logger.LogLevel) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		normalized, err := NormalizeMySQLDSN(dsn)
		if err != nil {
			return nil, err
		}
		dialector = gormmysql.Open(normalized)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, driver), nil
}

// New оборачивает уже открытое соединение gorm.
func New(db *gorm.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NormalizeMySQLDSN включает parseTime и multiStatements (нужно для файлов миграций).
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, search string) ([]*domain.User, error) {
	var users []*domain.User
	query := s.db.WithContext(ctx).Order("id")
	if search != "" {
		query = query.Where("LOWER(username) LIKE ?", likePattern(search))
	}
	err := query.Find(&users).Error
	return users, err
}

// === Group Methods ===

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, translate(err)
	}
	return group, nil
}

func (s *Store) GetGroupByID(ctx context.Context, id int64) (*domain.Group, error) {
	var group domain.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	var group domain.Group
	if err := s.db.WithContext(ctx).First(&group, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (s *Store) ListGroups(ctx context.Context, search string) ([]*domain.Group, error) {
	var groups []*domain.Group
	query := s.db.WithContext(ctx).Order("id")
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	err := query.Find(&groups).Error
	return groups, err
}

func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	// Явно обнуляем group_id, не полагаясь на ON DELETE SET NULL
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Group{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("group with id %d: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, translate(err)
	}
	// GORM автоматически заполнит ID и PubDate после создания
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	var existing domain.Post
	// Чтение и запись в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&existing, "id = ?", post.ID).Error; err != nil {
			return err
		}
		existing.Text = post.Text
		existing.GroupID = post.GroupID
		existing.Image = post.Image
		return tx.Omit(clause.Associations).Save(&existing).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &existing, nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post with id %d: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter, args storage.PaginationArgs) ([]*domain.Post, error) {
	var posts []*domain.Post
	query := s.filterPosts(s.db.WithContext(ctx).Model(&domain.Post{}), filter).
		Order("pub_date DESC, id DESC")
	if args.Limit > 0 {
		query = query.Limit(args.Limit)
	}
	if args.Offset > 0 {
		query = query.Offset(args.Offset)
	}
	err := query.Find(&posts).Error
	return posts, err
}

func (s *Store) CountPosts(ctx context.Context, filter storage.PostFilter) (int64, error) {
	var count int64
	err := s.filterPosts(s.db.WithContext(ctx).Model(&domain.Post{}), filter).Count(&count).Error
	return count, err
}

func (s *Store) filterPosts(query *gorm.DB, filter storage.PostFilter) *gorm.DB {
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.FollowerID != nil {
		followed := s.db.Model(&domain.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowerID)
		query = query.Where("author_id IN (?)", followed)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(text) LIKE ?", likePattern(filter.Search))
	}
	if filter.PubAfter != nil {
		query = query.Where("pub_date >= ?", *filter.PubAfter)
	}
	if filter.PubBefore != nil {
		query = query.Where("pub_date < ?", *filter.PubBefore)
	}
	return query
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	// Проверяем существование поста и создаем комментарий в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postCount int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).Count(&postCount).Error; err != nil {
			return err
		}
		if postCount == 0 {
			return fmt.Errorf("post with id %d: %w", comment.PostID, storage.ErrNotFound)
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) ListComments(ctx context.Context, postID *int64) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	query := s.db.WithContext(ctx).Order("created ASC, id ASC")
	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	}
	err := query.Find(&comments).Error
	return comments, err
}

// === Follow Methods ===

func (s *Store) CreateFollow(ctx context.Context, follow *domain.Follow) (*domain.Follow, error) {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error; err != nil {
		return nil, translate(err)
	}
	return follow, nil
}

func (s *Store) DeleteFollow(ctx context.Context, userID, authorID int64) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&domain.Follow{}).Error
}

func (s *Store) IsFollowing(ctx context.Context, userID, authorID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CountFollowers(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (s *Store) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (s *Store) ListFollows(ctx context.Context) ([]*domain.Follow, error) {
	var follows []*domain.Follow
	err := s.db.WithContext(ctx).Order("id").Find(&follows).Error
	return follows, err
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	result := make(map[int64]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []*domain.User
	// Загружаем всех пользователей одним запросом
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) GetGroupsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Group, error) {
	result := make(map[int64]*domain.Group, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var groups []*domain.Group
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, err
	}
	for _, g := range groups {
		result[g.ID] = g
	}
	return result, nil
}

// translate приводит ошибки драйверов к ошибкам пакета storage.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", storage.ErrAlreadyExists, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
