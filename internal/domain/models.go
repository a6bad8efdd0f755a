package domain

import (
	"time"
	"unicode/utf8"
)

// Длина превью текста в String() для постов и комментариев.
const previewLength = 15

// User представляет зарегистрированного пользователя.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"type:varchar(150);not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string    `json:"firstName" gorm:"type:varchar(150)"`
	LastName     string    `json:"lastName" gorm:"type:varchar(150)"`
	IsStaff      bool      `json:"isStaff" gorm:"not null;default:false"`
	DateJoined   time.Time `json:"dateJoined" gorm:"not null;autoCreateTime"`
}

// FullName возвращает имя и фамилию, либо username, если они не заданы.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) String() string { return u.Username }

// Group - сообщество, к которому можно привязать пост.
type Group struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:text;not null"`
}

func (g *Group) String() string { return g.Title }

// Post представляет пост в ленте.
type Post struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pubDate" gorm:"not null;index;autoCreateTime"`
	AuthorID int64     `json:"authorId" gorm:"not null;index"`
	GroupID  *int64    `json:"groupId,omitempty" gorm:"index"`
	Image    string    `json:"image,omitempty" gorm:"type:varchar(255)"`

	Author   *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Group    *Group     `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Comments []*Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
}

func (p *Post) String() string { return preview(p.Text) }

// Comment - комментарий к посту.
type Comment struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID   int64     `json:"postId" gorm:"not null;index"`
	AuthorID int64     `json:"authorId" gorm:"not null;index"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Created  time.Time `json:"created" gorm:"not null;autoCreateTime"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (c *Comment) String() string { return preview(c.Text) }

// Follow - направленное ребро "подписчик -> автор".
// Пара (UserID, AuthorID) уникальна.
type Follow struct {
	ID       int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID   int64 `json:"userId" gorm:"not null;uniqueIndex:idx_follows_user_author"`
	AuthorID int64 `json:"authorId" gorm:"not null;uniqueIndex:idx_follows_user_author;index"`

	User   *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	return string([]rune(s)[:previewLength])
}
