// Package forms разбирает и проверяет данные HTML-форм.
package forms

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"
)

const maxMemory = 8 << 20

// Сообщения об ошибках полей.
const (
	msgRequired      = "Обязательное поле."
	msgInvalidChoice = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."
	msgInvalidImage  = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
	msgImageTooLarge = "Размер файла не должен превышать 5 МБ."
	msgUsername      = "Введите правильное имя пользователя. Оно может содержать только буквы, цифры и знаки @/./+/-/_."
	msgUsernameLong  = "Имя пользователя не может быть длиннее 150 символов."
	msgUsernameTaken = "Пользователь с таким именем уже существует."
	msgPasswordShort = "Пароль должен содержать как минимум 8 символов."
	msgPasswordMatch = "Введенные пароли не совпадают."
	msgInvalidLogin  = "Пожалуйста, введите правильные имя пользователя и пароль."
	msgBadForm       = "Не удалось прочитать данные формы."
	msgImageConflict = "Пожалуйста, загрузите файл или отметьте «Очистить», но не то и другое одновременно."
	msgSlug          = "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса."
	msgSlugTaken     = "Группа с таким slug уже существует."
	msgTooLong       = "Значение не может быть длиннее 200 символов."
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
	maxGroupLength    = 200
)

var (
	usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// UsernameError проверяет имя пользователя и возвращает текст ошибки или "".
func UsernameError(username string) string {
	switch {
	case username == "":
		return msgRequired
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return msgUsernameLong
	case !usernameRe.MatchString(username):
		return msgUsername
	}
	return ""
}

// PasswordError проверяет длину пароля и возвращает текст ошибки или "".
func PasswordError(password string) string {
	switch {
	case password == "":
		return msgRequired
	case utf8.RuneCountInString(password) < minPasswordLength:
		return msgPasswordShort
	}
	return ""
}

// Errors - ошибки по именам полей. Ключ "" - ошибка всей формы.
type Errors map[string]string

// Add запоминает первую ошибку поля.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Get(field string) string {
	return e[field]
}

// GroupLookup - то, что нужно форме поста от хранилища.
type GroupLookup interface {
	GetGroupByID(ctx context.Context, id int64) (*domain.Group, error)
}

// PostForm - форма создания и редактирования поста.
type PostForm struct {
	Text       string
	Group      string
	ClearImage bool
	Image      *Upload
	Errors     Errors

	groupID *int64
}

// NewPostForm возвращает форму, заполненную данными поста.
func NewPostForm(post *domain.Post) *PostForm {
	f := &PostForm{Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.Group = strconv.FormatInt(*post.GroupID, 10)
		}
	}
	return f
}

// ParsePostForm читает поля формы поста из запроса (multipart или urlencoded).
func ParsePostForm(r *http.Request) *PostForm {
	f := &PostForm{Errors: Errors{}}
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			f.Errors.Add("image", msgImageTooLarge)
		} else {
			f.Errors.Add("", msgBadForm)
		}
	}

	f.Text = strings.TrimSpace(r.PostFormValue("text"))
	f.Group = strings.TrimSpace(r.PostFormValue("group"))
	f.ClearImage = r.PostFormValue("image-clear") != ""

	if r.MultipartForm != nil && len(r.MultipartForm.File["image"]) > 0 {
		fh := r.MultipartForm.File["image"][0]
		if fh.Filename != "" || fh.Size > 0 {
			upload, err := ReadImage(fh)
			switch {
			case errors.Is(err, ErrImageTooLarge):
				f.Errors.Add("image", msgImageTooLarge)
			case err != nil:
				f.Errors.Add("image", msgInvalidImage)
			default:
				f.Image = upload
			}
		}
	}
	return f
}

// Validate проверяет поля. Группа должна существовать.
func (f *PostForm) Validate(ctx context.Context, groups GroupLookup) (bool, error) {
	if f.Text == "" {
		f.Errors.Add("text", msgRequired)
	}
	if f.Image != nil && f.ClearImage {
		f.Errors.Add("image", msgImageConflict)
	}

	f.groupID = nil
	if f.Group != "" {
		id, err := strconv.ParseInt(f.Group, 10, 64)
		if err != nil {
			f.Errors.Add("group", msgInvalidChoice)
		} else if _, err := groups.GetGroupByID(ctx, id); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return false, err
			}
			f.Errors.Add("group", msgInvalidChoice)
		} else {
			f.groupID = &id
		}
	}
	return len(f.Errors) == 0, nil
}

// Apply переносит текст и группу в пост. Автор и картинка задаются вызывающим.
func (f *PostForm) Apply(post *domain.Post) {
	post.Text = f.Text
	post.GroupID = f.groupID
}

// SelectedGroup сообщает, выбрана ли группа с данным ID (для шаблона).
func (f *PostForm) SelectedGroup(id int64) bool {
	return f.Group == strconv.FormatInt(id, 10)
}

// CommentForm - форма комментария.
type CommentForm struct {
	Text   string
	Errors Errors
}

// ParseCommentForm читает текст комментария без пробелов по краям.
func ParseCommentForm(r *http.Request) *CommentForm {
	return &CommentForm{
		Text:   strings.TrimSpace(r.PostFormValue("text")),
		Errors: Errors{},
	}
}

func (f *CommentForm) Validate() bool {
	if f.Text == "" {
		f.Errors.Add("text", msgRequired)
	}
	return len(f.Errors) == 0
}

// Comment собирает комментарий. Пост и автор берутся не из формы.
func (f *CommentForm) Comment(postID, authorID int64) *domain.Comment {
	return &domain.Comment{PostID: postID, AuthorID: authorID, Text: f.Text}
}

// UserLookup - то, что нужно форме регистрации от хранилища.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// SignupForm - форма регистрации.
type SignupForm struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
	Password2 string
	Errors    Errors
}

func ParseSignupForm(r *http.Request) *SignupForm {
	return &SignupForm{
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Password:  r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
		Errors:    Errors{},
	}
}

func (f *SignupForm) Validate(ctx context.Context, users UserLookup) (bool, error) {
	if msg := UsernameError(f.Username); msg != "" {
		f.Errors.Add("username", msg)
	} else {
		_, err := users.GetUserByUsername(ctx, f.Username)
		if err == nil {
			f.Errors.Add("username", msgUsernameTaken)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}
	}

	if msg := PasswordError(f.Password); msg != "" {
		f.Errors.Add("password1", msg)
	}
	if f.Password2 == "" {
		f.Errors.Add("password2", msgRequired)
	} else if f.Password != f.Password2 {
		f.Errors.Add("password2", msgPasswordMatch)
	}
	return len(f.Errors) == 0, nil
}

// User собирает пользователя с уже посчитанным хэшем пароля.
func (f *SignupForm) User(passwordHash string) *domain.User {
	return &domain.User{
		Username:     f.Username,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		PasswordHash: passwordHash,
	}
}

// LoginForm - форма входа.
type LoginForm struct {
	Username string
	Password string
	Next     string
	Errors   Errors
}

func ParseLoginForm(r *http.Request) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Next:     r.FormValue("next"),
		Errors:   Errors{},
	}
}

func (f *LoginForm) Validate() bool {
	if f.Username == "" {
		f.Errors.Add("username", msgRequired)
	}
	if f.Password == "" {
		f.Errors.Add("password", msgRequired)
	}
	return len(f.Errors) == 0
}

// Reject отмечает неверные учетные данные.
func (f *LoginForm) Reject() {
	f.Errors.Add("", msgInvalidLogin)
}

// SlugLookup - то, что нужно форме группы от хранилища.
type SlugLookup interface {
	GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error)
}

// GroupForm - данные новой группы.
type GroupForm struct {
	Title       string
	Slug        string
	Description string
	Errors      Errors
}

func NewGroupForm(title, slug, description string) *GroupForm {
	return &GroupForm{
		Title:       strings.TrimSpace(title),
		Slug:        strings.TrimSpace(slug),
		Description: strings.TrimSpace(description),
		Errors:      Errors{},
	}
}

// Validate проверяет заголовок и slug. Slug попадает в адрес страницы группы.
func (f *GroupForm) Validate(ctx context.Context, groups SlugLookup) (bool, error) {
	switch {
	case f.Title == "":
		f.Errors.Add("title", msgRequired)
	case utf8.RuneCountInString(f.Title) > maxGroupLength:
		f.Errors.Add("title", msgTooLong)
	}

	switch {
	case f.Slug == "":
		f.Errors.Add("slug", msgRequired)
	case utf8.RuneCountInString(f.Slug) > maxGroupLength:
		f.Errors.Add("slug", msgTooLong)
	case !slugRe.MatchString(f.Slug):
		f.Errors.Add("slug", msgSlug)
	default:
		_, err := groups.GetGroupBySlug(ctx, f.Slug)
		if err == nil {
			f.Errors.Add("slug", msgSlugTaken)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}
	}
	return len(f.Errors) == 0, nil
}

func (f *GroupForm) Group() *domain.Group {
	return &domain.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}
}
