package forms

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Минимальная GIF-картинка 2x1
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, file []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPostForm_ValidWithGroupAndImage(t *testing.T) {
	store := inmemory.New()
	group, err := store.CreateGroup(context.Background(), &domain.Group{Title: "title", Slug: "slug"})
	require.NoError(t, err)

	req := multipartRequest(t, map[string]string{
		"text":  "Новый пост",
		"group": strconv.FormatInt(group.ID, 10),
	}, "small.gif", smallGIF)

	form := ParsePostForm(req)
	ok, err := form.Validate(context.Background(), store)
	require.NoError(t, err)
	require.True(t, ok, form.Errors)

	require.NotNil(t, form.Image)
	assert.Equal(t, "gif", form.Image.Format)
	assert.Equal(t, ".gif", form.Image.Ext())
	assert.Equal(t, "image/gif", form.Image.ContentType)

	var post domain.Post
	form.Apply(&post)
	assert.Equal(t, "Новый пост", post.Text)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
	assert.True(t, form.SelectedGroup(group.ID))
}

func TestPostForm_Errors(t *testing.T) {
	store := inmemory.New()

	tests := []struct {
		name      string
		fields    map[string]string
		filename  string
		file      []byte
		errorsFor []string
	}{
		{name: "blank text", fields: map[string]string{"text": "   "}, errorsFor: []string{"text"}},
		{name: "unknown group", fields: map[string]string{"text": "x", "group": "42"}, errorsFor: []string{"group"}},
		{name: "non numeric group", fields: map[string]string{"text": "x", "group": "cats"}, errorsFor: []string{"group"}},
		{name: "not an image", fields: map[string]string{"text": "x"}, filename: "fake.gif", file: []byte("plain text"), errorsFor: []string{"image"}},
		{name: "too large", fields: map[string]string{"text": "x"}, filename: "big.gif", file: append(append([]byte{}, smallGIF...), make([]byte, MaxImageSize)...), errorsFor: []string{"image"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := ParsePostForm(multipartRequest(t, tt.fields, tt.filename, tt.file))
			ok, err := form.Validate(context.Background(), store)
			require.NoError(t, err)
			assert.False(t, ok)
			for _, field := range tt.errorsFor {
				assert.NotEmpty(t, form.Errors.Get(field), field)
			}
			assert.Nil(t, form.Image)
		})
	}
}

func TestPostForm_URLEncodedAndClear(t *testing.T) {
	form := ParsePostForm(formRequest(url.Values{"text": {"без картинки"}, "image-clear": {"on"}}))
	ok, err := form.Validate(context.Background(), inmemory.New())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, form.ClearImage)
	assert.Nil(t, form.Image)

	var post domain.Post
	form.Apply(&post)
	assert.Nil(t, post.GroupID)
}

func TestNewPostForm_Prefill(t *testing.T) {
	groupID := int64(3)
	form := NewPostForm(&domain.Post{Text: "старый текст", GroupID: &groupID})
	assert.Equal(t, "старый текст", form.Text)
	assert.Equal(t, "3", form.Group)
	assert.True(t, form.SelectedGroup(3))
	assert.Empty(t, form.Errors)
}

func TestDecodeImage_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))))

	upload, err := DecodeImage("pic.png", &buf)
	require.NoError(t, err)
	assert.Equal(t, "png", upload.Format)
	assert.Equal(t, ".png", upload.Ext())
}

func TestCommentForm(t *testing.T) {
	form := ParseCommentForm(formRequest(url.Values{"text": {"  Отличный пост  "}}))
	require.True(t, form.Validate())

	comment := form.Comment(7, 2)
	assert.Equal(t, "Отличный пост", comment.Text)
	assert.EqualValues(t, 7, comment.PostID)
	assert.EqualValues(t, 2, comment.AuthorID)

	empty := ParseCommentForm(formRequest(url.Values{"text": {"   "}}))
	assert.False(t, empty.Validate())
}

func TestSignupForm(t *testing.T) {
	store := inmemory.New()
	_, err := store.CreateUser(context.Background(), &domain.User{Username: "taken"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		values    url.Values
		valid     bool
		errorsFor []string
	}{
		{
			name:   "valid",
			values: url.Values{"username": {"лев.толстой"}, "password1": {"war-and-peace"}, "password2": {"war-and-peace"}},
			valid:  true,
		},
		{
			name:      "taken username",
			values:    url.Values{"username": {"taken"}, "password1": {"war-and-peace"}, "password2": {"war-and-peace"}},
			errorsFor: []string{"username"},
		},
		{
			name:      "bad characters",
			values:    url.Values{"username": {"лев толстой"}, "password1": {"war-and-peace"}, "password2": {"war-and-peace"}},
			errorsFor: []string{"username"},
		},
		{
			name:      "too long",
			values:    url.Values{"username": {strings.Repeat("a", 151)}, "password1": {"war-and-peace"}, "password2": {"war-and-peace"}},
			errorsFor: []string{"username"},
		},
		{
			name:      "short password and mismatch",
			values:    url.Values{"username": {"leo"}, "password1": {"short"}, "password2": {"other"}},
			errorsFor: []string{"password1", "password2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := ParseSignupForm(formRequest(tt.values))
			ok, err := form.Validate(context.Background(), store)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, ok, form.Errors)
			for _, field := range tt.errorsFor {
				assert.NotEmpty(t, form.Errors.Get(field), field)
			}
		})
	}
}

func TestLoginForm(t *testing.T) {
	form := ParseLoginForm(formRequest(url.Values{"username": {"leo"}, "password": {"secret"}, "next": {"/create"}}))
	assert.True(t, form.Validate())
	assert.Equal(t, "/create", form.Next)

	form.Reject()
	assert.NotEmpty(t, form.Errors.Get(""))

	empty := ParseLoginForm(formRequest(url.Values{}))
	assert.False(t, empty.Validate())
	assert.NotEmpty(t, empty.Errors.Get("username"))
	assert.NotEmpty(t, empty.Errors.Get("password"))
}

func TestPostForm_TrimsText(t *testing.T) {
	form := ParsePostForm(formRequest(url.Values{"text": {"  \n Текст с пробелами \t "}}))
	ok, err := form.Validate(context.Background(), inmemory.New())
	require.NoError(t, err)
	require.True(t, ok, form.Errors)

	var post domain.Post
	form.Apply(&post)
	assert.Equal(t, "Текст с пробелами", post.Text)
}

func TestPostForm_UploadAndClearConflict(t *testing.T) {
	form := ParsePostForm(multipartRequest(t, map[string]string{"text": "x", "image-clear": "on"}, "small.gif", smallGIF))
	ok, err := form.Validate(context.Background(), inmemory.New())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, form.Errors.Get("image"))
}

func TestPostForm_BodyOverLimit(t *testing.T) {
	req := multipartRequest(t, map[string]string{"text": "x"}, "big.gif", append(append([]byte{}, smallGIF...), make([]byte, 2<<20)...))
	req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 1<<20)

	form := ParsePostForm(req)
	ok, err := form.Validate(context.Background(), inmemory.New())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, msgImageTooLarge, form.Errors.Get("image"))
	assert.Nil(t, form.Image)
}

func TestUsernameAndPasswordErrors(t *testing.T) {
	assert.Empty(t, UsernameError("leo.tolstoy+1@ya"))
	assert.Equal(t, msgRequired, UsernameError(""))
	assert.Equal(t, msgUsername, UsernameError("has space/slash"))
	assert.Equal(t, msgUsernameLong, UsernameError(strings.Repeat("я", 151)))

	assert.Empty(t, PasswordError("war-and-peace"))
	assert.Equal(t, msgRequired, PasswordError(""))
	assert.Equal(t, msgPasswordShort, PasswordError("1"))
}

func TestGroupForm(t *testing.T) {
	store := inmemory.New()
	_, err := store.CreateGroup(context.Background(), &domain.Group{Title: "Котики", Slug: "cats"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		title     string
		slug      string
		valid     bool
		errorsFor []string
	}{
		{name: "valid", title: "Собаки", slug: "dogs_and-puppies-2", valid: true},
		{name: "slug with space and slash", title: "x", slug: "bad slug/x", errorsFor: []string{"slug"}},
		{name: "non latin slug", title: "x", slug: "котики", errorsFor: []string{"slug"}},
		{name: "taken slug", title: "x", slug: "cats", errorsFor: []string{"slug"}},
		{name: "long slug", title: "x", slug: strings.Repeat("a", 201), errorsFor: []string{"slug"}},
		{name: "missing fields", errorsFor: []string{"title", "slug"}},
		{name: "long title", title: strings.Repeat("т", 201), slug: "long", errorsFor: []string{"title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewGroupForm(tt.title, tt.slug, " описание ")
			ok, err := form.Validate(context.Background(), store)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, ok, form.Errors)
			for _, field := range tt.errorsFor {
				assert.NotEmpty(t, form.Errors.Get(field), field)
			}
			if tt.valid {
				group := form.Group()
				assert.Equal(t, tt.slug, group.Slug)
				assert.Equal(t, "описание", group.Description)
			}
		})
	}
}
