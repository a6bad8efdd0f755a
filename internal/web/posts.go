package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/forms"
	"github.com/UkralStul/yatube/internal/live"
	"github.com/UkralStul/yatube/internal/logs"
	"github.com/UkralStul/yatube/internal/media"

	"github.com/go-chi/chi/v5"
)

// Картинка плюс запас на текстовые поля формы.
const maxPostBody = forms.MaxImageSize + 1<<20

// postFormData - данные шаблона create_post.html.
type postFormData struct {
	Form   *forms.PostForm
	Groups []*domain.Group
	IsEdit bool
	Post   *domain.Post
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	page, err := s.feed.Index(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", page)
}

func (s *Server) groupPosts(w http.ResponseWriter, r *http.Request) {
	page, err := s.feed.Group(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "group_list.html", page)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	viewer := auth.UserFrom(r.Context())
	page, err := s.feed.Profile(r.Context(), chi.URLParam(r, "username"), viewer, r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "profile.html", page)
}

func (s *Server) postDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	detail, err := s.feed.Post(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "post_detail.html", detail)
}

func (s *Server) postCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	ctx := r.Context()

	if r.Method != http.MethodPost {
		s.renderPostForm(w, r, http.StatusOK, forms.NewPostForm(nil), nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPostBody)
	form := forms.ParsePostForm(r)
	valid, err := form.Validate(ctx, s.store)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		s.renderPostForm(w, r, http.StatusOK, form, nil)
		return
	}

	// Автор всегда текущий пользователь, а не данные формы
	post := &domain.Post{AuthorID: user.ID}
	form.Apply(post)
	if form.Image != nil {
		key, err := s.saveImage(ctx, form.Image)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		post.Image = key
	}

	if _, err := s.store.CreatePost(ctx, post); err != nil {
		s.removeImage(ctx, post.Image)
		s.fail(w, r, err)
		return
	}

	http.Redirect(w, r, profileURL(user), http.StatusFound)
}

func (s *Server) postEdit(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	ctx := r.Context()

	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detailURL := "/posts/" + strconv.FormatInt(post.ID, 10)
	if post.AuthorID != user.ID {
		http.Redirect(w, r, detailURL, http.StatusFound)
		return
	}

	if r.Method != http.MethodPost {
		s.renderPostForm(w, r, http.StatusOK, forms.NewPostForm(post), post)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPostBody)
	form := forms.ParsePostForm(r)
	valid, err := form.Validate(ctx, s.store)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		s.renderPostForm(w, r, http.StatusOK, form, post)
		return
	}

	oldImage := post.Image
	form.Apply(post)
	switch {
	case form.Image != nil:
		key, err := s.saveImage(ctx, form.Image)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		post.Image = key
	case form.ClearImage:
		post.Image = ""
	}

	if _, err := s.store.UpdatePost(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImage(ctx, post.Image)
		}
		s.fail(w, r, err)
		return
	}
	if post.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}

	http.Redirect(w, r, detailURL, http.StatusFound)
}

func (s *Server) postDelete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	ctx := r.Context()

	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if post.AuthorID != user.ID {
		s.forbidden(w, r)
		return
	}

	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.removeImage(ctx, post.Image)

	http.Redirect(w, r, profileURL(user), http.StatusFound)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	ctx := r.Context()

	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if _, err := s.store.GetPostByID(ctx, id); err != nil {
		s.fail(w, r, err)
		return
	}

	form := forms.ParseCommentForm(r)
	if form.Validate() {
		comment, err := s.store.CreateComment(ctx, form.Comment(id, user.ID))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.observer.Publish(live.NewMessage(comment, user))
	}

	http.Redirect(w, r, "/posts/"+strconv.FormatInt(id, 10), http.StatusFound)
}

func (s *Server) liveComments(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	// Проверяем, существует ли пост, прежде чем подписываться
	if _, err := s.store.GetPostByID(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.observer.Serve(w, r, id)
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, form *forms.PostForm, post *domain.Post) {
	groups, err := s.store.ListGroups(r.Context(), "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, status, "create_post.html", postFormData{
		Form:   form,
		Groups: groups,
		IsEdit: post != nil,
		Post:   post,
	})
}

func (s *Server) saveImage(ctx context.Context, upload *forms.Upload) (string, error) {
	key := media.NewKey(upload.Ext())
	if err := s.media.Save(ctx, key, upload.ContentType, upload.Data); err != nil {
		return "", err
	}
	return key, nil
}

// removeImage удаляет файл картинки. Ошибка только логируется: запись уже изменена.
func (s *Server) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		logs.LogJSON("WARN", "failed to remove image", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
