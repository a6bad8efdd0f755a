// Package web - HTTP-интерфейс Yatube: маршруты, обработчики и шаблоны.
package web

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/cache"
	"github.com/UkralStul/yatube/internal/dataloader"
	"github.com/UkralStul/yatube/internal/feed"
	"github.com/UkralStul/yatube/internal/live"
	"github.com/UkralStul/yatube/internal/media"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options - зависимости сервера. Пустые поля заменяются значениями по умолчанию,
// кроме Sessions и Media.
type Options struct {
	PostsPerPage int
	Cache        cache.Cache
	Sessions     *auth.Sessions
	Media        media.Storage
	Observer     *live.CommentObserver
}

// Server обрабатывает HTTP-запросы сайта.
type Server struct {
	store     storage.Storage
	feed      *feed.Service
	cache     cache.Cache
	sessions  *auth.Sessions
	media     media.Storage
	observer  *live.CommentObserver
	templates map[string]*template.Template
}

func NewServer(store storage.Storage, opts Options) (*Server, error) {
	if opts.Sessions == nil || opts.Media == nil {
		return nil, errors.New("web: sessions and media storage are required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Observer == nil {
		opts.Observer = live.NewCommentObserver()
	}

	s := &Server{
		store:    store,
		feed:     feed.NewService(store, opts.PostsPerPage),
		cache:    opts.Cache,
		sessions: opts.Sessions,
		media:    opts.Media,
		observer: opts.Observer,
	}

	templates, err := parseTemplates(s.media.URL)
	if err != nil {
		return nil, err
	}
	s.templates = templates
	return s, nil
}

// Routes собирает роутер со всеми маршрутами сайта.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.sessions.Middleware)
	r.Use(dataloader.Middleware(s.store))

	// Кэшируется только главная страница
	r.With(cache.Middleware(s.cache, viewerCacheKey)).Get("/", s.index)
	r.Get("/groups/{slug}", s.groupPosts)
	r.Get("/profile/{username}", s.profile)
	r.Get("/posts/{id}", s.postDetail)
	r.Get("/posts/{id}/comments/live", s.liveComments)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)

		r.Get("/create", s.postCreate)
		r.Post("/create", s.postCreate)
		r.Get("/posts/{id}/edit", s.postEdit)
		r.Post("/posts/{id}/edit", s.postEdit)
		r.Post("/posts/{id}/delete", s.postDelete)
		r.Post("/posts/{id}/comment", s.addComment)
		r.Get("/follow", s.followIndex)
		r.Get("/profile/{username}/follow", s.profileFollow)
		r.Get("/profile/{username}/unfollow", s.profileUnfollow)
	})

	r.Get("/auth/login", s.login)
	r.Post("/auth/login", s.login)
	r.Get("/auth/signup", s.signup)
	r.Post("/auth/signup", s.signup)
	r.Get("/auth/logout", s.logout)

	r.Get("/about/author", s.aboutAuthor)
	r.Get("/about/tech", s.aboutTech)

	if local, ok := s.media.(*media.Local); ok {
		r.Handle(local.Prefix()+"*", local.Handler())
	}

	r.NotFound(s.notFound)
	return r
}

// Cache возвращает кэш страниц (для явной инвалидации).
func (s *Server) Cache() cache.Cache {
	return s.cache
}

// viewerCacheKey различает кэш по пользователю: шапка страницы содержит его имя.
func viewerCacheKey(r *http.Request) string {
	var viewer int64
	if user := auth.UserFrom(r.Context()); user != nil {
		viewer = user.ID
	}
	return r.URL.RequestURI() + "|" + strconv.FormatInt(viewer, 10)
}

// postID разбирает {id} из пути. Нечисловой id означает 404.
func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
