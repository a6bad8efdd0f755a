package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/go-chi/chi/v5"
)

func (s *Server) followIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.feed.Follow(r.Context(), auth.UserFrom(r.Context()), r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "follow.html", page)
}

func (s *Server) profileFollow(w http.ResponseWriter, r *http.Request) {
	follower := auth.UserFrom(r.Context())
	ctx := r.Context()

	author, err := s.store.GetUserByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// На себя подписаться нельзя, повторная подписка ничего не меняет
	if author.ID != follower.ID {
		following, err := s.store.IsFollowing(ctx, follower.ID, author.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !following {
			_, err := s.store.CreateFollow(ctx, &domain.Follow{UserID: follower.ID, AuthorID: author.ID})
			// Параллельный запрос успел создать ту же подписку
			if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
				s.fail(w, r, err)
				return
			}
		}
	}

	http.Redirect(w, r, profileURL(author), http.StatusFound)
}

func (s *Server) profileUnfollow(w http.ResponseWriter, r *http.Request) {
	follower := auth.UserFrom(r.Context())
	ctx := r.Context()

	author, err := s.store.GetUserByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteFollow(ctx, follower.ID, author.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	http.Redirect(w, r, profileURL(author), http.StatusFound)
}

func profileURL(user *domain.User) string {
	return "/profile/" + url.PathEscape(user.Username)
}
