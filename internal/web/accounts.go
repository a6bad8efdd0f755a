package web

import (
	"errors"
	"net/http"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/forms"
	"github.com/UkralStul/yatube/internal/storage"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		form := &forms.LoginForm{Next: r.URL.Query().Get("next"), Errors: forms.Errors{}}
		s.render(w, r, http.StatusOK, "login.html", form)
		return
	}

	form := forms.ParseLoginForm(r)
	if !form.Validate() {
		s.render(w, r, http.StatusOK, "login.html", form)
		return
	}

	user, err := auth.Authenticate(r.Context(), s.store, form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		form.Reject()
		s.render(w, r, http.StatusOK, "login.html", form)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.sessions.Issue(w, user); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, auth.SafeNext(form.Next), http.StatusFound)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "signup.html", &forms.SignupForm{Errors: forms.Errors{}})
		return
	}

	ctx := r.Context()
	form := forms.ParseSignupForm(r)
	valid, err := form.Validate(ctx, s.store)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		s.render(w, r, http.StatusOK, "signup.html", form)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.store.CreateUser(ctx, form.User(hash))
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Имя заняли между проверкой и вставкой
		form.Errors.Add("username", "Пользователь с таким именем уже существует.")
		s.render(w, r, http.StatusOK, "signup.html", form)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.sessions.Issue(w, user); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	// Страница выхода рендерится уже без пользователя
	r = r.WithContext(auth.WithUser(r.Context(), nil))
	s.render(w, r, http.StatusOK, "logged_out.html", nil)
}
