package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/logs"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName - имя cookie с сессией.
const CookieName = "session"

// LoginURL - адрес формы входа.
const LoginURL = "/auth/login"

type contextKey string

const userKey = contextKey("user")

// Sessions выдает и проверяет подписанные cookie сессии.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	store  storage.Storage
	secure bool
}

// NewSessions создает менеджер сессий. secure включает флаг Secure у cookie.
func NewSessions(store storage.Storage, secret string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, store: store, secure: secure}
}

// Issue подписывает токен для пользователя и ставит cookie.
func (s *Sessions) Issue(w http.ResponseWriter, user *domain.User) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear удаляет cookie сессии.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// userID проверяет подпись и срок действия токена.
func (s *Sessions) userID(tokenStr string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid session token: %w", err)
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// Middleware подставляет текущего пользователя в контекст, если cookie валидна.
// Невалидная cookie не ошибка: запрос продолжается как анонимный.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := s.userID(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.store.GetUserByID(r.Context(), id)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				logs.LogJSON("ERROR", "session user lookup failed", map[string]interface{}{
					"user_id": id,
					"error":   err.Error(),
				})
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser кладет пользователя в контекст.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom возвращает текущего пользователя или nil для анонима.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// RequireLogin отправляет анонимов на форму входа с параметром next.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			http.Redirect(w, r, LoginRedirectURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRedirectURL - адрес входа с возвратом на target.
func LoginRedirectURL(target string) string {
	return LoginURL + "?next=" + url.QueryEscape(target)
}

// SafeNext возвращает next, если это локальный путь, иначе "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
