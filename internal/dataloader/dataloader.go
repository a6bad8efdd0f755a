package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UserByID  *dataloader.Loader
	GroupByID *dataloader.Loader
}

// NewLoaders создает свежий набор лоадеров. Кэш лоадеров живет один запрос.
func NewLoaders(store storage.Storage) *Loaders {
	usersFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids, err := parseKeys(keys)
		if err != nil {
			return failAll(keys, err)
		}
		// Вызываем метод хранилища, который делает ОДИН запрос к БД
		users, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			return failAll(keys, err)
		}
		// Формируем результат в том же порядке, что и ключи
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if u, ok := users[id]; ok {
				results[i] = &dataloader.Result{Data: u}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("user with id %d: %w", id, storage.ErrNotFound)}
			}
		}
		return results
	}

	groupsFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids, err := parseKeys(keys)
		if err != nil {
			return failAll(keys, err)
		}
		groups, err := store.GetGroupsByIDs(ctx, ids)
		if err != nil {
			return failAll(keys, err)
		}
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if g, ok := groups[id]; ok {
				results[i] = &dataloader.Result{Data: g}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("group with id %d: %w", id, storage.ErrNotFound)}
			}
		}
		return results
	}

	return &Loaders{
		UserByID:  dataloader.NewBatchedLoader(usersFn, dataloader.WithWait(time.Millisecond*1)),
		GroupByID: dataloader.NewBatchedLoader(groupsFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, NewLoaders(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// For извлекает лоадеры из контекста. Вне запроса создает новые.
func For(ctx context.Context, store storage.Storage) *Loaders {
	if loaders, ok := ctx.Value(key).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(store)
}

// Users загружает пользователей по списку ID одним батчем.
func (l *Loaders) Users(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	if len(ids) == 0 {
		return map[int64]*domain.User{}, nil
	}
	thunk := l.UserByID.LoadMany(ctx, toKeys(ids))
	values, errs := thunk()
	result := make(map[int64]*domain.User, len(ids))
	for i, v := range values {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if u, ok := v.(*domain.User); ok {
			result[u.ID] = u
		}
	}
	return result, nil
}

// Groups загружает группы по списку ID одним батчем.
func (l *Loaders) Groups(ctx context.Context, ids []int64) (map[int64]*domain.Group, error) {
	if len(ids) == 0 {
		return map[int64]*domain.Group{}, nil
	}
	thunk := l.GroupByID.LoadMany(ctx, toKeys(ids))
	values, errs := thunk()
	result := make(map[int64]*domain.Group, len(ids))
	for i, v := range values {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if g, ok := v.(*domain.Group); ok {
			result[g.ID] = g
		}
	}
	return result, nil
}

func toKeys(ids []int64) dataloader.Keys {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = dataloader.StringKey(strconv.FormatInt(id, 10))
	}
	return keys
}

func parseKeys(keys dataloader.Keys) ([]int64, error) {
	ids := make([]int64, len(keys))
	for i, k := range keys {
		id, err := strconv.ParseInt(k.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid loader key %q: %w", k.String(), err)
		}
		ids[i] = id
	}
	return ids, nil
}

func failAll(keys dataloader.Keys, err error) []*dataloader.Result {
	// В случае ошибки, возвращаем ее для всех ключей
	results := make([]*dataloader.Result, len(keys))
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}
