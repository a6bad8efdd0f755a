// Package media хранит картинки постов.
package media

import (
	"context"
	"path"

	"github.com/google/uuid"
)

// Folder - каталог для картинок постов.
const Folder = "posts"

// Storage сохраняет и удаляет файлы по ключу.
type Storage interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey возвращает уникальный ключ для нового файла с расширением ext.
func NewKey(ext string) string {
	return path.Join(Folder, uuid.NewString()+ext)
}
