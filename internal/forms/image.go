package forms

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"

	// Форматы, которые принимает поле image
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageSize - максимальный размер загружаемой картинки.
const MaxImageSize = 5 << 20

var (
	ErrImageTooLarge = errors.New("image is too large")
	ErrNotAnImage    = errors.New("file is not a valid image")
)

var extensions = map[string]string{
	"gif":  ".gif",
	"png":  ".png",
	"jpeg": ".jpg",
	"bmp":  ".bmp",
	"tiff": ".tiff",
	"webp": ".webp",
}

var contentTypes = map[string]string{
	"gif":  "image/gif",
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// Upload - проверенная картинка из формы.
type Upload struct {
	Filename    string
	Format      string
	ContentType string
	Data        []byte
}

// Ext возвращает расширение файла для формата картинки.
func (u *Upload) Ext() string {
	return extensions[u.Format]
}

// ReadImage читает файл и проверяет, что это картинка допустимого формата.
func ReadImage(fh *multipart.FileHeader) (*Upload, error) {
	if fh.Size > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return DecodeImage(fh.Filename, f)
}

// DecodeImage проверяет содержимое по заголовку картинки, а не по расширению.
func DecodeImage(filename string, r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}
	if _, ok := extensions[format]; !ok {
		return nil, ErrNotAnImage
	}

	return &Upload{
		Filename:    filename,
		Format:      format,
		ContentType: contentTypes[format],
		Data:        data,
	}, nil
}
