package service

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"room-studio/internal/common/apperr"

	_ "golang.org/x/image/webp"
)

// DefaultMaxUploadBytes - предел размера загружаемого фото.
const DefaultMaxUploadBytes = 5 << 20

// Image - загруженное фото комнаты.
type Image struct {
	Data     []byte
	MIMEType string // заявленный клиентом, используется только для лога
	Filename string
}

var acceptedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// checkImage определяет тип по содержимому и проверяет, что заголовок
// изображения читается. Возвращает настоящий MIME-тип.
func checkImage(img Image, maxBytes int64) (string, error) {
	if len(img.Data) == 0 {
		return "", apperr.New(apperr.KindBadRequest, "image is empty").WithField("image")
	}
	if maxBytes > 0 && int64(len(img.Data)) > maxBytes {
		return "", apperr.New(apperr.KindBadRequest, "image is %d bytes, limit is %d", len(img.Data), maxBytes).WithField("image")
	}

	sniffed := http.DetectContentType(img.Data)
	accepted := false
	for _, t := range acceptedTypes {
		if sniffed == t {
			accepted = true
			break
		}
	}
	if !accepted {
		return "", apperr.New(apperr.KindBadRequest, "unsupported image type %s", sniffed).WithField("image")
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
		return "", apperr.Wrap(apperr.KindBadRequest, err, "image is not decodable").WithField("image")
	}
	return sniffed, nil
}
