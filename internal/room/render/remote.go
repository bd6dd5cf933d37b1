package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ============================================================
// Remote Renderer
// ============================================================

// Remote отправляет раскладку во внешний сервис рендера как multipart:
// поле layout (JSON), поля roomType/style и файл image с исходным фото.
// В ответ ожидаются байты изображения.
type Remote struct {
	url    string
	client *http.Client
}

func NewRemote(url string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{url: url, client: client}
}

func (r *Remote) Render(ctx context.Context, req Request) (Image, error) {
	if r.url == "" {
		return Image{}, fmt.Errorf("render url is empty")
	}

	body, contentType, err := encodeRequest(req)
	if err != nil {
		return Image{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, body)
	if err != nil {
		return Image{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, err
	}
	if resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("render service status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}

func encodeRequest(req Request) (*bytes.Buffer, string, error) {
	layoutJSON, err := json.Marshal(req.Layout)
	if err != nil {
		return nil, "", fmt.Errorf("encode layout: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("layout", string(layoutJSON)); err != nil {
		return nil, "", err
	}
	if req.RoomType != "" {
		writer.WriteField("roomType", req.RoomType)
	}
	writer.WriteField("style", req.EffectiveStyle())

	if len(req.BaseImage) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="source"`)
		h.Set("Content-Type", req.BaseMIMEType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.BaseImage); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
