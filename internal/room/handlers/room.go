package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"room-studio/internal/common/apperr"
	"room-studio/internal/common/logging"
	"room-studio/internal/room/models"
	"room-studio/internal/room/service"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// Room Handler
// ============================================================

type RoomHandler struct {
	svc      *service.RoomService
	maxBytes int64
}

func NewRoomHandler(svc *service.RoomService, maxUploadBytes int64) *RoomHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = service.DefaultMaxUploadBytes
	}
	return &RoomHandler{svc: svc, maxBytes: maxUploadBytes}
}

// Register вешает маршруты сессий на r (обычно группа /api/v1).
func (h *RoomHandler) Register(r fiber.Router) {
	r.Post("/sessions", h.CreateSession)

	s := r.Group("/sessions/:id")
	s.Post("/analyze", h.requireSession, h.Analyze)
	s.Get("/layout", h.requireSession, h.GetLayout)
	s.Post("/layout", h.requireSession, h.UpdateLayout)
	s.Post("/render", h.requireSession, h.Render)
	s.Get("/render", h.requireSession, h.GetRender)
	s.Get("/image", h.requireSession, h.GetImage)
}

func (h *RoomHandler) requireSession(c fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return writeError(c, apperr.New(apperr.KindBadRequest, "session id must be a UUID").WithField("id"))
	}
	return c.Next()
}

// CreateSession выдаёт идентификатор новой сессии.
func (h *RoomHandler) CreateSession(c fiber.Ctx) error {
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": service.NewSessionID()})
}

// Analyze принимает фото в multipart-поле image и возвращает раскладку.
func (h *RoomHandler) Analyze(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return writeError(c, apperr.New(apperr.KindBadRequest, "multipart field image is required").WithField("image"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, apperr.Wrap(apperr.KindInternal, err, "open upload"))
	}
	defer file.Close()

	// +1 байт, чтобы сервис увидел превышение лимита
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return writeError(c, apperr.Wrap(apperr.KindInternal, err, "read upload"))
	}

	logging.FromContext(c.Context()).Debug("image received", "session", c.Params("id"),
		"filename", fileHeader.Filename, "bytes", len(data))

	doc, err := h.svc.Analyze(c.Context(), c.Params("id"), service.Image{
		Data:     data,
		MIMEType: fileHeader.Header.Get("Content-Type"),
		Filename: fileHeader.Filename,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(doc)
}

// GetLayout отдаёт original, а с ?updated=true - current.
func (h *RoomHandler) GetLayout(c fiber.Ctx) error {
	updated := false
	if q := c.Query("updated"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			return writeError(c, apperr.New(apperr.KindBadRequest, "updated must be a boolean").WithField("updated"))
		}
		updated = v
	}

	doc, err := h.svc.Layout(c.Context(), c.Params("id"), updated)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(doc)
}

// UpdateLayout применяет разреженные правки {"objects": [...]}.
func (h *RoomHandler) UpdateLayout(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return writeError(c, apperr.New(apperr.KindBadRequest, "empty body"))
	}

	var req models.EditRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return writeError(c, apperr.Wrap(apperr.KindBadRequest, err, "invalid json"))
	}

	doc, err := h.svc.Update(c.Context(), c.Params("id"), req.Objects)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(doc)
}

// Render рисует текущую раскладку. Тело {"roomType","style"} необязательно.
func (h *RoomHandler) Render(c fiber.Ctx) error {
	var opts service.RenderOptions
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &opts); err != nil {
			return writeError(c, apperr.Wrap(apperr.KindBadRequest, err, "invalid json"))
		}
	}

	res, err := h.svc.Render(c.Context(), c.Params("id"), opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// GetRender отдаёт последний результат рендера.
func (h *RoomHandler) GetRender(c fiber.Ctx) error {
	info, data, err := h.svc.RenderedImage(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", info.ContentType)
	c.Set("Cache-Control", "no-store")
	return c.Send(data)
}

// GetImage отдаёт загруженное фото.
func (h *RoomHandler) GetImage(c fiber.Ctx) error {
	info, data, err := h.svc.SourceImage(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", info.ContentType)
	return c.Send(data)
}
