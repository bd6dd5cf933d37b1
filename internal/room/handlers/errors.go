package handlers

import (
	"context"
	"errors"
	"net/http"

	"room-studio/internal/common/apperr"
	"room-studio/internal/common/logging"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Error Mapping
// ============================================================

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Subkind string      `json:"subkind,omitempty"`
	Raw     string      `json:"raw,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusUnprocessableEntity,
	apperr.KindInvalidEdit:     http.StatusBadRequest,
	apperr.KindBadRequest:      http.StatusBadRequest,
	apperr.KindPrecondition:    http.StatusConflict,
	apperr.KindStaleResult:     http.StatusConflict,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindAnalysis:        http.StatusBadGateway,
	apperr.KindRender:          http.StatusBadGateway,
	apperr.KindUpstreamTimeout: http.StatusGatewayTimeout,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// StatusFor возвращает HTTP-статус для вида ошибки.
func StatusFor(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(c fiber.Ctx, err error) error {
	if errors.Is(err, context.Canceled) {
		return c.Status(http.StatusRequestTimeout).JSON(fiber.Map{"error": errorBody{
			Kind: apperr.KindBadRequest, Message: "request cancelled",
		}})
	}

	e, ok := apperr.As(err)
	if !ok {
		logging.FromContext(c.Context()).Error("unhandled error", "path", c.Path(), "err", err)
		e = apperr.Wrap(apperr.KindInternal, err, "internal error")
	}

	body := errorBody{
		Kind:    e.Kind,
		Message: e.Message,
		Field:   e.Field,
		Subkind: e.Subkind,
		Raw:     e.Raw,
	}
	if e.Kind != apperr.KindInternal && e.Cause != nil {
		body.Message = e.Message + ": " + e.Cause.Error()
	}
	return c.Status(StatusFor(e.Kind)).JSON(fiber.Map{"error": body})
}

// ErrorHandler оформляет ошибки самого fiber (нет маршрута, превышен лимит
// тела) в том же формате, что и ошибки сервиса.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperr.KindBadRequest
		switch {
		case fe.Code == http.StatusNotFound:
			kind = apperr.KindNotFound
		case fe.Code >= 500:
			kind = apperr.KindInternal
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": errorBody{Kind: kind, Message: fe.Message}})
	}
	return writeError(c, err)
}
