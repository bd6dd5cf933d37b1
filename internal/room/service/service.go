// Package service связывает анализ фото, хранение раскладок, слияние правок
// и рендер в одну машину состояний сессии:
//
//	Empty → Analyzed → Edited → Rendered
//
// Вызовы моделей идут вне мьютекса сессии, запись результатов - под ним.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"room-studio/internal/common/apperr"
	"room-studio/internal/common/logging"
	"room-studio/internal/room/blob"
	"room-studio/internal/room/layout"
	"room-studio/internal/room/models"
	"room-studio/internal/room/render"
	"room-studio/internal/room/vision"

	"github.com/charmbracelet/log"
)

// ============================================================
// Options
// ============================================================

// MergeBase - от какой записи считается слияние правок.
type MergeBase string

const (
	MergeBaseCurrent  MergeBase = "current"
	MergeBaseOriginal MergeBase = "original"
)

func ParseMergeBase(s string) (MergeBase, error) {
	switch MergeBase(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeBaseCurrent:
		return MergeBaseCurrent, nil
	case MergeBaseOriginal:
		return MergeBaseOriginal, nil
	default:
		return "", fmt.Errorf("unknown merge base %q", s)
	}
}

type Options struct {
	MergeBase       MergeBase
	RangePolicy     layout.Policy
	ValidateOnMerge bool
	AnalyzeTimeout  time.Duration
	RenderTimeout   time.Duration
	MaxUploadBytes  int64
}

func DefaultOptions() Options {
	return Options{
		MergeBase:       MergeBaseCurrent,
		RangePolicy:     layout.PolicyReject,
		ValidateOnMerge: true,
		AnalyzeTimeout:  60 * time.Second,
		RenderTimeout:   120 * time.Second,
		MaxUploadBytes:  DefaultMaxUploadBytes,
	}
}

// Deps - зависимости сервиса. Locks, Metrics и Logger необязательны.
type Deps struct {
	Store    *LayoutStore
	Blobs    blob.Store
	Analyzer vision.Analyzer
	Renderer render.Renderer
	Locks    *SessionLocks
	Metrics  *Metrics
	Logger   *log.Logger
}

// ============================================================
// Room Service
// ============================================================

type RoomService struct {
	store    *LayoutStore
	blobs    blob.Store
	analyzer vision.Analyzer
	renderer render.Renderer
	locks    *SessionLocks
	metrics  *Metrics
	log      *log.Logger
	opts     Options
}

func New(deps Deps, opts Options) *RoomService {
	if deps.Locks == nil {
		deps.Locks = NewSessionLocks()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if opts.MergeBase == "" {
		opts.MergeBase = MergeBaseCurrent
	}
	if opts.RangePolicy == "" {
		opts.RangePolicy = layout.PolicyReject
	}
	return &RoomService{
		store:    deps.Store,
		blobs:    deps.Blobs,
		analyzer: deps.Analyzer,
		renderer: deps.Renderer,
		locks:    deps.Locks,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		opts:     opts,
	}
}

// RenderOptions - пожелания к рендеру. Пустой Style означает стиль раскладки.
type RenderOptions struct {
	RoomType string `json:"roomType"`
	Style    string `json:"style"`
}

type RenderResult struct {
	Key      string `json:"key"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Ready проверяет доступность хранилища раскладок.
func (s *RoomService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *RoomService) logger(ctx context.Context) *log.Logger {
	if l := logging.FromContext(ctx); l != log.Default() {
		return l
	}
	return s.log
}

// ============================================================
// Analyze
// ============================================================

// Analyze отправляет фото модели, проверяет ответ и сохраняет его как
// original и current. Повторный анализ перезаписывает обе записи.
func (s *RoomService) Analyze(ctx context.Context, sessionID string, img Image) (doc models.LayoutDocument, err error) {
	defer func() { s.metrics.observe("analyze", err) }()
	logger := s.logger(ctx).With("session", sessionID, "op", "analyze")

	mimeType, err := checkImage(img, s.opts.MaxUploadBytes)
	if err != nil {
		return models.LayoutDocument{}, err
	}

	sess := s.locks.Acquire(sessionID)
	defer sess.Release()
	tk := sess.begin(opAnalyze)

	actx, cancel := withTimeout(ctx, s.opts.AnalyzeTimeout)
	started := time.Now()
	res, err := s.analyzer.Analyze(actx, img.Data, mimeType)
	cancel()
	s.metrics.upstreamLatency("analyze", time.Since(started))
	if err != nil {
		logger.Warn("analyzer failed", "err", err)
		return models.LayoutDocument{}, upstreamError(ctx, err, apperr.KindAnalysis, "analyze image")
	}
	if err := ctx.Err(); err != nil {
		return models.LayoutDocument{}, err
	}
	logger.Debug("analyzer responded", "model", res.Model, "bytes", len(res.Raw), "took", time.Since(started).Round(time.Millisecond))

	doc, err = parseAnalysis(res.Raw, s.opts.RangePolicy)

	sess.Lock()
	defer sess.Unlock()

	if cerr := ctx.Err(); cerr != nil {
		return models.LayoutDocument{}, cerr
	}
	if err != nil {
		// сырой ответ сохраняется для разбора причин
		if _, perr := s.blobs.Put(ctx, blob.AnalysisRawKey(sessionID), []byte(res.Raw), "text/plain"); perr != nil {
			logger.Warn("save raw analysis", "err", perr)
		}
		logger.Warn("analysis rejected", "err", err)
		return models.LayoutDocument{}, err
	}

	if !sess.commitLocked(tk) {
		return models.LayoutDocument{}, apperr.New(apperr.KindStaleResult, "a newer analysis was already saved")
	}

	if _, err := s.blobs.Put(ctx, blob.SourceKey(sessionID, blob.ExtensionFor(mimeType)), img.Data, mimeType); err != nil {
		return models.LayoutDocument{}, apperr.Wrap(apperr.KindInternal, err, "save source image")
	}
	if _, err := s.blobs.Put(ctx, blob.AnalysisRawKey(sessionID), []byte(res.Raw), "text/plain"); err != nil {
		logger.Warn("save raw analysis", "err", err)
	}
	if err := s.store.SaveOriginal(ctx, sessionID, doc); err != nil {
		return models.LayoutDocument{}, err
	}
	if err := s.store.SaveCurrent(ctx, sessionID, doc); err != nil {
		return models.LayoutDocument{}, err
	}

	logger.Info("layout analyzed", "objects", len(doc.Objects), "style", doc.Style)
	return doc, nil
}

// parseAnalysis превращает ответ модели в проверенный документ. Ошибка
// проверки становится ANALYSIS/schema с путём к полю.
func parseAnalysis(raw string, policy layout.Policy) (models.LayoutDocument, error) {
	doc, err := vision.ParseLayout(raw)
	if err != nil {
		return models.LayoutDocument{}, err
	}
	valid, err := layout.Validate(doc, layout.Options{Policy: policy})
	if err != nil {
		out := apperr.Wrap(apperr.KindAnalysis, err, "model output failed validation").
			WithSubkind(apperr.SubkindSchema).WithRaw(raw)
		if ve, ok := apperr.As(err); ok {
			out = out.WithField(ve.Field)
		}
		return models.LayoutDocument{}, out
	}
	return valid, nil
}

// ============================================================
// Update
// ============================================================

// Update сливает правки с базовой записью и сохраняет результат как current.
// Вся последовательность чтение → слияние → запись идёт под мьютексом сессии.
func (s *RoomService) Update(ctx context.Context, sessionID string, edits []models.ObjectEdit) (doc models.LayoutDocument, err error) {
	defer func() { s.metrics.observe("update", err) }()

	sess := s.locks.Acquire(sessionID)
	defer sess.Release()
	sess.Lock()
	defer sess.Unlock()

	var base models.LayoutDocument
	if s.opts.MergeBase == MergeBaseOriginal {
		base, err = s.store.LoadOriginal(ctx, sessionID)
	} else {
		base, err = s.store.LoadCurrent(ctx, sessionID, true)
	}
	if apperr.Is(err, apperr.KindNotFound) {
		return models.LayoutDocument{}, apperr.New(apperr.KindPrecondition, "session %s has no analyzed layout", sessionID)
	}
	if err != nil {
		return models.LayoutDocument{}, err
	}

	merged, err := layout.Merge(base, edits)
	if err != nil {
		return models.LayoutDocument{}, err
	}
	if s.opts.ValidateOnMerge {
		merged, err = layout.Validate(merged, layout.Options{Policy: s.opts.RangePolicy})
		if err != nil {
			return models.LayoutDocument{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return models.LayoutDocument{}, err
	}
	if err := s.store.SaveCurrent(ctx, sessionID, merged); err != nil {
		return models.LayoutDocument{}, err
	}
	sess.layoutChangedLocked()

	s.logger(ctx).Debug("layout updated", "session", sessionID, "edits", len(edits), "objects", len(merged.Objects))
	return merged, nil
}

// Layout отдаёт original или, при preferUpdated, current с откатом на original.
func (s *RoomService) Layout(ctx context.Context, sessionID string, preferUpdated bool) (models.LayoutDocument, error) {
	return s.store.LoadCurrent(ctx, sessionID, preferUpdated)
}

// ============================================================
// Render
// ============================================================

// Render рисует текущую раскладку и сохраняет картинку под фиксированным
// ключом. Неудачный рендер ничего не меняет.
func (s *RoomService) Render(ctx context.Context, sessionID string, opts RenderOptions) (result RenderResult, err error) {
	defer func() { s.metrics.observe("render", err) }()
	logger := s.logger(ctx).With("session", sessionID, "op", "render")

	sess := s.locks.Acquire(sessionID)
	defer sess.Release()

	// версия раскладки берётся вместе с документом
	sess.Lock()
	doc, err := s.store.LoadCurrent(ctx, sessionID, true)
	tk := sess.begin(opRender)
	sess.Unlock()
	if apperr.Is(err, apperr.KindNotFound) {
		return RenderResult{}, apperr.New(apperr.KindPrecondition, "session %s has no layout to render", sessionID)
	}
	if err != nil {
		return RenderResult{}, err
	}

	req := render.Request{Layout: doc, RoomType: opts.RoomType, Style: opts.Style}
	if info, data, err := s.latest(ctx, sessionID, "source", acceptedTypes); err == nil {
		req.BaseImage, req.BaseMIMEType = data, info.ContentType
	} else if !errors.Is(err, blob.ErrNotFound) {
		return RenderResult{}, apperr.Wrap(apperr.KindInternal, err, "load source image")
	}

	rctx, cancel := withTimeout(ctx, s.opts.RenderTimeout)
	started := time.Now()
	img, err := s.renderer.Render(rctx, req)
	cancel()
	s.metrics.upstreamLatency("render", time.Since(started))
	if err != nil {
		logger.Warn("renderer failed", "err", err)
		return RenderResult{}, upstreamError(ctx, err, apperr.KindRender, "render layout")
	}
	if err := ctx.Err(); err != nil {
		return RenderResult{}, err
	}
	if len(img.Data) == 0 {
		return RenderResult{}, apperr.New(apperr.KindRender, "renderer returned an empty image")
	}
	if img.MIMEType == "" {
		img.MIMEType = http.DetectContentType(img.Data)
	}

	sess.Lock()
	defer sess.Unlock()

	if err := ctx.Err(); err != nil {
		return RenderResult{}, err
	}
	if !sess.commitLocked(tk) {
		return RenderResult{}, apperr.New(apperr.KindStaleResult, "layout changed or a newer render was saved while rendering")
	}

	info, err := s.blobs.Put(ctx, blob.RenderedKey(sessionID, blob.ExtensionFor(img.MIMEType)), img.Data, img.MIMEType)
	if err != nil {
		return RenderResult{}, apperr.Wrap(apperr.KindInternal, err, "save rendered image")
	}

	logger.Info("layout rendered", "key", info.Key, "bytes", info.Size, "took", time.Since(started).Round(time.Millisecond))
	return RenderResult{Key: info.Key, MIMEType: img.MIMEType, Size: info.Size}, nil
}

var renderedTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml"}

// RenderedImage отдаёт последний сохранённый рендер.
func (s *RoomService) RenderedImage(ctx context.Context, sessionID string) (blob.Info, []byte, error) {
	info, data, err := s.latest(ctx, sessionID, "rendered", renderedTypes)
	if errors.Is(err, blob.ErrNotFound) {
		return blob.Info{}, nil, apperr.New(apperr.KindNotFound, "session %s has no rendered image", sessionID)
	}
	if err != nil {
		return blob.Info{}, nil, apperr.Wrap(apperr.KindInternal, err, "load rendered image")
	}
	return info, data, nil
}

// SourceImage отдаёт загруженное фото.
func (s *RoomService) SourceImage(ctx context.Context, sessionID string) (blob.Info, []byte, error) {
	info, data, err := s.latest(ctx, sessionID, "source", acceptedTypes)
	if errors.Is(err, blob.ErrNotFound) {
		return blob.Info{}, nil, apperr.New(apperr.KindNotFound, "session %s has no source image", sessionID)
	}
	if err != nil {
		return blob.Info{}, nil, apperr.Wrap(apperr.KindInternal, err, "load source image")
	}
	return info, data, nil
}

// latest ищет самый свежий объект name.<ext> среди допустимых типов.
func (s *RoomService) latest(ctx context.Context, sessionID, name string, types []string) (blob.Info, []byte, error) {
	var found *blob.Info
	for _, t := range types {
		key := blob.SessionPrefix(sessionID) + "/" + name + blob.ExtensionFor(t)
		info, err := s.blobs.Head(ctx, key)
		if errors.Is(err, blob.ErrNotFound) {
			continue
		}
		if err != nil {
			return blob.Info{}, nil, err
		}
		if found == nil || info.LastModified.After(found.LastModified) {
			found = &info
		}
	}
	if found == nil {
		return blob.Info{}, nil, blob.ErrNotFound
	}
	return s.blobs.Get(ctx, found.Key)
}

// ============================================================
// Helpers
// ============================================================

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// upstreamError переводит ошибку модели в вид apperr. Отмена запроса
// клиентом возвращается как есть.
func upstreamError(ctx context.Context, err error, kind apperr.Kind, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindUpstreamTimeout, err, "%s timed out", op)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Wrap(kind, err, "%s failed", op)
}
