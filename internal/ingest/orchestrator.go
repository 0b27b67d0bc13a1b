// Package ingest 视频入库流水线：上传原始文件 → 探测时长 → 生成封面 → 写入元数据。
// 任一步骤失败都会删除本次已上传的对象，不留下孤儿对象，也不留下指向缺失对象的记录。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubvid/internal/infra/metrics"
	"clubvid/internal/media"
	"clubvid/internal/model"
	"clubvid/internal/storage"
	"clubvid/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCleanupTimeout = 30 * time.Second

// Repository 流水线需要的元数据存储操作
type Repository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id int64) (*model.Video, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, error)
	// ReplaceObjects 锁住记录写入新对象键，返回更新后的记录和被替换前的记录
	ReplaceObjects(ctx context.Context, id int64, updates map[string]interface{}) (current, previous *model.Video, err error)
}

// ThumbnailGenerator 封面生成，duration 为流水线已探测到的时长
type ThumbnailGenerator interface {
	GenerateProbed(ctx context.Context, source, uploadID string, duration float64) (string, error)
}

type Orchestrator struct {
	store      storage.ObjectStore
	prober     media.Prober
	thumbnails ThumbnailGenerator
	repo       Repository

	probeURLTTL    time.Duration
	maxUploadSize  int64
	cleanupTimeout time.Duration
	now            func() time.Time
	newUploadID    func() string
	tracer         trace.Tracer
}

type Option func(*Orchestrator)

// WithMaxUploadSize 单个文件大小上限（字节）
func WithMaxUploadSize(n int64) Option {
	return func(o *Orchestrator) { o.maxUploadSize = n }
}

// WithCleanupTimeout 补偿删除的超时时间
func WithCleanupTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.cleanupTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithUploadIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newUploadID = fn }
}

func NewOrchestrator(store storage.ObjectStore, prober media.Prober, thumbnails ThumbnailGenerator, repo Repository, probeURLTTL time.Duration, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:          store,
		prober:         prober,
		thumbnails:     thumbnails,
		repo:           repo,
		probeURLTTL:    probeURLTTL,
		cleanupTimeout: defaultCleanupTimeout,
		now:            time.Now,
		newUploadID:    uuid.NewString,
		tracer:         otel.Tracer("clubvid/ingest"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// staged 一次尝试中已经写入对象存储、尚未被记录引用的对象
type staged struct {
	uploadID     string
	rawKey       string
	thumbnailKey string
	duration     float64
	uploadedAt   time.Time
}

func (s *staged) keys() []string {
	keys := []string{s.rawKey}
	if s.thumbnailKey != "" {
		keys = append(keys, s.thumbnailKey)
	}
	return keys
}

// Ingest 新建视频。成功时返回的记录一定同时带有原始对象键和封面对象键。
func (o *Orchestrator) Ingest(ctx context.Context, up Upload, meta Metadata) (video *model.Video, err error) {
	ctx, span := o.tracer.Start(ctx, "ingest.Ingest")
	defer func() { o.finish(span, "ingest", err) }()

	if err := up.Validate(o.maxUploadSize); err != nil {
		return nil, err
	}

	st, err := o.stage(ctx, up)
	if err != nil {
		return nil, err
	}

	video = &model.Video{
		OriginalName:       up.OriginalName,
		Title:              meta.Title,
		Category:           meta.Category,
		Description:        meta.Description,
		RawObjectKey:       st.rawKey,
		ThumbnailObjectKey: st.thumbnailKey,
		DurationSeconds:    st.duration,
		UploadedAt:         st.uploadedAt,
	}

	persistStart := time.Now()
	createErr := o.repo.Create(ctx, video)
	metrics.IngestStageDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())
	if createErr != nil {
		err := fmt.Errorf("%w: create video: %w", ErrPersistence, createErr)
		return nil, o.compensate(ctx, err, st.keys()...)
	}

	logger.Info("Video ingested",
		zap.Int64("video_id", video.ID),
		zap.String("raw_key", st.rawKey),
		zap.String("thumbnail_key", st.thumbnailKey),
		zap.Float64("duration", st.duration),
	)
	return video, nil
}

// Reingest 重新上传。up 为 nil 时只更新元数据。
// 旧的原始对象和封面在新记录写入成功之后才删除；删除的是写入时实际被替换掉的键，
// 同一视频的并发重传各自清理自己替换下来的对象。
func (o *Orchestrator) Reingest(ctx context.Context, id int64, up *Upload, patch MetadataPatch) (video *model.Video, err error) {
	if up == nil {
		return o.UpdateMetadata(ctx, id, patch)
	}

	ctx, span := o.tracer.Start(ctx, "ingest.Reingest", trace.WithAttributes(attribute.Int64("video_id", id)))
	defer func() { o.finish(span, "reingest", err) }()

	if err := up.Validate(o.maxUploadSize); err != nil {
		return nil, err
	}

	if _, err := o.repo.GetByID(ctx, id); err != nil {
		return nil, mapRepoError(err, id)
	}

	st, err := o.stage(ctx, *up)
	if err != nil {
		return nil, err
	}

	updates := patch.updates()
	updates["original_name"] = up.OriginalName
	updates["raw_object_key"] = st.rawKey
	updates["thumbnail_object_key"] = st.thumbnailKey
	updates["duration_seconds"] = st.duration
	updates["uploaded_at"] = st.uploadedAt

	persistStart := time.Now()
	video, old, updateErr := o.repo.ReplaceObjects(ctx, id, updates)
	metrics.IngestStageDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())
	if updateErr != nil {
		return nil, o.compensate(ctx, mapRepoError(updateErr, id), st.keys()...)
	}

	// 记录已指向新对象，旧对象可以删除；删除失败只记日志，新版本已经生效
	if cleanupErr := o.deleteObjects(ctx, old.RawObjectKey, old.ThumbnailObjectKey); cleanupErr != nil {
		logger.Error("Failed to delete replaced objects",
			zap.Int64("video_id", id),
			zap.String("raw_key", old.RawObjectKey),
			zap.String("thumbnail_key", old.ThumbnailObjectKey),
			zap.Error(cleanupErr),
		)
	}

	logger.Info("Video reingested",
		zap.Int64("video_id", id),
		zap.String("raw_key", st.rawKey),
		zap.String("thumbnail_key", st.thumbnailKey),
		zap.Float64("duration", st.duration),
	)
	return video, nil
}

// UpdateMetadata 只修改标题、分类、描述，不触碰对象存储
func (o *Orchestrator) UpdateMetadata(ctx context.Context, id int64, patch MetadataPatch) (*model.Video, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	video, err := o.repo.Update(ctx, id, patch.updates())
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	return video, nil
}

// stage 依次执行 UPLOADING_RAW、PROBING、THUMBNAILING。
// 返回错误时本次写入的对象已被删除。
func (o *Orchestrator) stage(ctx context.Context, up Upload) (*staged, error) {
	st := &staged{
		uploadID:   o.newUploadID(),
		uploadedAt: o.now(),
	}
	st.rawKey = RawKey(st.uploadedAt, st.uploadID, up.OriginalName)

	if err := o.timed(ctx, "upload_raw", func(ctx context.Context) error {
		return o.store.Put(ctx, st.rawKey, up.Reader, up.Size, up.contentType())
	}); err != nil {
		// 取消时服务端可能已经落盘，删除不存在的键是幂等的
		err = fmt.Errorf("%w: upload %s: %w", ErrStorage, st.rawKey, err)
		return nil, o.compensate(ctx, err, st.rawKey)
	}

	var source string
	if err := o.timed(ctx, "probe", func(ctx context.Context) error {
		url, err := o.store.SignedURL(ctx, st.rawKey, o.probeURLTTL)
		if err != nil {
			return fmt.Errorf("%w: sign %s: %w", ErrStorage, st.rawKey, err)
		}
		source = url

		d, err := o.prober.ProbeDuration(ctx, source)
		if err != nil {
			if !errors.Is(err, media.ErrUnreadableMedia) {
				err = fmt.Errorf("%w: %w", media.ErrUnreadableMedia, err)
			}
			return err
		}
		st.duration = d
		return nil
	}); err != nil {
		return nil, o.compensate(ctx, err, st.rawKey)
	}

	if err := o.timed(ctx, "thumbnail", func(ctx context.Context) error {
		key, err := o.thumbnails.GenerateProbed(ctx, source, st.uploadID, st.duration)
		if err != nil {
			return err
		}
		st.thumbnailKey = key
		return nil
	}); err != nil {
		if errors.Is(err, media.ErrTimestampOutOfRange) {
			logger.Error("Thumbnail timestamp outside probed duration",
				zap.String("raw_key", st.rawKey),
				zap.Float64("duration", st.duration),
				zap.Error(err),
			)
		} else if !errors.Is(err, media.ErrUnreadableMedia) {
			err = fmt.Errorf("%w: thumbnail: %w", ErrStorage, err)
		}
		return nil, o.compensate(ctx, err, st.rawKey)
	}

	return st, nil
}

func (o *Orchestrator) timed(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "ingest."+stage)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.IngestStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// compensate 删除本次尝试写入的对象后返回 cause。
// 使用脱离调用方取消信号的 context，客户端断开也会完成清理。
func (o *Orchestrator) compensate(ctx context.Context, cause error, keys ...string) error {
	if cleanupErr := o.deleteObjects(ctx, keys...); cleanupErr != nil {
		logger.Error("Compensating delete failed, objects may be orphaned",
			zap.Strings("keys", keys),
			zap.NamedError("cause", cause),
			zap.Error(cleanupErr),
		)
		return errors.Join(cause, cleanupErr)
	}
	logger.Warn("Ingestion aborted, staged objects removed",
		zap.Strings("keys", keys),
		zap.Error(cause),
	)
	return cause
}

func (o *Orchestrator) deleteObjects(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cleanupTimeout)
	defer cancel()

	var errs []error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := o.store.Delete(ctx, key); err != nil {
			metrics.CompensationsTotal.WithLabelValues("failed").Inc()
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		metrics.CompensationsTotal.WithLabelValues("deleted").Inc()
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) finish(span trace.Span, operation string, err error) {
	metrics.IngestTotal.WithLabelValues(operation, Classify(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Classify 返回错误类别，用于指标标签与 HTTP 映射
func Classify(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidUpload):
		return "invalid_upload"
	case errors.Is(err, ErrVideoNotFound):
		return "not_found"
	case errors.Is(err, media.ErrTimestampOutOfRange):
		return "timestamp_out_of_range"
	case errors.Is(err, media.ErrUnreadableMedia):
		return "unreadable_media"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}

func mapRepoError(err error, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id %d", ErrVideoNotFound, id)
	}
	return fmt.Errorf("%w: video %d: %w", ErrPersistence, id, err)
}
