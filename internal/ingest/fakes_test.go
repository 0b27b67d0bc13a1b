package ingest_test

import (
	"context"
	"sync"

	"clubvid/internal/model"

	"gorm.io/gorm"
)

// memRepo 内存版元数据存储
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	videos map[int64]*model.Video

	createErr error
	updateErr error

	// beforeReplace 在取锁之前调用，测试用它让并发写入在同一点汇合
	beforeReplace func()
}

func newMemRepo() *memRepo {
	return &memRepo{videos: make(map[int64]*model.Video)}
}

func (r *memRepo) Create(ctx context.Context, video *model.Video) error {
	if r.createErr != nil {
		return r.createErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	video.ID = r.nextID
	cp := *video
	r.videos[video.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	applyUpdates(v, updates)
	cp := *v
	return &cp, nil
}

func (r *memRepo) ReplaceObjects(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, *model.Video, error) {
	if r.beforeReplace != nil {
		r.beforeReplace()
	}
	if r.updateErr != nil {
		return nil, nil, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	previous := *v
	applyUpdates(v, updates)
	current := *v
	return &current, &previous, nil
}

func applyUpdates(v *model.Video, updates map[string]interface{}) {
	for k, val := range updates {
		switch k {
		case "title":
			v.Title = val.(string)
		case "category":
			v.Category = val.(string)
		case "description":
			v.Description = val.(string)
		case "original_name":
			v.OriginalName = val.(string)
		case "raw_object_key":
			v.RawObjectKey = val.(string)
		case "thumbnail_object_key":
			v.ThumbnailObjectKey = val.(string)
		case "duration_seconds":
			v.DurationSeconds = val.(float64)
		}
	}
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.videos)
}
