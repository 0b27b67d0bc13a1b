package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clubvid/internal/model"
	"clubvid/internal/repository"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// memVideos 同时实现 VideoStore 与 ingest.Repository
type memVideos struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Video
	favs   map[[2]int64]bool

	listErr error
}

func newMemVideos() *memVideos {
	return &memVideos{rows: make(map[int64]model.Video), favs: make(map[[2]int64]bool)}
}

func (m *memVideos) Create(ctx context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	m.rows[v.ID] = *v
	return nil
}

func (m *memVideos) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (m *memVideos) GetByIDs(ctx context.Context, ids []int64) ([]model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.rows[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memVideos) Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, error) {
	current, _, err := m.ReplaceObjects(ctx, id, updates)
	return current, err
}

func (m *memVideos) ReplaceObjects(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, *model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	previous := v
	if t, ok := updates["title"].(string); ok {
		v.Title = t
	}
	if c, ok := updates["category"].(string); ok {
		v.Category = c
	}
	if d, ok := updates["description"].(string); ok {
		v.Description = d
	}
	if k, ok := updates["raw_object_key"].(string); ok {
		v.RawObjectKey = k
	}
	if k, ok := updates["thumbnail_object_key"].(string); ok {
		v.ThumbnailObjectKey = k
	}
	m.rows[id] = v
	return &v, &previous, nil
}

func (m *memVideos) Delete(ctx context.Context, id int64) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	for k := range m.favs {
		if k[1] == id {
			delete(m.favs, k)
		}
	}
	return &v, nil
}

func (m *memVideos) List(ctx context.Context, filter repository.VideoFilter, skip, limit int) ([]model.Video, int64, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.Video
	for _, v := range m.rows {
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			hay := strings.ToLower(v.Title + " " + v.Category + " " + v.Description)
			if !strings.Contains(hay, q) {
				continue
			}
		}
		if filter.FavoriteOfUser != 0 && !m.favs[[2]int64{filter.FavoriteOfUser, v.ID}] {
			continue
		}
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	if skip >= len(all) {
		return []model.Video{}, total, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], total, nil
}

func (m *memVideos) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

// FavoriteStore / FavoriteLookup
func (m *memVideos) Toggle(ctx context.Context, userID, videoID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]int64{userID, videoID}
	if m.favs[k] {
		delete(m.favs, k)
		return false, nil
	}
	m.favs[k] = true
	return true, nil
}

func (m *memVideos) Exists(ctx context.Context, userID, videoID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favs[[2]int64{userID, videoID}], nil
}

func (m *memVideos) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]model.Favorite, int64, error) {
	videos, total, err := m.List(ctx, repository.VideoFilter{FavoriteOfUser: userID}, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	favs := make([]model.Favorite, 0, len(videos))
	for _, v := range videos {
		favs = append(favs, model.Favorite{UserID: userID, VideoID: v.ID, Video: v})
	}
	return favs, total, nil
}

func (m *memVideos) BatchCheckFavorited(ctx context.Context, userID int64, videoIDs []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]bool, len(videoIDs))
	for _, id := range videoIDs {
		if m.favs[[2]int64{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishVideoEvent(ctx context.Context, eventType string, videoID int64) error {
	return m.Called(eventType, videoID).Error(0)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchVideoIDs(ctx context.Context, query string, from, size int) ([]int64, int64, error) {
	args := m.Called(query, from, size)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Get(1).(int64), args.Error(2)
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) IndexVideo(ctx context.Context, v *model.Video) error {
	return m.Called(v.ID).Error(0)
}

func (m *mockIndexer) DeleteVideo(ctx context.Context, videoID int64) error {
	return m.Called(videoID).Error(0)
}

func (m *mockIndexer) BulkIndexVideos(ctx context.Context, videos []model.Video) (int, int, error) {
	args := m.Called(len(videos))
	return args.Int(0), args.Int(1), args.Error(2)
}
