package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"clubvid/internal/api/handler"
	"clubvid/internal/api/router"
	"clubvid/internal/config"
	"clubvid/internal/ingest"
	"clubvid/internal/media/mediatest"
	"clubvid/internal/model"
	"clubvid/internal/repository"
	"clubvid/internal/service"
	"clubvid/internal/storage"
	"clubvid/internal/storage/storagetest"
	"clubvid/internal/thumbnail"
	"clubvid/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memDB 内存版视频、收藏与用户存储
type memDB struct {
	mu     sync.Mutex
	videos map[int64]model.Video
	favs   map[[2]int64]bool
	users  []model.User
	nextID int64
}

func newMemDB() *memDB {
	return &memDB{videos: make(map[int64]model.Video), favs: make(map[[2]int64]bool)}
}

func (m *memDB) Create(ctx context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	m.videos[v.ID] = *v
	return nil
}

func (m *memDB) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (m *memDB) GetByIDs(ctx context.Context, ids []int64) ([]model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memDB) Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, current, err := m.updateLocked(id, updates)
	return current, err
}

func (m *memDB) ReplaceObjects(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, *model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous, current, err := m.updateLocked(id, updates)
	return current, previous, err
}

func (m *memDB) updateLocked(id int64, updates map[string]interface{}) (*model.Video, *model.Video, error) {
	v, ok := m.videos[id]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	previous := v
	for field, val := range updates {
		switch field {
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
		}
	}
	m.videos[id] = v
	return &previous, &v, nil
}

func (m *memDB) Delete(ctx context.Context, id int64) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.videos, id)
	return &v, nil
}

func (m *memDB) List(ctx context.Context, filter repository.VideoFilter, skip, limit int) ([]model.Video, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Video
	for _, v := range m.videos {
		hay := strings.ToLower(v.Title + " " + v.Category + " " + v.Description)
		if filter.Search != "" && !strings.Contains(hay, strings.ToLower(filter.Search)) {
			continue
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
	end := min(skip+limit, len(all))
	return all[skip:end], total, nil
}

func (m *memDB) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.videos)), nil
}

func (m *memDB) Toggle(ctx context.Context, userID, videoID int64) (bool, error) {
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

func (m *memDB) Exists(ctx context.Context, userID, videoID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favs[[2]int64{userID, videoID}], nil
}

func (m *memDB) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]model.Favorite, int64, error) {
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

func (m *memDB) BatchCheckFavorited(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]bool)
	for _, id := range ids {
		if m.favs[[2]int64{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

// users 实现 service.UserStore
type users struct{ db *memDB }

func (u users) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.find(func(x model.User) bool { return x.ID == id })
}

func (u users) GetByUsername(ctx context.Context, name string) (*model.User, error) {
	return u.find(func(x model.User) bool { return x.UserName == name })
}

func (u users) Create(ctx context.Context, user *model.User) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	user.ID = int64(len(u.db.users) + 1)
	u.db.users = append(u.db.users, *user)
	return nil
}

func (u users) ExistsByUsername(ctx context.Context, name string) (bool, error) {
	_, err := u.GetByUsername(ctx, name)
	return err == nil, nil
}

func (u users) find(match func(model.User) bool) (*model.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, x := range u.db.users {
		if match(x) {
			return &x, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type testServer struct {
	engine      *gin.Engine
	db          *memDB
	store       *storagetest.MemStore
	prober      *mediatest.FakeProber
	adminToken  string
	memberToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{
		App: config.AppConfig{Name: "clubvid-test"},
		JWT: config.JWTConfig{Secret: "handler-test-secret", ExpireHours: 1},
	})

	db := newMemDB()
	store := storagetest.NewMemStore()
	prober := mediatest.NewFakeProber(10)
	gen := thumbnail.NewGenerator(prober, store, thumbnail.NewSeededSource(1))
	orch := ingest.NewOrchestrator(store, prober, gen, db, 15*time.Minute, ingest.WithMaxUploadSize(1<<20))
	signer := storage.NewCachingSigner(store, nil, time.Hour)

	search := service.NewSearchService(nil, db)
	videoSvc := service.NewVideoService(orch, db, store, signer, db, search, nil)
	favoriteSvc := service.NewFavoriteService(db, db, signer)
	authSvc := service.NewAuthService(users{db: db})

	r := gin.New()
	router.Setup(r,
		handler.NewAuthHandler(authSvc),
		handler.NewVideoHandler(videoSvc),
		handler.NewFavoriteHandler(favoriteSvc),
	)

	admin, err := utils.GenerateToken(100, model.RoleAdmin)
	require.NoError(t, err)
	member, err := utils.GenerateToken(200, model.RoleMember)
	require.NoError(t, err)

	return &testServer{engine: r, db: db, store: store, prober: prober, adminToken: admin, memberToken: member}
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, method, path, token, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return s.do(t, method, path, token, &buf, mw.FormDataContentType())
}

// decodeData 解析统一响应中的 data 字段
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
}
