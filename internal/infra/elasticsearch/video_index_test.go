package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"clubvid/internal/model"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport 返回固定响应并记录请求
type fakeTransport struct {
	status   int
	body     string
	requests []*http.Request
	bodies   []string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		f.bodies = append(f.bodies, string(b))
	}
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func newTestClient(t *testing.T, tr *fakeTransport) *Client {
	t.Helper()
	c, err := newClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: tr,
	}, "clubvid_videos")
	require.NoError(t, err)
	return c
}

func TestSearchVideoIDs(t *testing.T) {
	tr := &fakeTransport{status: 200, body: `{
		"hits": {
			"total": {"value": 3, "relation": "eq"},
			"hits": [{"_id": "12"}, {"_id": "bogus"}, {"_id": "4"}]
		}
	}`}
	c := newTestClient(t, tr)

	ids, total, err := c.SearchVideoIDs(context.Background(), "  warmup ", 20, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 4}, ids)
	assert.Equal(t, int64(3), total)

	require.Len(t, tr.requests, 1)
	assert.Equal(t, "/clubvid_videos/_search", tr.requests[0].URL.Path)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(tr.bodies[0]), &sent))
	assert.EqualValues(t, 20, sent["from"])
	assert.EqualValues(t, 10, sent["size"])
	mm := sent["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "warmup", mm["query"])
}

func TestSearchVideoIDs_ErrorStatus(t *testing.T) {
	c := newTestClient(t, &fakeTransport{status: 500, body: `{"error":"boom"}`})

	_, _, err := c.SearchVideoIDs(context.Background(), "x", 0, 10)
	assert.Error(t, err)
}

func TestDeleteVideo_MissingIsOK(t *testing.T) {
	c := newTestClient(t, &fakeTransport{status: 404, body: `{"result":"not_found"}`})
	assert.NoError(t, c.DeleteVideo(context.Background(), 9))
}

func TestIndexVideo_DocumentHasNoObjectKeys(t *testing.T) {
	tr := &fakeTransport{status: 201, body: `{"result":"created"}`}
	c := newTestClient(t, tr)

	err := c.IndexVideo(context.Background(), &model.Video{
		ID:                 5,
		Title:              "Penalty drills",
		Category:           "training",
		RawObjectKey:       "videos/1-a-b.mp4",
		ThumbnailObjectKey: "thumbnails/a.jpg",
		DurationSeconds:    61.5,
		UploadedAt:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "/clubvid_videos/_doc/5", tr.requests[0].URL.Path)
	assert.NotContains(t, tr.bodies[0], "videos/1-a-b.mp4")
	assert.NotContains(t, tr.bodies[0], "thumbnails/a.jpg")
	assert.Contains(t, tr.bodies[0], `"uploaded_at":"2024-03-01T12:00:00Z"`)
}

func TestBulkIndexVideos(t *testing.T) {
	tr := &fakeTransport{status: 200, body: `{
		"errors": true,
		"items": [{"index": {"status": 201}}, {"index": {"status": 400}}]
	}`}
	c := newTestClient(t, tr)

	success, failed, err := c.BulkIndexVideos(context.Background(), []model.Video{{ID: 1}, {ID: 2}})
	require.NoError(t, err)
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, strings.Count(tr.bodies[0], "\n"))
}

func TestBulkIndexVideos_Empty(t *testing.T) {
	tr := &fakeTransport{status: 200}
	c := newTestClient(t, tr)

	success, failed, err := c.BulkIndexVideos(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, success+failed)
	assert.Empty(t, tr.requests)
}
