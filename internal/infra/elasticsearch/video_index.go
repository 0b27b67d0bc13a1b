package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clubvid/internal/model"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
)

// VideoDoc ES 视频文档，不含对象键
type VideoDoc struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	OriginalName    string  `json:"original_name"`
	DurationSeconds float64 `json:"duration_seconds"`
	UploadedAt      string  `json:"uploaded_at"`
}

func videoToDoc(v *model.Video) *VideoDoc {
	return &VideoDoc{
		ID:              v.ID,
		Title:           v.Title,
		Category:        v.Category,
		Description:     v.Description,
		OriginalName:    v.OriginalName,
		DurationSeconds: v.DurationSeconds,
		UploadedAt:      v.UploadedAt.UTC().Format(time.RFC3339),
	}
}

// IndexVideo 写入或覆盖单个视频文档
func (c *Client) IndexVideo(ctx context.Context, v *model.Video) error {
	body, err := json.Marshal(videoToDoc(v))
	if err != nil {
		return err
	}

	resp, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(strconv.FormatInt(v.ID, 10)),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document failed: %s", resp.String())
	}

	logger.Debug("Video synced to ES", zap.Int64("video_id", v.ID))
	return nil
}

// DeleteVideo 从 ES 删除视频，文档不存在不视为错误
func (c *Client) DeleteVideo(ctx context.Context, videoID int64) error {
	resp, err := c.es.Delete(
		c.index,
		strconv.FormatInt(videoID, 10),
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document failed: %s", resp.String())
	}
	return nil
}

// BulkIndexVideos 批量同步视频到 ES（worker 启动时全量重建）
func (c *Client) BulkIndexVideos(ctx context.Context, videos []model.Video) (success, failed int, err error) {
	var buf bytes.Buffer
	for i := range videos {
		docBody, err := json.Marshal(videoToDoc(&videos[i]))
		if err != nil {
			return 0, len(videos), err
		}
		fmt.Fprintf(&buf, `{"index":{"_index":%q,"_id":"%d"}}`, c.index, videos[i].ID)
		buf.WriteByte('\n')
		buf.Write(docBody)
		buf.WriteByte('\n')
	}

	if buf.Len() == 0 {
		return 0, 0, nil
	}

	resp, err := c.es.Bulk(&buf, c.es.Bulk.WithContext(ctx))
	if err != nil {
		return 0, len(videos), err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, len(videos), fmt.Errorf("bulk failed: %s", resp.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				Status int `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return 0, len(videos), fmt.Errorf("decode bulk response: %w", err)
	}

	for _, item := range bulkResp.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			success++
		} else {
			failed++
		}
	}

	logger.Info("Bulk sync to ES completed", zap.Int("success", success), zap.Int("failed", failed))
	return success, failed, nil
}

// SearchVideoIDs 按相关度返回匹配视频 ID 及总命中数
func (c *Client) SearchVideoIDs(ctx context.Context, query string, from, size int) ([]int64, int64, error) {
	body, err := json.Marshal(buildSearchQuery(query, from, size))
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, 0, fmt.Errorf("search failed: %s", resp.String())
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]int64, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, result.Hits.Total.Value, nil
}

func buildSearchQuery(query string, from, size int) map[string]interface{} {
	return map[string]interface{}{
		"from":    from,
		"size":    size,
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     strings.TrimSpace(query),
				"fields":    []string{"title^3", "category^2", "description"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"uploaded_at": map[string]string{"order": "desc"}},
		},
	}
}
