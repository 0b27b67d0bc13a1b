package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventVideoCreated = "video.created"
	EventVideoUpdated = "video.updated"
	EventVideoDeleted = "video.deleted"
)

// VideoEvent 视频变更事件，worker 据此同步搜索索引
type VideoEvent struct {
	Type       string    `json:"type"`
	VideoID    int64     `json:"video_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *VideoEvent) key() []byte {
	return []byte(fmt.Sprintf("video-%d", e.VideoID))
}

// DecodeVideoEvent 解析消息体
func DecodeVideoEvent(value []byte) (*VideoEvent, error) {
	var event VideoEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video event: %w", err)
	}
	switch event.Type {
	case EventVideoCreated, EventVideoUpdated, EventVideoDeleted:
	default:
		return nil, fmt.Errorf("unknown video event type %q", event.Type)
	}
	if event.VideoID <= 0 {
		return nil, fmt.Errorf("video event without video id")
	}
	return &event, nil
}
