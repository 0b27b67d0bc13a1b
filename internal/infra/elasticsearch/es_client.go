package elasticsearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clubvid/internal/config"
	"clubvid/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// Client 视频搜索索引客户端
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New 初始化 Elasticsearch 客户端并测试连接
func New(ctx context.Context, cfg *config.ElasticsearchConfig) (*Client, error) {
	hosts := make([]string, 0, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		h = strings.TrimSpace(h)
		if h != "" && !strings.HasPrefix(h, "http") {
			h = "http://" + h
		}
		if h != "" {
			hosts = append(hosts, h)
		}
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("elasticsearch hosts is empty")
	}

	c, err := newClient(elasticsearch.Config{
		Addresses:     hosts,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * time.Second },
	}, cfg.VideosIndex())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("elasticsearch ping failed: %s", resp.String())
	}

	logger.Info("Elasticsearch connected",
		zap.Strings("hosts", hosts),
		zap.String("index", c.index),
	)
	return c, nil
}

func newClient(esCfg elasticsearch.Config, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, index: index}, nil
}

// Index 返回视频索引名
func (c *Client) Index() string {
	return c.index
}

// EnsureIndex 确保视频索引存在，不存在则创建
func (c *Client) EnsureIndex(ctx context.Context) error {
	resp, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		logger.Info("Elasticsearch videos index already exists", zap.String("index", c.index))
		return nil
	}

	resp, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(videosIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch videos index created", zap.String("index", c.index))
	return nil
}

// videosIndexMapping 标题/分类/描述用于全文检索，分类额外保留 keyword 子字段
const videosIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"id": {"type": "long"},
			"title": {
				"type": "text",
				"fields": {"keyword": {"type": "keyword", "ignore_above": 200}}
			},
			"category": {
				"type": "text",
				"fields": {"keyword": {"type": "keyword", "ignore_above": 100}}
			},
			"description": {"type": "text"},
			"original_name": {"type": "keyword"},
			"duration_seconds": {"type": "float"},
			"uploaded_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
		}
	}
}`
