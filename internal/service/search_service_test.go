package service

import (
	"context"
	"errors"
	"testing"

	"clubvid/internal/infra/kafka"
	"clubvid/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_NoIndexUsesDB(t *testing.T) {
	videos := newMemVideos()
	require.NoError(t, videos.Create(context.Background(), &model.Video{Title: "Goalkeeping", Category: "training"}))
	require.NoError(t, videos.Create(context.Background(), &model.Video{Title: "Derby", Category: "matches"}))

	s := NewSearchService(nil, videos)
	got, total, err := s.Search(context.Background(), "goal", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "Goalkeeping", got[0].Title)
}

func TestSearchService_EmptyIndexResult(t *testing.T) {
	searcher := &mockSearcher{}
	searcher.On("SearchVideoIDs", "none", 20, 20).Return([]int64{}, int64(0), nil)

	got, total, err := NewSearchService(searcher, newMemVideos()).Search(context.Background(), "none", 2, 20)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, total)
}

func TestIndexSyncService_HandleEvent(t *testing.T) {
	videos := newMemVideos()
	require.NoError(t, videos.Create(context.Background(), &model.Video{Title: "Derby"}))

	indexer := &mockIndexer{}
	indexer.On("IndexVideo", int64(1)).Return(nil).Once()
	indexer.On("DeleteVideo", int64(2)).Return(nil).Twice()

	s := NewIndexSyncService(indexer, videos)
	ctx := context.Background()

	require.NoError(t, s.HandleEvent(ctx, &kafka.VideoEvent{Type: kafka.EventVideoCreated, VideoID: 1}))
	require.NoError(t, s.HandleEvent(ctx, &kafka.VideoEvent{Type: kafka.EventVideoDeleted, VideoID: 2}))
	// 更新事件到达时记录已被删除
	require.NoError(t, s.HandleEvent(ctx, &kafka.VideoEvent{Type: kafka.EventVideoUpdated, VideoID: 2}))

	indexer.AssertExpectations(t)
}

func TestIndexSyncService_HandleEventIndexError(t *testing.T) {
	videos := newMemVideos()
	require.NoError(t, videos.Create(context.Background(), &model.Video{Title: "Derby"}))

	indexer := &mockIndexer{}
	indexer.On("IndexVideo", int64(1)).Return(errors.New("es down"))

	err := NewIndexSyncService(indexer, videos).HandleEvent(context.Background(),
		&kafka.VideoEvent{Type: kafka.EventVideoUpdated, VideoID: 1})
	assert.Error(t, err)
}

func TestIndexSyncService_Reindex(t *testing.T) {
	videos := newMemVideos()
	for i := 0; i < 5; i++ {
		require.NoError(t, videos.Create(context.Background(), &model.Video{Title: "v"}))
	}

	indexer := &mockIndexer{}
	indexer.On("BulkIndexVideos", 2).Return(2, 0, nil).Twice()
	indexer.On("BulkIndexVideos", 1).Return(0, 1, nil).Once()

	n, err := NewIndexSyncService(indexer, videos).Reindex(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	indexer.AssertExpectations(t)
}

func TestIndexSyncService_ReindexListError(t *testing.T) {
	videos := newMemVideos()
	videos.listErr = errors.New("db down")

	_, err := NewIndexSyncService(&mockIndexer{}, videos).Reindex(context.Background(), 10)
	assert.Error(t, err)
}
