package ingest

import "errors"

var (
	// ErrStorage 对象存储不可用或写入失败
	ErrStorage = errors.New("object storage failure")
	// ErrPersistence 元数据写入失败
	ErrPersistence = errors.New("metadata persistence failure")
	// ErrInvalidUpload 上传文件不合法（空文件、超限、扩展名不支持）
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrVideoNotFound 视频记录不存在
	ErrVideoNotFound = errors.New("video not found")
	// ErrNoFieldsToUpdate 没有需要更新的字段
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
