package ingest

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// AllowedExtensions 允许上传的视频扩展名
var AllowedExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

const maxKeyNameLen = 100

// Upload 一次上传的原始文件
type Upload struct {
	Reader       io.Reader
	Size         int64
	OriginalName string
	ContentType  string
}

// Metadata 用户填写的视频信息
type Metadata struct {
	Title       string
	Category    string
	Description string
}

// MetadataPatch 部分更新，nil 表示不修改
type MetadataPatch struct {
	Title       *string
	Category    *string
	Description *string
}

// IsEmpty 判断是否没有任何字段
func (p MetadataPatch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Description == nil
}

func (p MetadataPatch) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Category != nil {
		updates["category"] = *p.Category
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	return updates
}

// Validate 校验大小与扩展名，maxSize <= 0 表示不限制
func (u *Upload) Validate(maxSize int64) error {
	if u.Reader == nil || u.Size == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidUpload)
	}
	if maxSize > 0 && u.Size > maxSize {
		return fmt.Errorf("%w: file size %d exceeds limit %d", ErrInvalidUpload, u.Size, maxSize)
	}
	ext := strings.ToLower(filepath.Ext(u.OriginalName))
	if _, ok := AllowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: unsupported file type %q", ErrInvalidUpload, ext)
	}
	return nil
}

func (u *Upload) contentType() string {
	if u.ContentType != "" && u.ContentType != "application/octet-stream" {
		return u.ContentType
	}
	ext := strings.ToLower(filepath.Ext(u.OriginalName))
	if ct, ok := AllowedExtensions[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// RawKey 原始视频对象键：videos/<毫秒时间戳>-<uploadID>-<清洗后的文件名>
func RawKey(now time.Time, uploadID, originalName string) string {
	return fmt.Sprintf("videos/%d-%s-%s", now.UnixMilli(), uploadID, sanitizeName(originalName))
}

// sanitizeName 只保留 ASCII 字母数字和 . _ -，其余替换为 _
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == utf8.RuneError:
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if len(out) > maxKeyNameLen {
		out = out[len(out)-maxKeyNameLen:]
	}
	if out == "" {
		return "video"
	}
	return out
}
