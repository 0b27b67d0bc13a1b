package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRawKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "clip.mp4", "videos/1700000000123-id-clip.mp4"},
		{"spaces", "my clip (final).mov", "videos/1700000000123-id-my_clip__final_.mov"},
		{"path traversal", "../../etc/passwd.mp4", "videos/1700000000123-id-passwd.mp4"},
		{"windows path", `C:\Users\a\b.mkv`, "videos/1700000000123-id-b.mkv"},
		{"unicode", "训练.mp4", "videos/1700000000123-id-__.mp4"},
		{"empty", "", "videos/1700000000123-id-video"},
		{"dots only", "...", "videos/1700000000123-id-video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RawKey(now, "id", tt.in))
		})
	}
}

func TestSanitizeName_KeepsExtensionWhenTruncating(t *testing.T) {
	long := strings.Repeat("a", 300) + ".webm"
	got := sanitizeName(long)
	assert.Len(t, got, maxKeyNameLen)
	assert.True(t, strings.HasSuffix(got, ".webm"))
}

func TestUpload_ContentType(t *testing.T) {
	assert.Equal(t, "video/quicktime", (&Upload{OriginalName: "a.MOV"}).contentType())
	assert.Equal(t, "video/mp4", (&Upload{OriginalName: "a.mp4", ContentType: "application/octet-stream"}).contentType())
	assert.Equal(t, "video/custom", (&Upload{OriginalName: "a.mp4", ContentType: "video/custom"}).contentType())
}

func TestMetadataPatch(t *testing.T) {
	assert.True(t, MetadataPatch{}.IsEmpty())
	d := ""
	p := MetadataPatch{Description: &d}
	assert.False(t, p.IsEmpty())
	assert.Equal(t, map[string]interface{}{"description": ""}, p.updates())
}
