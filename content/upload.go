package content

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/internal/logger"
)

// DefaultUploadURL is the public sm.ms upload endpoint.
const DefaultUploadURL = "https://sm.ms/api/upload?ssl=1&format=json"

// Uploader hosts an image and returns its public URL. A false result means
// the upload did not produce a usable URL; callers continue without it.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, bool)
}

// UploadBytes uploads an in-memory image.
func UploadBytes(ctx context.Context, u Uploader, filename string, data []byte) (string, bool) {
	if u == nil || len(data) == 0 {
		return "", false
	}
	return u.Upload(ctx, filename, bytes.NewReader(data))
}

// SMMSConfig 图床配置
type SMMSConfig struct {
	UploadURL string
	Token     string
	Timeout   time.Duration
}

// SMMSUploader uploads to an sm.ms compatible image host.
type SMMSUploader struct {
	client    *resty.Client
	uploadURL string
}

// NewSMMSUploader 创建图床上传器
func NewSMMSUploader(cfg SMMSConfig) *SMMSUploader {
	uploadURL := cfg.UploadURL
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetHeader("Authorization", cfg.Token)
	}

	return &SMMSUploader{
		client:    client,
		uploadURL: uploadURL,
	}
}

// Upload posts the image as multipart field "smfile".
func (u *SMMSUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, bool) {
	if filename == "" {
		filename = "image"
	}

	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("smfile", filename, r).
		Post(u.uploadURL)
	if err != nil {
		logger.Warn("Image upload failed", zap.Error(err))
		return "", false
	}
	if !resp.IsSuccess() {
		logger.Warn("Image upload rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 256)),
		)
		return "", false
	}

	url, ok := parseUploadEnvelope(resp.Body())
	if !ok {
		logger.Warn("Unexpected image upload response", zap.String("body", truncate(resp.String(), 256)))
	}
	return url, ok
}

// parseUploadEnvelope reads {"code":"success","data":{"url":...}}. A duplicate
// upload reports "image_repeated" together with the existing URL.
func parseUploadEnvelope(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	result := gjson.ParseBytes(body)

	var url string
	switch result.Get("code").String() {
	case "success":
		url = result.Get("data.url").String()
	case "image_repeated":
		url = result.Get("images").String()
	}
	return url, url != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
