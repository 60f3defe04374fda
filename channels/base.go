package channels

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smallnest/wechat-intercom/types"
)

const maxErrorBodyLength = 512

// HTTPConfig 平台 HTTP 客户端配置
type HTTPConfig struct {
	BaseURL string
	Token   string // 为空时不发送 Authorization 头
	Timeout time.Duration
}

// newRestyClient 创建带固定 base URL 与公共请求头的客户端。
// 客户端创建后不再修改，可被并发的 webhook 请求共享。
func newRestyClient(cfg HTTPConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return client
}

// checkResponse 将传输错误与非 2xx 响应统一转换为 error
func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	body := resp.String()
	if len(body) > maxErrorBodyLength {
		body = body[:maxErrorBodyLength]
	}
	return &types.UpstreamError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Body:       body,
	}
}
