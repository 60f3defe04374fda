package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UpstreamError 上游平台返回的非 2xx 响应
type UpstreamError struct {
	Op         string // 调用名称，如 "intercom.reply_last"
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// StatusCode 提取错误中的上游状态码，非上游错误返回 0
func StatusCode(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode
	}
	return 0
}

// ErrorReason 错误原因类型
type ErrorReason string

const (
	// ReasonConversationMissing 用户没有可追加的会话，可以改为新建会话
	ReasonConversationMissing ErrorReason = "conversation_missing"
	// ReasonAuth 认证错误
	ReasonAuth ErrorReason = "auth"
	// ReasonRateLimit 速率限制
	ReasonRateLimit ErrorReason = "rate_limit"
	// ReasonTimeout 超时
	ReasonTimeout ErrorReason = "timeout"
	// ReasonUnknown 未知错误
	ReasonUnknown ErrorReason = "unknown"
)

// DefaultFallbackStatusCodes 消息平台表示"没有进行中的会话"的状态码
var DefaultFallbackStatusCodes = []int{http.StatusNotFound, http.StatusUnprocessableEntity}

// ErrorClassifier 错误分类器接口
type ErrorClassifier interface {
	ClassifyError(err error) ErrorReason
	IsConversationMissing(err error) bool
}

// StatusErrorClassifier 按状态码分类上游错误，传输层错误按错误文本匹配
type StatusErrorClassifier struct {
	fallbackCodes   map[int]struct{}
	timeoutPatterns []string
}

// NewStatusErrorClassifier 创建分类器，fallbackCodes 为空时使用默认值
func NewStatusErrorClassifier(fallbackCodes []int) *StatusErrorClassifier {
	if len(fallbackCodes) == 0 {
		fallbackCodes = DefaultFallbackStatusCodes
	}
	codes := make(map[int]struct{}, len(fallbackCodes))
	for _, code := range fallbackCodes {
		codes[code] = struct{}{}
	}
	return &StatusErrorClassifier{
		fallbackCodes: codes,
		timeoutPatterns: []string{
			"timeout", "timed out", "deadline exceeded",
		},
	}
}

// ClassifyError 分类错误
func (c *StatusErrorClassifier) ClassifyError(err error) ErrorReason {
	if err == nil {
		return ReasonUnknown
	}

	if code := StatusCode(err); code != 0 {
		if _, ok := c.fallbackCodes[code]; ok {
			return ReasonConversationMissing
		}
		switch code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ReasonAuth
		case http.StatusTooManyRequests:
			return ReasonRateLimit
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return ReasonTimeout
		}
		return ReasonUnknown
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range c.timeoutPatterns {
		if strings.Contains(errMsg, pattern) {
			return ReasonTimeout
		}
	}
	return ReasonUnknown
}

// IsConversationMissing 是否应当改为新建会话
func (c *StatusErrorClassifier) IsConversationMissing(err error) bool {
	return c.ClassifyError(err) == ReasonConversationMissing
}
