package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// WithContext 将请求级 logger 放入 context
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext 取出请求级 logger，不存在时返回全局 logger
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L().WithOptions(zap.AddCallerSkip(-1))
}
