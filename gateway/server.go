// Package gateway exposes the HTTP webhook endpoints that receive callbacks
// from the WeChat gateway and the messaging platform.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/bridge"
	"github.com/smallnest/wechat-intercom/config"
	"github.com/smallnest/wechat-intercom/internal/logger"
	"github.com/smallnest/wechat-intercom/webhook"
)

// RequestIDHeader 回传给调用方的请求 ID
const RequestIDHeader = "X-Request-ID"

// DefaultMaxBodyBytes 回调请求体默认上限
const DefaultMaxBodyBytes int64 = 10 << 20

// Router 处理解析后的回调事件，由 bridge.Service 实现
type Router interface {
	HandleWeChatEvent(ctx context.Context, ev bridge.WeChatEvent)
	HandleIntercomEvent(ctx context.Context, ev bridge.IntercomEvent)
}

// Options 网关服务器依赖
type Options struct {
	Router Router
	// WebhookSecret 校验消息平台回调签名
	WebhookSecret string
	// Gatherer 为空时不注册 /metrics
	Gatherer prometheus.Gatherer
}

// Server HTTP 网关服务器
type Server struct {
	config  config.ServerConfig
	router  Router
	secret  string
	handler http.Handler
	server  *http.Server
	mu      sync.Mutex
	running bool
}

// NewServer 创建网关服务器
func NewServer(cfg config.ServerConfig, opts Options) (*Server, error) {
	if opts.Router == nil {
		return nil, fmt.Errorf("gateway: router is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		config: cfg,
		router: opts.Router,
		secret: opts.WebhookSecret,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/wechat", s.handleWeChat)
	mux.HandleFunc("/intercom", s.handleIntercom)
	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	s.handler = withRequestLogger(mux)

	return s, nil
}

// Handler 返回路由，便于测试和嵌入
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr 监听地址
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Run 启动服务器并阻塞，直到 ctx 取消或监听失败
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	srv := s.server
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP gateway server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err, ok := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if ok {
			return fmt.Errorf("gateway server: %w", err)
		}
		return nil
	}
}

// Stop 停止服务器，等待进行中的回调处理完成
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	srv := s.server
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown HTTP gateway server", zap.Error(err))
		return err
	}

	logger.Info("Gateway server stopped")
	return nil
}

// IsRunning 检查是否运行中
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// withRequestLogger 为每个请求分配 request_id 并放入 context
func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		log := logger.With(
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), log)))
	})
}

// handleHealth 健康检查处理器
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleWeChat 微信网关回调，处理结果不影响响应
func (s *Server) handleWeChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)

	client := bridge.DecodeClientParam(r.URL.Query().Get("client"))
	ev, err := bridge.ParseWeChatEvent(client, body)
	if err != nil {
		log.Warn("Invalid wechat callback", zap.String("client", client), zap.Error(err))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	log.Debug("Received wechat callback",
		zap.String("client", client),
		zap.String("kind", ev.Kind()),
		zap.Int("content_length", len(body)),
	)
	s.router.HandleWeChatEvent(ctx, ev)
	w.WriteHeader(http.StatusNoContent)
}

// handleIntercom 消息平台回调，签名不匹配时拒绝
func (s *Server) handleIntercom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)

	// 没有签名头的回调放行
	if sigs, present := r.Header[textproto.CanonicalMIMEHeaderKey(webhook.SignatureHeader)]; present {
		if len(sigs) == 0 || !webhook.VerifySignature(s.secret, body, sigs[0]) {
			log.Warn("Intercom callback signature mismatch")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	ev, err := bridge.ParseIntercomEvent(body)
	if err != nil {
		log.Warn("Invalid intercom callback", zap.Error(err))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	log.Debug("Received intercom callback",
		zap.String("topic", ev.Topic),
		zap.String("kind", ev.Kind()),
	)
	s.router.HandleIntercomEvent(ctx, ev)
	w.WriteHeader(http.StatusNoContent)
}

// readBody 读取请求体，超过上限时返回 413
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes+1))
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to read webhook body", zap.Error(err))
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if int64(len(body)) > s.config.MaxBodyBytes {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return body, true
}
