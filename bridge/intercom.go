package bridge

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/content"
	"github.com/smallnest/wechat-intercom/identity"
	"github.com/smallnest/wechat-intercom/internal/logger"
)

// 消息平台事件取值
const (
	TypeNotificationEvent = "notification_event"
	TopicAdminReplied     = "conversation.admin.replied"
	TopicAdminClosed      = "conversation.admin.closed"
)

// IntercomEvent 消息平台推送的一次 webhook
type IntercomEvent struct {
	Type   string
	Topic  string
	UserID string
	// Body 最新一条会话消息的 HTML 内容
	Body string
}

// Kind 用于日志与指标的事件分类
func (e IntercomEvent) Kind() string {
	if e.Type != TypeNotificationEvent {
		return "ignored"
	}
	switch e.Topic {
	case TopicAdminReplied, TopicAdminClosed:
		return e.Topic
	default:
		return "ignored"
	}
}

// HandleIntercomEvent 处理消息平台 webhook，调用前签名已校验
func (s *Service) HandleIntercomEvent(ctx context.Context, ev IntercomEvent) {
	kind := ev.Kind()
	s.metrics.event("intercom", kind)

	switch kind {
	case TopicAdminReplied:
		s.handleAdminReplied(ctx, ev)
	case TopicAdminClosed:
		s.handleConversationClosed(ctx, ev)
	default:
		logger.FromContext(ctx).Debug("Ignore intercom event",
			zap.String("type", ev.Type),
			zap.String("topic", ev.Topic),
		)
	}
}

// handleAdminReplied 客服回复：转发给微信联系人，或交给管理命令处理
func (s *Service) handleAdminReplied(ctx context.Context, ev IntercomEvent) {
	log := logger.FromContext(ctx).With(zap.String("user_id", ev.UserID))
	text := strings.TrimSpace(content.StripMarkup(ev.Body))

	client, contactID, err := identity.Decode(ev.UserID)
	if err == nil {
		for _, url := range content.ExtractImageURLs(ev.Body) {
			if err := s.wechat.SendFriendMedia(ctx, client, contactID, url); err != nil {
				s.metrics.upstreamFailure("wechat.send_friend_media")
				log.Warn("Failed to forward image", zap.String("url", url), zap.Error(err))
			}
		}
		if text == "" {
			return
		}
		if err := s.wechat.SendFriendMessage(ctx, client, contactID, text); err != nil {
			s.metrics.upstreamFailure("wechat.send_friend_message")
			log.Warn("Failed to forward reply", zap.Error(err))
		}
		return
	}

	if s.isBot(ev.UserID) {
		s.HandleAdminCommand(ctx, text)
		return
	}

	log.Debug("Reply for unknown identity ignored")
}

// handleConversationClosed 会话关闭后删除对应的微信用户，失败不影响回调结果
func (s *Service) handleConversationClosed(ctx context.Context, ev IntercomEvent) {
	if !identity.IsWeChat(ev.UserID) {
		return
	}
	if err := s.intercom.DeleteUser(ctx, ev.UserID); err != nil {
		s.metrics.upstreamFailure("intercom.delete_user")
		logger.FromContext(ctx).Warn("Failed to delete user",
			zap.String("user_id", ev.UserID),
			zap.Error(err),
		)
	}
}
