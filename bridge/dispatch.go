package bridge

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/bus"
	"github.com/smallnest/wechat-intercom/internal/logger"
)

// Deliver 将消息送达消息平台上该用户的会话。
//
// 先尝试追加到最近一次会话；平台表示没有可追加的会话时，以该用户身份新建一次会话。
// 其余失败只记录日志，不重试。返回实际使用的投递方式，未送达时为 DeliveryNone。
func (s *Service) Deliver(ctx context.Context, reply bus.OutboundReply) bus.DeliveryMode {
	log := logger.FromContext(ctx).With(zap.String("user_id", reply.UserID))

	if strings.TrimSpace(reply.Body) == "" {
		log.Debug("Skip delivering empty body")
		return bus.DeliveryNone
	}

	err := s.intercom.ReplyToLastConversation(ctx, reply.UserID, reply.Body)
	if err == nil {
		s.metrics.delivery(string(bus.DeliveryContinue))
		log.Debug("Replied to last conversation")
		return bus.DeliveryContinue
	}

	if !s.classifier.IsConversationMissing(err) {
		s.metrics.upstreamFailure("intercom.reply_last")
		log.Warn("Failed to reply to last conversation",
			zap.String("reason", string(s.classifier.ClassifyError(err))),
			zap.Error(err),
		)
		return bus.DeliveryNone
	}

	log.Debug("No open conversation, initiating a new one", zap.Error(err))
	if err := s.intercom.CreateMessage(ctx, reply.UserID, reply.Body); err != nil {
		s.metrics.upstreamFailure("intercom.create_message")
		log.Warn("Failed to initiate conversation", zap.Error(err))
		return bus.DeliveryNone
	}

	s.metrics.delivery(string(bus.DeliveryInitiate))
	return bus.DeliveryInitiate
}

// notifyBot 向管理机器人发送一条消息
func (s *Service) notifyBot(ctx context.Context, body string) {
	if !s.BotConfigured() {
		return
	}
	s.Deliver(ctx, bus.OutboundReply{UserID: s.botUserID, Body: body})
}
