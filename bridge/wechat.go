package bridge

import (
	"context"
	"fmt"
	"mime"

	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/bus"
	"github.com/smallnest/wechat-intercom/channels"
	"github.com/smallnest/wechat-intercom/content"
	"github.com/smallnest/wechat-intercom/identity"
	"github.com/smallnest/wechat-intercom/internal/logger"
)

// 微信网关事件取值
const (
	PostTypeReceiveMessage = "receive_message"
	PostTypeEvent          = "event"
	MessageTypeFriend      = "friend_message"
	EventInputQRCode       = "input_qrcode"
	EventLogin             = "login"
)

// WeChatEvent 微信网关推送的一次回调
type WeChatEvent struct {
	PostType string
	Type     string
	Event    string
	Params   []string
	Message  bus.InboundMessage
}

// Kind 用于日志与指标的事件分类
func (e WeChatEvent) Kind() string {
	switch {
	case e.PostType == PostTypeReceiveMessage && e.Type == MessageTypeFriend:
		return MessageTypeFriend
	case e.PostType == PostTypeEvent && (e.Event == EventInputQRCode || e.Event == EventLogin):
		return e.Event
	default:
		return "ignored"
	}
}

// HandleWeChatEvent 处理微信网关回调
func (s *Service) HandleWeChatEvent(ctx context.Context, ev WeChatEvent) {
	ev.Message.Client = identity.ClientOrDefault(ev.Message.Client)
	client := ev.Message.Client
	kind := ev.Kind()
	s.metrics.event("wechat", kind)

	log := logger.FromContext(ctx)
	switch kind {
	case MessageTypeFriend:
		s.handleFriendMessage(ctx, &ev.Message)

	case EventInputQRCode:
		if !s.BotConfigured() {
			return
		}
		if len(ev.Params) == 0 {
			log.Warn("QR code event without params", zap.String("client", client))
			return
		}
		qrcodeURL := ev.Params[len(ev.Params)-1]
		s.notifyBot(ctx, fmt.Sprintf("%s 登录二维码：%s", client, qrcodeURL))

	case EventLogin:
		if !s.BotConfigured() {
			return
		}
		s.notifyBot(ctx, fmt.Sprintf("%s 登录成功，开始等待客人了～", client))

	default:
		log.Debug("Ignore wechat event",
			zap.String("post_type", ev.PostType),
			zap.String("type", ev.Type),
			zap.String("event", ev.Event),
		)
	}
}

// handleFriendMessage 好友消息：注册/更新用户资料后投递到消息平台
func (s *Service) handleFriendMessage(ctx context.Context, msg *bus.InboundMessage) {
	if msg.SenderID == "" {
		return
	}

	userID := msg.UserID()
	log := logger.FromContext(ctx).With(zap.String("user_id", userID))

	profile := channels.UserProfile{
		UserID:    userID,
		Name:      msg.DisplayName(s.prefixClientName),
		AvatarURL: s.fetchAvatar(ctx, msg.Client, msg.SenderID),
	}
	if err := s.intercom.UpsertUser(ctx, profile); err != nil {
		s.metrics.upstreamFailure("intercom.upsert_user")
		log.Warn("Failed to upsert user, message dropped", zap.Error(err))
		return
	}

	body := msg.Content
	if msg.IsImage() {
		if url, ok := content.UploadBytes(ctx, s.uploader, mediaFilename(msg.Media.MimeType), msg.Media.Data); ok {
			body = content.ImageMarkdown(url)
		} else {
			s.metrics.upstreamFailure("imagehost.upload")
		}
	}

	s.Deliver(ctx, bus.OutboundReply{UserID: userID, Body: body})
}

// fetchAvatar 获取头像并上传到图床，任何一步失败都返回空字符串
func (s *Service) fetchAvatar(ctx context.Context, client, contactID string) string {
	if s.uploader == nil {
		return ""
	}

	log := logger.FromContext(ctx)
	avatar, err := s.wechat.GetAvatar(ctx, client, contactID)
	if err != nil {
		s.metrics.upstreamFailure("wechat.get_avatar")
		log.Debug("Avatar unavailable", zap.Error(err))
		return ""
	}
	defer avatar.Close()

	url, ok := s.uploader.Upload(ctx, "avatar.jpg", avatar)
	if !ok {
		s.metrics.upstreamFailure("imagehost.upload")
		return ""
	}
	return url
}

// mediaFilename 图床按扩展名识别格式
func mediaFilename(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return "image.jpg"
	case "image/png":
		return "image.png"
	case "image/gif":
		return "image.gif"
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return "image"
	}
	return "image" + exts[0]
}
