// Package bridge routes events between the WeChat gateway and the messaging
// platform.
//
// Each webhook is handled on its own: the Service holds only immutable
// collaborators, and the two directions are correlated solely through the
// identity encoding of the messaging-platform user_id.
package bridge

import (
	"fmt"

	"github.com/smallnest/wechat-intercom/channels"
	"github.com/smallnest/wechat-intercom/content"
	"github.com/smallnest/wechat-intercom/types"
)

// Options 构造 Service 所需的依赖
type Options struct {
	WeChat   channels.WeChatGateway
	Intercom channels.Intercom
	// Uploader 为空时跳过头像与图片上传
	Uploader   content.Uploader
	Classifier types.ErrorClassifier
	Metrics    *Metrics

	// BotUserID 管理机器人在消息平台上的 user_id，为空表示未配置
	BotUserID string
	// PrefixClientName 用户显示名称前加上网关客户端名称
	PrefixClientName bool
}

// Service 消息路由服务
type Service struct {
	wechat           channels.WeChatGateway
	intercom         channels.Intercom
	uploader         content.Uploader
	classifier       types.ErrorClassifier
	metrics          *Metrics
	botUserID        string
	prefixClientName bool
}

// NewService 创建消息路由服务
func NewService(opts Options) (*Service, error) {
	if opts.WeChat == nil {
		return nil, fmt.Errorf("bridge: wechat gateway is required")
	}
	if opts.Intercom == nil {
		return nil, fmt.Errorf("bridge: intercom client is required")
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier = types.NewStatusErrorClassifier(nil)
	}

	return &Service{
		wechat:           opts.WeChat,
		intercom:         opts.Intercom,
		uploader:         opts.Uploader,
		classifier:       classifier,
		metrics:          opts.Metrics,
		botUserID:        opts.BotUserID,
		prefixClientName: opts.PrefixClientName,
	}, nil
}

// BotConfigured 是否配置了管理机器人
func (s *Service) BotConfigured() bool {
	return s.botUserID != ""
}

// isBot 判断 user_id 是否为管理机器人
func (s *Service) isBot(userID string) bool {
	return s.botUserID != "" && userID == s.botUserID
}
