// Package bus holds the transient values that flow between the WeChat gateway
// and the messaging platform. Nothing here is persisted; a value lives for one
// webhook call.
package bus

import (
	"strings"

	"github.com/smallnest/wechat-intercom/identity"
)

// 消息格式
const (
	FormatText  = "text"
	FormatMedia = "media"
)

// InboundMessage 入站消息（来自微信网关的好友消息）
type InboundMessage struct {
	Client        string `json:"client"`      // 网关客户端名称
	SenderID      string `json:"sender_id"`   // 微信联系人ID
	SenderName    string `json:"sender_name"` // 显示名称
	HasSenderName bool   `json:"-"`           // sender_name 字段是否出现
	Content       string `json:"content"`     // 文本内容
	Format        string `json:"format"`      // text, media
	Media         *Media `json:"media,omitempty"`
}

// Media 媒体内容
type Media struct {
	MimeType string `json:"mimetype"`
	Data     []byte `json:"data"`
}

// UserID 返回该消息在消息平台上对应的用户标识
func (m *InboundMessage) UserID() string {
	return identity.Encode(identity.ClientOrDefault(m.Client), m.SenderID)
}

// IsImage 是否为图片消息
func (m *InboundMessage) IsImage() bool {
	return m.Format == FormatMedia &&
		m.Media != nil &&
		strings.HasPrefix(m.Media.MimeType, "image")
}

// DisplayName 返回用户资料中的名称。多客户端部署时加上客户端前缀以区分来源。
func (m *InboundMessage) DisplayName(prefixClient bool) string {
	if !m.HasSenderName {
		return ""
	}
	if prefixClient {
		return identity.ClientOrDefault(m.Client) + ": " + m.SenderName
	}
	return m.SenderName
}

// DeliveryMode 投递方式
type DeliveryMode string

const (
	// DeliveryNone 未投递
	DeliveryNone DeliveryMode = ""
	// DeliveryContinue 追加到最近一次会话
	DeliveryContinue DeliveryMode = "continue"
	// DeliveryInitiate 新建会话
	DeliveryInitiate DeliveryMode = "initiate"
)

// OutboundReply 发往消息平台的消息
type OutboundReply struct {
	UserID string `json:"user_id"`
	Body   string `json:"body"`
}
