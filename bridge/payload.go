package bridge

import (
	"encoding/base64"
	"errors"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/smallnest/wechat-intercom/bus"
	"github.com/smallnest/wechat-intercom/identity"
)

// ErrInvalidPayload 回调内容不是合法 JSON
var ErrInvalidPayload = errors.New("bridge: invalid json payload")

// DecodeClientParam 解析回调 URL 中的 client 参数（网关以编码后的名称回传）
func DecodeClientParam(raw string) string {
	if raw == "" {
		return identity.DefaultClient
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	return identity.ClientOrDefault(name)
}

// ParseWeChatEvent 解析微信网关回调
func ParseWeChatEvent(client string, body []byte) (WeChatEvent, error) {
	if !gjson.ValidBytes(body) {
		return WeChatEvent{}, ErrInvalidPayload
	}
	root := gjson.ParseBytes(body)

	ev := WeChatEvent{
		PostType: root.Get("post_type").String(),
		Type:     root.Get("type").String(),
		Event:    root.Get("event").String(),
		Message: bus.InboundMessage{
			Client:        identity.ClientOrDefault(client),
			SenderID:      root.Get("sender_id").String(),
			SenderName:    root.Get("sender_name").String(),
			HasSenderName: root.Get("sender_name").Exists(),
			Content:       root.Get("content").String(),
			Format:        root.Get("format").String(),
		},
	}

	root.Get("params").ForEach(func(_, v gjson.Result) bool {
		ev.Params = append(ev.Params, v.String())
		return true
	})

	if mimeType := root.Get("media_mime"); mimeType.Exists() {
		// media_data 解码失败时按文本消息处理
		if data, err := base64.StdEncoding.DecodeString(root.Get("media_data").String()); err == nil && len(data) > 0 {
			ev.Message.Media = &bus.Media{MimeType: mimeType.String(), Data: data}
		}
	}
	return ev, nil
}

// ParseIntercomEvent 解析消息平台 webhook
func ParseIntercomEvent(body []byte) (IntercomEvent, error) {
	if !gjson.ValidBytes(body) {
		return IntercomEvent{}, ErrInvalidPayload
	}
	root := gjson.ParseBytes(body)

	return IntercomEvent{
		Type:   root.Get("type").String(),
		Topic:  root.Get("topic").String(),
		UserID: root.Get("data.item.user.user_id").String(),
		Body:   root.Get("data.item.conversation_parts.conversation_parts.0.body").String(),
	}, nil
}
