package channels

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// DefaultIntercomBaseURL Intercom API 地址
const DefaultIntercomBaseURL = "https://api.intercom.io/"

// UserProfile 消息平台上的用户资料
type UserProfile struct {
	UserID    string
	Name      string // 为空时不更新
	AvatarURL string // 为空时不更新
}

// Intercom 消息平台接口
type Intercom interface {
	// UpsertUser 创建或更新用户
	UpsertUser(ctx context.Context, profile UserProfile) error
	// ReplyToLastConversation 以用户身份回复最近一次会话
	ReplyToLastConversation(ctx context.Context, userID, body string) error
	// CreateMessage 以用户身份发起新会话
	CreateMessage(ctx context.Context, userID, body string) error
	// DeleteUser 删除用户
	DeleteUser(ctx context.Context, userID string) error
}

// IntercomHTTPClient Intercom REST 客户端
type IntercomHTTPClient struct {
	client *resty.Client
}

// NewIntercomHTTPClient 创建 Intercom 客户端
func NewIntercomHTTPClient(cfg HTTPConfig) (*IntercomHTTPClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("intercom access_token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultIntercomBaseURL
	}
	return &IntercomHTTPClient{client: newRestyClient(cfg)}, nil
}

type intercomAvatar struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type intercomUser struct {
	UserID string          `json:"user_id"`
	Name   string          `json:"name,omitempty"`
	Avatar *intercomAvatar `json:"avatar,omitempty"`
}

type intercomReply struct {
	Type        string `json:"type"`
	MessageType string `json:"message_type"`
	UserID      string `json:"user_id"`
	Body        string `json:"body"`
}

type intercomParty struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

type intercomMessage struct {
	From intercomParty `json:"from"`
	Body string        `json:"body"`
}

// UpsertUser POST /users
func (c *IntercomHTTPClient) UpsertUser(ctx context.Context, profile UserProfile) error {
	payload := intercomUser{
		UserID: profile.UserID,
		Name:   profile.Name,
	}
	if profile.AvatarURL != "" {
		payload.Avatar = &intercomAvatar{Type: "avatar", ImageURL: profile.AvatarURL}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("users")
	return checkResponse("intercom.upsert_user", resp, err)
}

// ReplyToLastConversation POST /conversations/last/reply
func (c *IntercomHTTPClient) ReplyToLastConversation(ctx context.Context, userID, body string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(intercomReply{
			Type:        "user",
			MessageType: "comment",
			UserID:      userID,
			Body:        body,
		}).
		Post("conversations/last/reply")
	return checkResponse("intercom.reply_last", resp, err)
}

// CreateMessage POST /messages
func (c *IntercomHTTPClient) CreateMessage(ctx context.Context, userID, body string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(intercomMessage{
			From: intercomParty{Type: "user", UserID: userID},
			Body: body,
		}).
		Post("messages")
	return checkResponse("intercom.create_message", resp, err)
}

// DeleteUser DELETE /users?user_id=
func (c *IntercomHTTPClient) DeleteUser(ctx context.Context, userID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		Delete("users")
	return checkResponse("intercom.delete_user", resp, err)
}
