package channels

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/internal/logger"
)

// 网关控制接口返回的状态
const (
	StatusSuccess             = "success"
	StatusClientAlreadyExists = "client already exists"
)

// ClientStatus 网关客户端状态
type ClientStatus struct {
	Account string `json:"account"` // 网关返回的编码后名称
	State   string `json:"state"`
}

// Name 返回解码后的客户端名称
func (s ClientStatus) Name() string {
	name, err := url.PathUnescape(s.Account)
	if err != nil {
		return s.Account
	}
	return name
}

// ControlResult start_client / stop_client 的返回
type ControlResult struct {
	Code   int64  `json:"code"`
	Status string `json:"status"`
}

// OK 网关是否报告成功（code == 0）
func (r ControlResult) OK() bool {
	return r.Code == 0
}

// WeChatGateway 微信网关的控制接口，每个操作对应一个固定路径
type WeChatGateway interface {
	// GetAvatar 获取联系人头像，调用方负责关闭返回的 reader
	GetAvatar(ctx context.Context, client, contactID string) (io.ReadCloser, error)
	// SendFriendMessage 向好友发送文本
	SendFriendMessage(ctx context.Context, client, contactID, content string) error
	// SendFriendMedia 向好友发送一个媒体 URL
	SendFriendMedia(ctx context.Context, client, contactID, mediaURL string) error
	// StartClient 启动一个网关客户端
	StartClient(ctx context.Context, client string) (ControlResult, error)
	// StopClient 停止一个网关客户端
	StopClient(ctx context.Context, client string) (ControlResult, error)
	// CheckClient 列出所有客户端状态
	CheckClient(ctx context.Context) ([]ClientStatus, error)
}

// WeChatHTTPGateway 基于 HTTP 的微信网关客户端
type WeChatHTTPGateway struct {
	client *resty.Client
}

// NewWeChatHTTPGateway 创建微信网关客户端
func NewWeChatHTTPGateway(cfg HTTPConfig) (*WeChatHTTPGateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wechat gateway base_url is required")
	}
	return &WeChatHTTPGateway{client: newRestyClient(cfg)}, nil
}

// encodeClient 客户端名称在协议调用中以编码形式出现，与网关回调的 client 参数一致
func encodeClient(client string) string {
	return url.PathEscape(client)
}

// GetAvatar 获取头像
func (g *WeChatHTTPGateway) GetAvatar(ctx context.Context, client, contactID string) (io.ReadCloser, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(map[string]string{
			"client": encodeClient(client),
			"id":     contactID,
		}).
		Get("get_avatar")
	if err != nil {
		return nil, fmt.Errorf("wechat.get_avatar: %w", err)
	}

	body := resp.RawBody()
	if !resp.IsSuccess() {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("wechat.get_avatar: unexpected status %d", resp.StatusCode())
	}
	return body, nil
}

// SendFriendMessage 发送文本
func (g *WeChatHTTPGateway) SendFriendMessage(ctx context.Context, client, contactID, content string) error {
	return g.sendFriend(ctx, map[string]string{
		"client":  encodeClient(client),
		"id":      contactID,
		"content": content,
	})
}

// SendFriendMedia 发送媒体
func (g *WeChatHTTPGateway) SendFriendMedia(ctx context.Context, client, contactID, mediaURL string) error {
	return g.sendFriend(ctx, map[string]string{
		"client":     encodeClient(client),
		"id":         contactID,
		"media_path": mediaURL,
	})
}

func (g *WeChatHTTPGateway) sendFriend(ctx context.Context, params map[string]string) error {
	const op = "wechat.send_friend_message"

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("send_friend_message")
	if err := checkResponse(op, resp, err); err != nil {
		return err
	}

	result := parseControlResult(resp.Body())
	if !result.OK() {
		return fmt.Errorf("%s: gateway code %d: %s", op, result.Code, result.Status)
	}

	logger.Debug("WeChat message sent",
		zap.String("client", params["client"]),
		zap.String("id", params["id"]),
	)
	return nil
}

// StartClient 启动客户端
func (g *WeChatHTTPGateway) StartClient(ctx context.Context, client string) (ControlResult, error) {
	return g.control(ctx, "start_client", client)
}

// StopClient 停止客户端
func (g *WeChatHTTPGateway) StopClient(ctx context.Context, client string) (ControlResult, error) {
	return g.control(ctx, "stop_client", client)
}

func (g *WeChatHTTPGateway) control(ctx context.Context, path, client string) (ControlResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("client", encodeClient(client)).
		Get(path)
	if err := checkResponse("wechat."+path, resp, err); err != nil {
		return ControlResult{}, err
	}
	if !gjson.ValidBytes(resp.Body()) {
		return ControlResult{}, fmt.Errorf("wechat.%s: invalid json response", path)
	}
	return parseControlResult(resp.Body()), nil
}

// CheckClient 查看所有客户端
func (g *WeChatHTTPGateway) CheckClient(ctx context.Context) ([]ClientStatus, error) {
	const op = "wechat.check_client"

	resp, err := g.client.R().
		SetContext(ctx).
		Get("check_client")
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body()) {
		return nil, fmt.Errorf("%s: invalid json response", op)
	}

	result := gjson.ParseBytes(resp.Body())
	if code := result.Get("code").Int(); code != 0 {
		return nil, fmt.Errorf("%s: gateway code %d", op, code)
	}

	var statuses []ClientStatus
	result.Get("client").ForEach(func(_, item gjson.Result) bool {
		statuses = append(statuses, ClientStatus{
			Account: item.Get("account").String(),
			State:   item.Get("state").String(),
		})
		return true
	})
	return statuses, nil
}

// parseControlResult 缺少 code 字段时视为 0，与网关的约定一致
func parseControlResult(body []byte) ControlResult {
	result := gjson.ParseBytes(body)
	return ControlResult{
		Code:   result.Get("code").Int(),
		Status: result.Get("status").String(),
	}
}
