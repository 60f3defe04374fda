package cli

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smallnest/wechat-intercom/bridge"
	"github.com/smallnest/wechat-intercom/channels"
	"github.com/smallnest/wechat-intercom/config"
	"github.com/smallnest/wechat-intercom/content"
	"github.com/smallnest/wechat-intercom/types"
)

func buildWeChatGateway(cfg *config.Config) (*channels.WeChatHTTPGateway, error) {
	return channels.NewWeChatHTTPGateway(channels.HTTPConfig{
		BaseURL: cfg.WeChat.BaseURL,
		Timeout: cfg.WeChat.Timeout,
	})
}

// buildUploader upload_url 为空时返回 nil，头像和图片不再上传
func buildUploader(cfg *config.Config) content.Uploader {
	if cfg.ImageHost.UploadURL == "" {
		return nil
	}
	return content.NewSMMSUploader(content.SMMSConfig{
		UploadURL: cfg.ImageHost.UploadURL,
		Token:     cfg.ImageHost.Token,
		Timeout:   cfg.ImageHost.Timeout,
	})
}

func buildBridgeService(cfg *config.Config, reg prometheus.Registerer) (*bridge.Service, error) {
	wechat, err := buildWeChatGateway(cfg)
	if err != nil {
		return nil, err
	}

	intercom, err := channels.NewIntercomHTTPClient(channels.HTTPConfig{
		BaseURL: cfg.Intercom.BaseURL,
		Token:   cfg.Intercom.AccessToken,
		Timeout: cfg.Intercom.Timeout,
	})
	if err != nil {
		return nil, err
	}

	var metrics *bridge.Metrics
	if reg != nil {
		metrics = bridge.MustNewMetrics(reg)
	}

	return bridge.NewService(bridge.Options{
		WeChat:           wechat,
		Intercom:         intercom,
		Uploader:         buildUploader(cfg),
		Classifier:       types.NewStatusErrorClassifier(cfg.Intercom.FallbackStatusCodes),
		Metrics:          metrics,
		BotUserID:        cfg.Intercom.BotUserID,
		PrefixClientName: cfg.WeChat.PrefixClientName,
	})
}
