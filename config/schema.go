package config

import (
	"time"
)

// Config 是主配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server" json:"server" yaml:"server"`
	Intercom  IntercomConfig  `mapstructure:"intercom" json:"intercom" yaml:"intercom"`
	WeChat    WeChatConfig    `mapstructure:"wechat" json:"wechat" yaml:"wechat"`
	ImageHost ImageHostConfig `mapstructure:"imagehost" json:"imagehost" yaml:"imagehost"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
}

// ServerConfig webhook 服务配置
type ServerConfig struct {
	Host         string        `mapstructure:"host" json:"host" yaml:"host"`
	Port         int           `mapstructure:"port" json:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	// MaxBodyBytes 单次回调请求体上限，超出返回 413
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" json:"max_body_bytes" yaml:"max_body_bytes"`
}

// IntercomConfig 消息平台配置
type IntercomConfig struct {
	BaseURL       string `mapstructure:"base_url" json:"base_url" yaml:"base_url"`
	AccessToken   string `mapstructure:"access_token" json:"access_token" yaml:"access_token"`
	WebhookSecret string `mapstructure:"webhook_secret" json:"webhook_secret" yaml:"webhook_secret"`
	// BotUserID 管理机器人用户，为空时不处理管理命令与登录通知
	BotUserID string        `mapstructure:"bot_user_id" json:"bot_user_id" yaml:"bot_user_id"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	// FallbackStatusCodes 追加会话失败时哪些状态码表示"没有可追加的会话"
	FallbackStatusCodes []int `mapstructure:"fallback_status_codes" json:"fallback_status_codes" yaml:"fallback_status_codes"`
}

// WeChatConfig 微信网关配置
type WeChatConfig struct {
	BaseURL          string        `mapstructure:"base_url" json:"base_url" yaml:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	PrefixClientName bool          `mapstructure:"prefix_client_name" json:"prefix_client_name" yaml:"prefix_client_name"`
}

// ImageHostConfig 图床配置
type ImageHostConfig struct {
	UploadURL string        `mapstructure:"upload_url" json:"upload_url" yaml:"upload_url"`
	Token     string        `mapstructure:"token" json:"token" yaml:"token"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// Masked 返回隐藏了密钥的副本，用于展示
func (c Config) Masked() Config {
	c.Intercom.AccessToken = maskSecret(c.Intercom.AccessToken)
	c.Intercom.WebhookSecret = maskSecret(c.Intercom.WebhookSecret)
	c.ImageHost.Token = maskSecret(c.ImageHost.Token)
	c.Intercom.FallbackStatusCodes = append([]int(nil), c.Intercom.FallbackStatusCodes...)
	return c
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}
