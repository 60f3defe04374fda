package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smallnest/wechat-intercom/channels"
	"github.com/smallnest/wechat-intercom/content"
	"github.com/smallnest/wechat-intercom/types"
)

const (
	// EnvPrefix 环境变量前缀，例如 WECHAT_INTERCOM_INTERCOM_ACCESS_TOKEN
	EnvPrefix = "WECHAT_INTERCOM"
	// DirName 配置目录名
	DirName = ".wechat-intercom"
)

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(ExpandUserPath(configPath))
	} else {
		dirs, err := SearchDirs()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("json")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// 配置文件不存在，使用默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认配置值
//
// 所有键都需要有默认值（哪怕是空字符串），否则 AutomaticEnv 不会在 Unmarshal 时生效。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	// Use time.Duration defaults; plain integers would become nanoseconds when unmarshaled.
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", int64(10<<20))

	v.SetDefault("intercom.base_url", channels.DefaultIntercomBaseURL)
	v.SetDefault("intercom.access_token", "")
	v.SetDefault("intercom.webhook_secret", "")
	v.SetDefault("intercom.bot_user_id", "")
	v.SetDefault("intercom.timeout", 30*time.Second)
	v.SetDefault("intercom.fallback_status_codes", types.DefaultFallbackStatusCodes)

	v.SetDefault("wechat.base_url", "")
	v.SetDefault("wechat.timeout", 30*time.Second)
	v.SetDefault("wechat.prefix_client_name", true)

	v.SetDefault("imagehost.upload_url", content.DefaultUploadURL)
	v.SetDefault("imagehost.token", "")
	v.SetDefault("imagehost.timeout", 60*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Default 返回只包含默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// 默认值类型固定，解码不会失败
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Save 保存配置到文件
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate 验证配置
func Validate(cfg *Config) error {
	if err := validateServer(cfg); err != nil {
		return fmt.Errorf("server config invalid: %w", err)
	}

	if err := validateIntercom(cfg); err != nil {
		return fmt.Errorf("intercom config invalid: %w", err)
	}

	if err := validateWeChat(cfg); err != nil {
		return fmt.Errorf("wechat config invalid: %w", err)
	}

	if err := validateImageHost(cfg); err != nil {
		return fmt.Errorf("imagehost config invalid: %w", err)
	}

	return nil
}

// validateServer 验证 webhook 服务配置
func validateServer(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	return nil
}

// validateIntercom 验证消息平台配置
func validateIntercom(cfg *Config) error {
	if strings.TrimSpace(cfg.Intercom.AccessToken) == "" {
		return fmt.Errorf("access_token is required")
	}

	if strings.ContainsAny(cfg.Intercom.AccessToken, " \t\n") {
		return fmt.Errorf("access_token cannot contain whitespace")
	}

	if err := validateHTTPURL(cfg.Intercom.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}

	if cfg.Intercom.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	for _, code := range cfg.Intercom.FallbackStatusCodes {
		if code < 400 || code > 499 {
			return fmt.Errorf("fallback status code %d must be within 400-499", code)
		}
	}

	return nil
}

// validateWeChat 验证微信网关配置
func validateWeChat(cfg *Config) error {
	if strings.TrimSpace(cfg.WeChat.BaseURL) == "" {
		return fmt.Errorf("base_url is required")
	}

	if err := validateHTTPURL(cfg.WeChat.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}

	if cfg.WeChat.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}

// validateImageHost 验证图床配置，upload_url 为空表示不上传图片
func validateImageHost(cfg *Config) error {
	if cfg.ImageHost.UploadURL == "" {
		return nil
	}

	if err := validateHTTPURL(cfg.ImageHost.UploadURL); err != nil {
		return fmt.Errorf("upload_url: %w", err)
	}

	return nil
}

// validateHTTPURL 验证 http(s) 地址
func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
