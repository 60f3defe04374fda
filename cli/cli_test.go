package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/wechat-intercom/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
		logLevel = ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, config.Save(cfg, path))
	return path
}

func testConfig(wechatURL string) *config.Config {
	cfg := config.Default()
	cfg.Intercom.AccessToken = "access-token-123456"
	cfg.Intercom.WebhookSecret = "super-secret-hook"
	cfg.WeChat.BaseURL = wechatURL
	cfg.Log.Level = "error"
	return cfg
}

func TestIdentityEncodeDecode(t *testing.T) {
	out, err := runCLI(t, "identity", "encode", "sales team", "wxid_1")
	require.NoError(t, err)
	assert.Equal(t, "wechat/sales%20team/wxid_1\n", out)

	out, err = runCLI(t, "identity", "decode", "wechat/sales%20team/wxid_1")
	require.NoError(t, err)
	assert.Contains(t, out, "client:  sales team")
	assert.Contains(t, out, "contact: wxid_1")

	_, err = runCLI(t, "identity", "decode", "bot-admin")
	assert.Error(t, err)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	path := writeConfig(t, testConfig("http://127.0.0.1:3000/openwx/"))

	out, err := runCLI(t, "--config", path, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "base_url: http://127.0.0.1:3000/openwx/")
	assert.Contains(t, out, "acce****3456")
	assert.NotContains(t, out, "super-secret-hook")
}

func TestClientsCommandsTalkToGateway(t *testing.T) {
	var paths []string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/check_client"):
			_, _ = w.Write([]byte(`{"code":0,"client":[{"account":"a","state":"online"},{"account":"b","state":"offline"}]}`))
		case strings.HasSuffix(r.URL.Path, "/start_client"):
			_, _ = w.Write([]byte(`{"code":0,"status":"client already exists"}`))
		case strings.HasSuffix(r.URL.Path, "/stop_client"):
			_, _ = w.Write([]byte(`{"code":1,"status":"client not exists"}`))
		}
	}))
	defer gw.Close()

	path := writeConfig(t, testConfig(gw.URL+"/openwx/"))

	out, err := runCLI(t, "--config", path, "clients", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a: online\nb: offline")

	out, err = runCLI(t, "--config", path, "clients", "start")
	require.NoError(t, err)
	assert.Contains(t, out, "default is already running")

	_, err = runCLI(t, "--config", path, "clients", "stop", "shop")
	assert.Error(t, err)

	require.Len(t, paths, 3)
	assert.Equal(t, "/openwx/start_client?client=default", paths[1])
	assert.Equal(t, "/openwx/stop_client?client=shop", paths[2])
}

func TestInitWithFlagsWritesConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	out := filepath.Join(t.TempDir(), "out", "config.json")
	t.Cleanup(func() {
		initAccessToken, initWeChatURL, initBotUserID, initOutput = "", "", "", ""
		_ = initCmd.Flags().Set("access-token", "")
		_ = initCmd.Flags().Set("wechat-url", "")
		_ = initCmd.Flags().Set("bot-user-id", "")
		_ = initCmd.Flags().Set("output", "")
	})

	stdout, err := runCLI(t, "init",
		"--access-token", "token-abcdefgh",
		"--wechat-url", "http://gw:3000/openwx/",
		"--bot-user-id", "bot-1",
		"--output", out,
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Config saved to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bot_user_id": "bot-1"`)

	cfg, err := config.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "token-abcdefgh", cfg.Intercom.AccessToken)
	assert.Equal(t, "http://gw:3000/openwx/", cfg.WeChat.BaseURL)
}

func TestBuildUploaderDisabledWithoutURL(t *testing.T) {
	cfg := testConfig("http://gw/")
	assert.NotNil(t, buildUploader(cfg))

	cfg.ImageHost.UploadURL = ""
	assert.Nil(t, buildUploader(cfg))
}

func TestBuildBridgeService(t *testing.T) {
	cfg := testConfig("http://gw/")
	cfg.Intercom.BotUserID = "bot-1"

	svc, err := buildBridgeService(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.True(t, svc.BotConfigured())

	cfg.WeChat.BaseURL = ""
	_, err = buildBridgeService(cfg, nil)
	assert.Error(t, err)
}
