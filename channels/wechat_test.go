package channels

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayCall struct {
	Path  string
	Query url.Values
}

func newGatewayServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*WeChatHTTPGateway, *[]gatewayCall) {
	t.Helper()
	var calls []gatewayCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, gatewayCall{Path: r.URL.Path, Query: r.URL.Query()})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	gw, err := NewWeChatHTTPGateway(HTTPConfig{BaseURL: srv.URL + "/openwx"})
	require.NoError(t, err)
	return gw, &calls
}

func TestNewWeChatHTTPGatewayRequiresBaseURL(t *testing.T) {
	_, err := NewWeChatHTTPGateway(HTTPConfig{})
	assert.Error(t, err)
}

func TestWeChatGetAvatar(t *testing.T) {
	gw, calls := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg"))
	})

	body, err := gw.GetAvatar(context.Background(), "sales team", "wxid_1")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.Len(t, *calls, 1)
	assert.Equal(t, "/openwx/get_avatar", (*calls)[0].Path)
	assert.Equal(t, "sales%20team", (*calls)[0].Query.Get("client"))
	assert.Equal(t, "wxid_1", (*calls)[0].Query.Get("id"))
}

func TestWeChatGetAvatarNotFound(t *testing.T) {
	gw, _ := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	body, err := gw.GetAvatar(context.Background(), "default", "wxid_1")
	assert.Error(t, err)
	assert.Nil(t, body)
}

func TestWeChatSendFriendMessageAndMedia(t *testing.T) {
	gw, calls := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"status":"success"}`))
	})

	require.NoError(t, gw.SendFriendMedia(context.Background(), "default", "wxid_1", "http://a/b.png"))
	require.NoError(t, gw.SendFriendMessage(context.Background(), "default", "wxid_1", "你好 & bye"))

	require.Len(t, *calls, 2)
	assert.Equal(t, "/openwx/send_friend_message", (*calls)[0].Path)
	assert.Equal(t, "http://a/b.png", (*calls)[0].Query.Get("media_path"))
	assert.Empty(t, (*calls)[0].Query.Get("content"))
	assert.Equal(t, "你好 & bye", (*calls)[1].Query.Get("content"))
	assert.Equal(t, "default", (*calls)[1].Query.Get("client"))
}

func TestWeChatSendFriendMessageGatewayError(t *testing.T) {
	gw, _ := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":100,"status":"object not found"}`))
	})

	err := gw.SendFriendMessage(context.Background(), "default", "wxid_1", "hi")
	assert.ErrorContains(t, err, "object not found")
}

func TestWeChatStartStopClient(t *testing.T) {
	gw, calls := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openwx/start_client":
			_, _ = w.Write([]byte(`{"code":0,"status":"client already exists"}`))
		case "/openwx/stop_client":
			_, _ = w.Write([]byte(`{"code":0,"status":"success"}`))
		}
	})

	started, err := gw.StartClient(context.Background(), "shop")
	require.NoError(t, err)
	assert.True(t, started.OK())
	assert.Equal(t, StatusClientAlreadyExists, started.Status)

	stopped, err := gw.StopClient(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, stopped.Status)

	require.Len(t, *calls, 2)
	assert.Equal(t, "shop", (*calls)[1].Query.Get("client"))
}

func TestWeChatControlRejectsInvalidJSON(t *testing.T) {
	gw, _ := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := gw.StartClient(context.Background(), "shop")
	assert.Error(t, err)
}

func TestWeChatCheckClient(t *testing.T) {
	gw, _ := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"client":[{"account":"a","state":"online"},{"account":"sales%20team","state":"offline"}]}`))
	})

	statuses, err := gw.CheckClient(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "a", statuses[0].Name())
	assert.Equal(t, "online", statuses[0].State)
	assert.Equal(t, "sales team", statuses[1].Name())
	assert.Equal(t, "offline", statuses[1].State)
}

func TestWeChatCheckClientNonZeroCode(t *testing.T) {
	gw, _ := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":1}`))
	})

	_, err := gw.CheckClient(context.Background())
	assert.Error(t, err)
}

func TestClientStatusNameFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "100%", ClientStatus{Account: "100%"}.Name())
}
