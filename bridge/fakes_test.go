package bridge

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallnest/wechat-intercom/channels"
)

type call struct {
	Op   string
	Args []string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) record(op string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Op: op, Args: args})
}

func (r *recorder) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recorder) Ops() []string {
	var ops []string
	for _, c := range r.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

type fakeWeChat struct {
	*recorder
	avatar    string
	avatarErr error
	sendErr   error
	start     channels.ControlResult
	startErr  error
	stop      channels.ControlResult
	stopErr   error
	statuses  []channels.ClientStatus
	checkErr  error
}

func (f *fakeWeChat) GetAvatar(_ context.Context, client, contactID string) (io.ReadCloser, error) {
	f.record("get_avatar", client, contactID)
	if f.avatarErr != nil {
		return nil, f.avatarErr
	}
	return io.NopCloser(strings.NewReader(f.avatar)), nil
}

func (f *fakeWeChat) SendFriendMessage(_ context.Context, client, contactID, content string) error {
	f.record("send_friend_message", client, contactID, content)
	return f.sendErr
}

func (f *fakeWeChat) SendFriendMedia(_ context.Context, client, contactID, mediaURL string) error {
	f.record("send_friend_media", client, contactID, mediaURL)
	return f.sendErr
}

func (f *fakeWeChat) StartClient(_ context.Context, client string) (channels.ControlResult, error) {
	f.record("start_client", client)
	return f.start, f.startErr
}

func (f *fakeWeChat) StopClient(_ context.Context, client string) (channels.ControlResult, error) {
	f.record("stop_client", client)
	return f.stop, f.stopErr
}

func (f *fakeWeChat) CheckClient(_ context.Context) ([]channels.ClientStatus, error) {
	f.record("check_client")
	return f.statuses, f.checkErr
}

type fakeIntercom struct {
	*recorder
	upsertErr error
	replyErr  error
	createErr error
	deleteErr error
}

func (f *fakeIntercom) UpsertUser(_ context.Context, p channels.UserProfile) error {
	f.record("upsert_user", p.UserID, p.Name, p.AvatarURL)
	return f.upsertErr
}

func (f *fakeIntercom) ReplyToLastConversation(_ context.Context, userID, body string) error {
	f.record("reply_last", userID, body)
	return f.replyErr
}

func (f *fakeIntercom) CreateMessage(_ context.Context, userID, body string) error {
	f.record("create_message", userID, body)
	return f.createErr
}

func (f *fakeIntercom) DeleteUser(_ context.Context, userID string) error {
	f.record("delete_user", userID)
	return f.deleteErr
}

type fakeUploader struct {
	*recorder
	url string
	ok  bool
}

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, bool) {
	data, _ := io.ReadAll(r)
	f.record("upload", filename, string(data))
	return f.url, f.ok
}

type fixture struct {
	rec      *recorder
	wechat   *fakeWeChat
	intercom *fakeIntercom
	uploader *fakeUploader
	svc      *Service
}

const testBotID = "bot-admin"

func newFixture(t *testing.T, mutate ...func(*fixture, *Options)) *fixture {
	t.Helper()
	rec := &recorder{}
	f := &fixture{
		rec:      rec,
		wechat:   &fakeWeChat{recorder: rec, avatar: "avatar-bytes"},
		intercom: &fakeIntercom{recorder: rec},
		uploader: &fakeUploader{recorder: rec, url: "https://img/x.png", ok: true},
	}
	opts := Options{
		WeChat:           f.wechat,
		Intercom:         f.intercom,
		Uploader:         f.uploader,
		BotUserID:        testBotID,
		PrefixClientName: true,
	}
	for _, m := range mutate {
		m(f, &opts)
	}

	svc, err := NewService(opts)
	require.NoError(t, err)
	f.svc = svc
	return f
}
