package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundMessageUserIDIncludesClientDimension(t *testing.T) {
	cases := []struct {
		name string
		a    InboundMessage
		b    InboundMessage
	}{
		{
			name: "same sender different clients",
			a:    InboundMessage{Client: "shop-a", SenderID: "wxid_1"},
			b:    InboundMessage{Client: "shop-b", SenderID: "wxid_1"},
		},
		{
			name: "client name containing separator",
			a:    InboundMessage{Client: "a/b", SenderID: "c"},
			b:    InboundMessage{Client: "a", SenderID: "b/c"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.a.UserID() == tc.b.UserID() {
				t.Fatalf("expected different user ids, got same id %q", tc.a.UserID())
			}
		})
	}
}

func TestInboundMessageUserIDDefaultsClient(t *testing.T) {
	m := InboundMessage{SenderID: "wxid_1"}
	assert.Equal(t, "wechat/default/wxid_1", m.UserID())
}

func TestInboundMessageIsImage(t *testing.T) {
	assert.True(t, (&InboundMessage{Format: FormatMedia, Media: &Media{MimeType: "image/jpeg"}}).IsImage())
	assert.False(t, (&InboundMessage{Format: FormatMedia, Media: &Media{MimeType: "video/mp4"}}).IsImage())
	assert.False(t, (&InboundMessage{Format: FormatText, Media: &Media{MimeType: "image/png"}}).IsImage())
	assert.False(t, (&InboundMessage{Format: FormatMedia}).IsImage())
}

func TestInboundMessageDisplayName(t *testing.T) {
	m := InboundMessage{Client: "shop", SenderName: "张三", HasSenderName: true}
	assert.Equal(t, "shop: 张三", m.DisplayName(true))
	assert.Equal(t, "张三", m.DisplayName(false))

	m.HasSenderName = false
	assert.Empty(t, m.DisplayName(true))
}
