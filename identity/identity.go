// Package identity correlates a WeChat contact seen through a named gateway
// client with a single user_id on the messaging platform.
//
// The encoded form is "wechat/<client>/<contact-id>" where the client name is
// path-escaped. Identities without the "wechat/" prefix belong to someone else
// (for example the admin bot) and must be branched on before decoding.
package identity

import (
	"errors"
	"net/url"
	"strings"
)

// Tag is the first path segment of every WeChat-origin identity.
const Tag = "wechat"

// DefaultClient is the gateway client name used when none is given.
const DefaultClient = "default"

// ErrNotWeChat is returned by Decode for identities that were not produced by Encode.
var ErrNotWeChat = errors.New("identity: not a wechat identity")

// Encode joins a gateway client name and a WeChat contact id.
// The contact id is expected to be URL-safe already.
func Encode(client, contactID string) string {
	return Tag + "/" + url.PathEscape(client) + "/" + contactID
}

// Decode reverses Encode. Only the first two separators are significant, so a
// contact id that itself contains "/" is returned intact.
func Decode(id string) (client, contactID string, err error) {
	parts := strings.SplitN(id, "/", 3)
	if len(parts) != 3 || parts[0] != Tag || parts[2] == "" {
		return "", "", ErrNotWeChat
	}
	client, err = url.PathUnescape(parts[1])
	if err != nil {
		return "", "", ErrNotWeChat
	}
	return client, parts[2], nil
}

// IsWeChat reports whether id decodes as a WeChat-origin identity.
func IsWeChat(id string) bool {
	_, _, err := Decode(id)
	return err == nil
}

// ClientOrDefault trims name and substitutes DefaultClient when it is empty.
func ClientOrDefault(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return DefaultClient
	}
	return name
}
