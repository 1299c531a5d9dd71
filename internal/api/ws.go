package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// MessagesURL returns the websocket endpoint derived from the base URL:
// https becomes wss, http becomes ws.
func (c *Client) MessagesURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + c.wsPath
	u.RawQuery = ""
	return u.String()
}

// DialMessages opens the messages websocket, presenting the session cookie.
// The caller owns the returned connection and must close it.
func (c *Client) DialMessages(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Jar:              &wsJar{c.jar},
		HandshakeTimeout: c.timeout,
	}
	target := c.MessagesURL()
	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Method: "GET", Path: c.wsPath, Code: resp.StatusCode, Status: resp.Status}
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	c.logger.Debug("api: websocket connected", "url", target)
	return conn, nil
}

// wsJar maps ws(s) URLs onto http(s) so the handshake sees the session
// cookie; cookiejar ignores any other scheme.
type wsJar struct {
	jar *sessionJar
}

func (j *wsJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(httpURL(u), cookies)
}

func (j *wsJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(httpURL(u))
}

func httpURL(u *url.URL) *url.URL {
	out := *u
	switch out.Scheme {
	case "wss":
		out.Scheme = "https"
	case "ws":
		out.Scheme = "http"
	}
	return &out
}
