package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"site-builder/internal/intent"

	"github.com/gorilla/websocket"
)

// HTTPEmitter posts each intent to /sites/:siteID/intents.
type HTTPEmitter struct {
	BaseURL string
	SiteID  string
	Token   string
	Client  *http.Client
}

func (e *HTTPEmitter) Emit(ctx context.Context, env intent.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(e.BaseURL, "/") + "/sites/" + e.SiteID + "/intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %s: %s", env.Name, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// WSEmitter writes one intent per text frame on a websocket opened against
// /sites/:siteID/ws. The server answers only on failure; those error frames
// are passed to the onError callback given to DialWS.
type WSEmitter struct {
	conn *websocket.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration

	onError func(msg string)
}

type wsError struct {
	Error  string      `json:"error"`
	Intent intent.Name `json:"intent,omitempty"`
}

// DialWS connects to wsURL (ws:// or wss://) with the bearer token passed
// as a query parameter, which is what browsers can do as well.
func DialWS(ctx context.Context, wsURL, token string, onError func(msg string)) (*WSEmitter, error) {
	if token != "" {
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		wsURL = u.String()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	e := &WSEmitter{conn: conn, writeTimeout: 10 * time.Second, onError: onError}
	go e.readLoop()
	return e, nil
}

func (e *WSEmitter) Emit(ctx context.Context, env intent.Envelope) error {
	msg, err := json.Marshal(env)
	if err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	deadline := time.Now().Add(e.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	e.conn.SetWriteDeadline(deadline)
	return e.conn.WriteMessage(websocket.TextMessage, msg)
}

func (e *WSEmitter) Close() error {
	e.writeMu.Lock()
	_ = e.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	e.writeMu.Unlock()
	return e.conn.Close()
}

func (e *WSEmitter) readLoop() {
	for {
		messageType, message, err := e.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage || e.onError == nil {
			continue
		}
		var m wsError
		if json.Unmarshal(message, &m) == nil && m.Error != "" {
			e.onError(m.Error)
		}
	}
}
