package siteapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"site-builder/config"
	"site-builder/internal/gateway"
	"site-builder/internal/intent"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsMaxMessage   = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || config.CORS_ORIGIN == "" || config.CORS_ORIGIN == "*" || origin == config.CORS_ORIGIN
}

// POST /sites/:siteID/intents (auth)
func PostIntent(c *gin.Context) {
	sc, ok := mustSite(c)
	if !ok {
		return
	}

	var env intent.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(400, gin.H{"error": "Malformed intent"})
		return
	}

	if err := dispatch(c, sc, env); err != nil {
		c.JSON(intentStatus(err), gin.H{"error": intentError(err), "intent": env.Name})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

// POST /sites/:siteID/intents/batch (auth)
//
// Intents are applied in order. A batch naming an unknown intent is
// rejected as a whole; otherwise processing stops at the first failure and
// the response says how many were applied before it.
func PostIntentBatch(c *gin.Context) {
	sc, ok := mustSite(c)
	if !ok {
		return
	}

	var envs []intent.Envelope
	if err := c.ShouldBindJSON(&envs); err != nil {
		c.JSON(400, gin.H{"error": "Malformed intent batch"})
		return
	}

	for _, env := range envs {
		if !intent.Known(env.Name) {
			c.JSON(400, BatchResponse{Error: "unknown intent", Intent: string(env.Name)})
			return
		}
	}

	for i, env := range envs {
		if err := dispatch(c, sc, env); err != nil {
			c.JSON(intentStatus(err), BatchResponse{Applied: i, Error: intentError(err), Intent: string(env.Name)})
			return
		}
	}
	c.JSON(200, BatchResponse{Applied: len(envs)})
}

// GET /sites/:siteID/ws (auth)
//
// Each text frame carries one intent envelope. The server writes only when
// an intent fails.
func IntentsWS(c *gin.Context) {
	sc, ok := mustSite(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logrus.WithError(err).Debug("websocket upgrade")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{"site": sc.SiteID, "user_id": sc.OwnerID})
	log.Debug("intent socket opened")

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	// the request context is not tied to a hijacked connection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gwy := gw()
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Info("intent socket closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if messageType != websocket.TextMessage {
			continue
		}

		var env intent.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			writeWSError(conn, WSError{Error: "Malformed intent"})
			continue
		}
		if err := gwy.Dispatch(ctx, sc, env); err != nil {
			log.WithError(err).WithField("intent", env.Name).Warn("intent failed")
			writeWSError(conn, WSError{Error: intentError(err), Intent: string(env.Name)})
		}
	}
}

func writeWSError(conn *websocket.Conn, msg WSError) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteJSON(msg)
}

func dispatch(c *gin.Context, sc gateway.Scope, env intent.Envelope) error {
	err := gw().Dispatch(c.Request.Context(), sc, env)
	if err != nil && intentStatus(err) == 500 {
		logrus.WithError(err).WithFields(logrus.Fields{"site": sc.SiteID, "intent": env.Name}).Error("intent failed")
	}
	return err
}
