// handlers/scores.go - session leaderboard snapshot and push channel
package handlers

import (
	"time"

	"taaltoren/logger"
	"taaltoren/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second // Time allowed to write a message
	pingPeriod = 15 * time.Second // Send pings at this interval
)

// PublicScores returns the current leaderboard aggregates and countdown.
// GET /scores/public
func PublicScores(c *fiber.Ctx) error {
	session, global, timer := scoreboard.Snapshot()
	return utils.OK(c, fiber.Map{
		"sessionScores": session,
		"globalScores":  global,
		"timer":         timer,
	})
}

// ScoresSocket streams sync/tick/clear events to one websocket client.
// The subscriber queue is drained by this connection's write loop; a
// reader goroutine only watches for the peer closing.
func ScoresSocket(c *websocket.Conn) {
	sub := scoreboard.Subscribe()
	defer scoreboard.Unsubscribe(sub)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev := <-sub.C:
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(ev); err != nil {
				logger.Log.Debugf("scores socket write failed: %v", err)
				return
			}
		case <-ping.C:
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
