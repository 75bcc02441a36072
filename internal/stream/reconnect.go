package stream

import (
	"time"

	"go.uber.org/zap"

	"github.com/kwal/kwalctl/internal/logging"
)

// startPollingLocked enters RecoveringViaPoll and starts the probe loop.
// Exactly one loop may be active; a second transport failure while
// already polling is a no-op. Caller must hold c.mu.
func (c *Client) startPollingLocked() {
	if c.polling {
		return
	}
	c.polling = true
	c.setStateLocked(RecoveringViaPoll)
	c.pollStop = make(chan struct{})
	logging.Info("Entering reconnect polling", zap.Duration("interval", c.pollInterval))
	go c.pollLoop(c.pollStop, c.pollInterval)
}

// stopPollingLocked cancels a running probe loop. Caller must hold c.mu.
func (c *Client) stopPollingLocked() {
	if !c.polling {
		return
	}
	close(c.pollStop)
	c.pollStop = nil
	c.polling = false
}

// pollLoop probes the health endpoint until it succeeds, then triggers
// the full reload exactly once. The loop exits on first success, so a
// second success can never fire a duplicate reload.
func (c *Client) pollLoop(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.probe(); err != nil {
				logging.Debug("Liveness probe failed", zap.Error(err))
				continue
			}

			c.mu.Lock()
			select {
			case <-stop:
				// Cancelled while probing; the stop wins.
				c.mu.Unlock()
				return
			default:
			}
			c.pollStop = nil
			c.polling = false
			c.setStateLocked(Disconnected)
			c.mu.Unlock()

			logging.Info("Device back online, reloading client context")
			c.reload()
			return
		}
	}
}
