package handler

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"doctrack/internal/http/middleware"
	"doctrack/internal/realtime"
)

// feedKeepAlive is the interval of SSE comment lines that keep proxies from closing idle streams.
const feedKeepAlive = 25 * time.Second

// Feed godoc
// @Summary Server-Sent Events stream of the caller's document changes
// @Description Each event carries {type, document_id}; clients re-fetch their list on receipt.
// @Tags documents
// @Produce text/event-stream
// @Success 200
// @Failure 503 {object} errorPayload
// @Router /feed [get]
func Feed(sub realtime.Subscriber) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sub == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "realtime feed unavailable")
		}

		// The stream outlives the handler, so it cannot use the request context.
		ctx, cancel := context.WithCancel(context.Background())
		s, err := sub.Subscribe(ctx, middleware.UserID(c))
		if err != nil {
			cancel()
			c.Locals(middleware.ErrorLocalKey, err.Error())
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "realtime feed unavailable")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			defer s.Close()
			streamEvents(w, s.Events(), feedKeepAlive)
		}))
		return nil
	}
}

// streamEvents writes events until the channel closes or the client goes away.
func streamEvents(w *bufio.Writer, events <-chan realtime.ChangeEvent, keepAlive time.Duration) {
	fmt.Fprint(w, ": connected\n\n")
	if w.Flush() != nil {
		return
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := realtime.Encode(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		// A failed flush means the client disconnected.
		if w.Flush() != nil {
			return
		}
	}
}
