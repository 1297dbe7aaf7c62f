// Package feed provides a camera-side client that streams frames to a
// composer over websocket and surfaces its replies.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-compose/pkg/protocol"
)

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("feed: client closed")

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 5 * time.Second
	replyBuffer      = 64
)

// Reply is one server message. Exactly one payload is set, matching Type.
type Reply struct {
	Type      protocol.MessageType
	Time      time.Time
	Guidance  *protocol.GuidanceData
	Zoom      *protocol.ZoomData
	Reacquire *protocol.ReacquireData
	Error     *protocol.ErrorData
	Pong      *protocol.PongData
}

// Client manages the websocket connection to a composer
type Client struct {
	ws     *websocket.Conn
	wsMu   sync.Mutex
	logger *slog.Logger

	replies   chan Reply
	done      chan struct{}
	closeOnce sync.Once

	nextFrame atomic.Uint64
	dropped   atomic.Uint64
}

// Dial connects to a composer camera endpoint such as
// ws://localhost:8090/ws/camera/front.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	c := &Client{
		ws:      ws,
		logger:  logger,
		replies: make(chan Reply, replyBuffer),
		done:    make(chan struct{}),
	}
	go c.handleMessages()
	return c, nil
}

// Replies delivers server messages in arrival order. It is closed when the
// connection ends. Replies are dropped when the reader falls behind.
func (c *Client) Replies() <-chan Reply {
	return c.replies
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Dropped returns how many replies were dropped.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// SendFrame sends one encoded frame. A zero FrameID is replaced with the
// next id in sequence. It returns the id used.
func (c *Client) SendFrame(fd protocol.FrameData, image []byte) (uint64, error) {
	if fd.FrameID == 0 {
		fd.FrameID = c.nextFrame.Add(1)
	} else {
		c.nextFrame.Store(fd.FrameID)
	}
	msg, err := protocol.NewFrameMessage(fd, image)
	if err != nil {
		return 0, err
	}
	return fd.FrameID, c.send(msg)
}

// SetTemplate selects a template
func (c *Client) SetTemplate(id string) error {
	msg, err := protocol.NewTemplateMessage(id)
	if err != nil {
		return err
	}
	return c.send(msg)
}

// SmartCompose starts, cancels or completes smart compose
func (c *Client) SmartCompose(action, suggestion string, confidence float64) error {
	msg, err := protocol.NewSmartComposeMessage(action, suggestion, confidence)
	if err != nil {
		return err
	}
	return c.send(msg)
}

// Reset clears the server-side session. Frame ids restart at 1.
func (c *Client) Reset() error {
	msg, err := protocol.NewResetMessage()
	if err != nil {
		return err
	}
	if err := c.send(msg); err != nil {
		return err
	}
	c.nextFrame.Store(0)
	return nil
}

// Ping sends an application-level ping
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.send(msg)
}

func (c *Client) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// handleMessages reads until the connection fails
func (c *Client) handleMessages() {
	defer func() {
		c.shutdown()
		close(c.replies)
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("feed connection closed", "error", err)
			}
			return
		}

		reply, err := parseReply(data)
		if err != nil {
			c.logger.Warn("bad reply", "error", err)
			continue
		}

		select {
		case c.replies <- reply:
		default:
			c.dropped.Add(1)
		}
	}
}

func parseReply(data []byte) (Reply, error) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return Reply{}, err
	}

	r := Reply{Type: msg.Type, Time: msg.Time()}
	switch msg.Type {
	case protocol.TypeGuidance:
		r.Guidance, err = msg.GetGuidanceData()
	case protocol.TypeZoom:
		r.Zoom, err = msg.GetZoomData()
	case protocol.TypeReacquire:
		r.Reacquire, err = msg.GetReacquireData()
	case protocol.TypeError:
		r.Error, err = msg.GetErrorData()
	case protocol.TypePong:
		r.Pong, err = msg.GetPongData()
	default:
		return Reply{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	return r, err
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Close sends a close frame and tears down the connection.
func (c *Client) Close() error {
	c.shutdown()

	c.wsMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.wsMu.Unlock()

	return c.ws.Close()
}
