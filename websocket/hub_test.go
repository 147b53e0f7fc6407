package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeConn struct {
	mu        sync.Mutex
	frames    []NotificationMessage
	deadlines []time.Time
	closed    bool
	failing   bool
	stall     chan struct{}
	wrote     chan struct{}
}

func newFakeConn() *fakeConn { return &fakeConn{wrote: make(chan struct{}, 8)} }

func (c *fakeConn) WriteJSON(v any) error {
	if c.stall != nil {
		<-c.stall
	}
	c.mu.Lock()
	defer func() {
		c.mu.Unlock()
		select {
		case c.wrote <- struct{}{}:
		default:
		}
	}()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, v.(NotificationMessage))
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines = append(c.deadlines, t)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) snapshot() ([]NotificationMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]NotificationMessage(nil), c.frames...), c.closed
}

func waitWrite(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case <-c.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket write")
	}
}

func TestHubPushesToRegisteredUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	owner := models.User{ID: uuid.New()}
	conn := newFakeConn()
	hub.Register <- &Client{UserID: owner.ID, Conn: conn}

	hub.Push(models.Notification{ID: uuid.New(), Title: "Withdrawal Processed"}, owner)
	waitWrite(t, conn)

	frames, _ := conn.snapshot()
	if len(frames) != 1 || frames[0].Type != "notification" || frames[0].Notification.Title != "Withdrawal Processed" {
		t.Errorf("frames: got %+v", frames)
	}

	// no connection for this user: dropped silently
	hub.Push(models.Notification{Title: "elsewhere"}, models.User{ID: uuid.New()})
	hub.Push(models.Notification{Title: "second"}, owner)
	waitWrite(t, conn)
	if frames, _ := conn.snapshot(); len(frames) != 2 || frames[1].Notification.Title != "second" {
		t.Errorf("frames after second push: got %+v", frames)
	}
}

func TestHubDropsClientOnWriteError(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	owner := models.User{ID: uuid.New()}
	conn := newFakeConn()
	conn.failing = true
	hub.Register <- &Client{UserID: owner.ID, Conn: conn}

	hub.Push(models.Notification{Title: "lost"}, owner)
	waitWrite(t, conn)

	replacement := newFakeConn()
	hub.Register <- &Client{UserID: owner.ID, Conn: replacement}
	if _, closed := conn.snapshot(); !closed {
		t.Error("failing connection should be closed")
	}

	hub.Push(models.Notification{Title: "delivered"}, owner)
	waitWrite(t, replacement)
	if frames, _ := replacement.snapshot(); len(frames) != 1 {
		t.Errorf("replacement frames: got %+v", frames)
	}
}

func TestHubPushDoesNotWaitOnStalledClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	owner := models.User{ID: uuid.New()}
	conn := newFakeConn()
	conn.stall = make(chan struct{})
	defer close(conn.stall)
	hub.Register <- &Client{UserID: owner.ID, Conn: conn}

	started := time.Now()
	for i := 0; i < pushQueueSize+50; i++ {
		hub.Push(models.Notification{Title: "queued"}, owner)
	}
	if elapsed := time.Since(started); elapsed > 500*time.Millisecond {
		t.Errorf("pushing behind a stalled client took %s", elapsed)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.mu.Lock()
		set := append([]time.Time(nil), conn.deadlines...)
		conn.mu.Unlock()
		if len(set) > 0 {
			if !set[0].After(started) {
				t.Errorf("write deadline %s is not in the future", set[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("write deadline not set before writing")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
