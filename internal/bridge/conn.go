package bridge

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/gorilla/websocket"
)

// Conn is one bridge connection carrying JSON frames.
type Conn interface {
	ReadFrame() (ipc.Frame, error)
	WriteFrame(f ipc.Frame) error
	Close() error
}

const writeWait = 10 * time.Second

// wsConn is a Conn over a gorilla websocket. Writes are serialized since
// the websocket allows one concurrent writer.
type wsConn struct {
	c   *websocket.Conn
	wmu sync.Mutex
}

// NewWebsocketConn wraps an established websocket connection.
func NewWebsocketConn(c *websocket.Conn) Conn {
	return &wsConn{c: c}
}

func (w *wsConn) ReadFrame() (ipc.Frame, error) {
	var f ipc.Frame
	err := w.c.ReadJSON(&f)
	return f, err
}

func (w *wsConn) WriteFrame(f ipc.Frame) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
	return w.c.WriteJSON(f)
}

func (w *wsConn) Close() error {
	w.wmu.Lock()
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	w.wmu.Unlock()
	return w.c.Close()
}

// Pipe returns two connected in-memory Conns. Frames are JSON encoded on
// the way through so both ends see exactly what a websocket would carry.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeConn{in: ba, out: ab, done: done, once: once}
	b := &pipeConn{in: ab, out: ba, done: done, once: once}
	return a, b
}

type pipeConn struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

func (p *pipeConn) ReadFrame() (ipc.Frame, error) {
	var f ipc.Frame
	select {
	case data := <-p.in:
		return f, json.Unmarshal(data, &f)
	default:
	}
	select {
	case data := <-p.in:
		return f, json.Unmarshal(data, &f)
	case <-p.done:
		return f, io.EOF
	}
}

func (p *pipeConn) WriteFrame(f ipc.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}
	select {
	case p.out <- data:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	}
}

// Close closes both ends.
func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
