// network/connection.go
package network

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// Packet is one framed message: 2-byte message ID, 2-byte payload length,
// payload. The framing belongs to the relay transport; the duel's own wire
// format is just the single-digit payload inside a choice packet.
type Packet struct {
	MsgID  uint16
	Data   []byte
	Length uint16
}

// ErrPayloadTooLarge is returned when a payload exceeds the 16-bit length
// field.
var ErrPayloadTooLarge = errors.New("payload exceeds frame limit")

// Connection is a framed, bidirectional message link.
type Connection interface {
	Send(msgID uint16, data []byte) error
	ReadPacket() (*Packet, error)
	Close() error
	RemoteAddr() net.Addr
}

// WSConnection frames packets over a websocket. Sends are serialized; reads
// must stay on a single goroutine.
type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

func (c *WSConnection) Send(msgID uint16, data []byte) error {
	if len(data) > math.MaxUint16 {
		return ErrPayloadTooLarge
	}

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	if len(data) < 4 {
		return nil, io.ErrShortBuffer
	}

	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint16(data[2:4])

	if len(data) < int(4+length) {
		return nil, io.ErrShortBuffer
	}

	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[4 : 4+length],
	}, nil
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
