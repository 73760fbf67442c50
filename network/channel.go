// network/channel.go
package network

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wfunc/barrelduel/duel"
)

const heartbeatInterval = 30 * time.Second

// DuelChannel is the device side of the peer link. It dials the relay,
// announces its role, and from then on exposes the peer link contract:
// a best-effort Send of a single choice payload, a connected gate, and an
// asynchronous receive callback for the peer's choice.
//
// "Connected" means a peer has been paired, not merely that the socket is
// up.
type DuelChannel struct {
	conn      *WSConnection
	paired    atomic.Bool
	onMessage func(payload []byte)
	log       *zap.SugaredLogger
	closeOnce sync.Once
	closeChan chan struct{}
}

// DialDuel connects to the relay and joins the matchmaking queue. onMessage
// is invoked from the read goroutine for every peer choice that arrives; it
// must hand the payload off (e.g. to a mailbox) and return quickly, and it
// must not touch any state the control loop owns.
func DialDuel(addr string, role duel.Role, deviceID int64, onMessage func(payload []byte), log *zap.SugaredLogger) (*DuelChannel, error) {
	wsConn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", addr, err)
	}

	c := &DuelChannel{
		conn:      NewWSConnection(wsConn),
		onMessage: onMessage,
		log:       log,
		closeChan: make(chan struct{}),
	}

	join, _ := json.Marshal(JoinRequest{Role: role.String(), DeviceID: deviceID})
	if err := c.conn.Send(MsgTypeJoinDuel, join); err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("join duel: %w", err)
	}

	go c.readPump()
	go c.heartbeat()
	return c, nil
}

// Connected reports whether a peer is currently paired.
func (c *DuelChannel) Connected() bool {
	return c.paired.Load()
}

// Send transmits a choice payload best-effort. There is no acknowledgment
// and no retry: a false return (or a payload lost past this point) leaves
// the peer stalled in its waiting phase.
func (c *DuelChannel) Send(payload []byte) bool {
	if !c.paired.Load() {
		return false
	}
	if err := c.conn.Send(MsgTypeChoice, payload); err != nil {
		c.log.Warnf("Choice send failed: %v", err)
		return false
	}
	return true
}

// Close tears down the link.
func (c *DuelChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeChan)
		err = c.conn.Close()
	})
	return err
}

func (c *DuelChannel) readPump() {
	defer c.paired.Store(false)

	for {
		packet, err := c.conn.ReadPacket()
		if err != nil {
			select {
			case <-c.closeChan:
			default:
				c.log.Warnf("Relay link lost: %v", err)
			}
			return
		}

		switch packet.MsgID {
		case MsgTypeMatchReady:
			var ready MatchReady
			if err := json.Unmarshal(packet.Data, &ready); err != nil {
				c.log.Errorf("Bad match-ready payload: %v", err)
				continue
			}
			c.paired.Store(true)
			c.log.Infof("Paired in match %s with device %d", ready.MatchID, ready.PeerDeviceID)

		case MsgTypePeerLeft:
			c.paired.Store(false)
			c.log.Info("Peer left the match")

		case MsgTypeChoice:
			if c.onMessage != nil {
				c.onMessage(packet.Data)
			}

		case MsgTypeError:
			c.log.Warnf("Relay error: %s", packet.Data)

		default:
			c.log.Debugf("Ignoring message type %d", packet.MsgID)
		}
	}
}

func (c *DuelChannel) heartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeChan:
			return
		case <-ticker.C:
			if err := c.conn.Send(MsgTypeHeartbeat, nil); err != nil {
				return
			}
		}
	}
}
