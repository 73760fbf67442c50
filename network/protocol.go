package network

const (
	MsgTypeHeartbeat  = 1
	MsgTypeJoinDuel   = 101
	MsgTypeMatchReady = 102
	MsgTypePeerLeft   = 103
	MsgTypeChoice     = 201
	MsgTypeError      = 301
)

// JoinRequest is the payload of MsgTypeJoinDuel: a device announces its role
// and identity so the relay can pair it.
type JoinRequest struct {
	Role     string `json:"role"`
	DeviceID int64  `json:"device_id"`
}

// MatchReady is the payload of MsgTypeMatchReady, sent to both devices when
// a shooter and a dodger have been paired. Receiving it is the device's
// "connection established" signal.
type MatchReady struct {
	MatchID      string `json:"match_id"`
	PeerDeviceID int64  `json:"peer_device_id"`
}
