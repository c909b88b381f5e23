package messages

import "github.com/coder/websocket"

// Close codes recognized by the protocol. NORMAL accompanies a graceful
// match end, ABNORMAL a disconnect, forfeit or rejected duplicate seat.
const (
	CodeNormal   = websocket.StatusNormalClosure
	CodeAbnormal = websocket.StatusCode(4001)
)
