package test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Fees are the `fees` of a mempool websocket reply.
type Fees struct {
	Minimum  int64
	Economy  int64
	Hour     int64
	HalfHour int64
	Fastest  int64
}

// MempoolReply renders a websocket reply in the shape mempool.space sends
// after the want message.
func MempoolReply(size int64, usage float64, fees Fees, blockVSizes ...float64) string {
	blocks := make([]string, len(blockVSizes))
	for i, vsize := range blockVSizes {
		blocks[i] = fmt.Sprintf(`{"blockSize":%d,"blockVSize":%g,"nTx":%d,"medianFee":%d}`,
			int64(vsize*1.5), vsize, 2000+i, fees.Hour)
	}
	return fmt.Sprintf(`{
		"mempoolInfo":{"loaded":true,"size":%d,"bytes":%d,"usage":%g,"maxmempool":300000000,"mempoolminfee":0.00001,"minrelaytxfee":0.00001},
		"vBytesPerSecond":1523,
		"fees":{"fastestFee":%d,"halfHourFee":%d,"hourFee":%d,"economyFee":%d,"minimumFee":%d},
		"mempool-blocks":[%s]
	}`, size, size*300, usage, fees.Fastest, fees.HalfHour, fees.Hour, fees.Economy, fees.Minimum, strings.Join(blocks, ","))
}

// MempoolServer is a websocket server that answers the want message with a
// fixed reply.
type MempoolServer struct {
	*httptest.Server

	mu       sync.Mutex
	received []string
}

// NewMempoolServer starts a MempoolServer. After the second client message
// the server sends reply. When reply is empty no reply is sent and the
// connection is held open until the client goes away.
func NewMempoolServer(reply string) *MempoolServer {
	s := &MempoolServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for i := 0; i < 2; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, string(msg))
			s.mu.Unlock()
		}

		if reply != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}

		// wait for the client to close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	return s
}

// WebsocketURL returns the ws:// URL of the server.
func (s *MempoolServer) WebsocketURL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// Received returns the messages the server has read so far.
func (s *MempoolServer) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}
