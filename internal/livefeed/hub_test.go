package livefeed

import (
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBroadcastDeliversToRegisteredClient(t *testing.T) {
	h := New(zerolog.Nop())
	serverConn, clientConn := net.Pipe()

	h.register(serverConn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	done := make(chan []byte, 1)
	go func() {
		msg, err := wsutil.ReadServerData(clientConn)
		if err != nil {
			done <- nil
			return
		}
		done <- msg.Payload
	}()

	h.Broadcast([]byte("hello"))

	select {
	case payload := <-done:
		require.Equal(t, []byte("hello"), payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	h.Close()
}

func TestCloseDisconnectsAllClients(t *testing.T) {
	h := New(zerolog.Nop())
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	h.register(serverConn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	h.Close()
	require.Equal(t, 0, h.ClientCount())
}
