package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstack/internal/message"
)

func TestCommandRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	cc, sc := New(client), New(server)

	got := make(chan *message.Message, 1)
	go func() {
		m, err := sc.ReadMsg()
		if err != nil {
			t.Error(err)
			close(got)
			return
		}
		got <- m
	}()

	require.NoError(t, cc.WriteMsg(message.NewCommand("pop")))
	m := <-got
	require.NotNil(t, m)
	assert.Equal(t, message.TypeCommand, m.Type)
	assert.Equal(t, "pop", m.Command)
}

func TestStatusResponseRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	cc, sc := New(client), New(server)

	go func() {
		_ = sc.WriteMsg(&message.Message{
			Type: message.TypeStatusResponse,
			Status: &message.StatusInfo{
				Depth:    3,
				Limit:    100,
				Managing: true,
				Bindings: map[string]string{"pop": "Control + Shift + C"},
			},
		})
	}()

	m, err := cc.ReadMsg()
	require.NoError(t, err)
	require.NotNil(t, m.Status)
	assert.Equal(t, 3, m.Status.Depth)
	assert.True(t, m.Status.Managing)
	assert.Equal(t, "Control + Shift + C", m.Status.Bindings["pop"])
}

func TestReadMsgRejectsGarbage(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	cc := New(client)

	go func() {
		_, _ = server.Write([]byte("{not json}\n"))
	}()

	_, err := cc.ReadMsg()
	assert.Error(t, err)
}
