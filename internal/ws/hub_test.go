package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(h *Hub, collaboratorID uint) *Client {
	c := &Client{CollaboratorID: collaboratorID, Send: make(chan []byte, 8)}
	h.Register(c)
	return c
}

func drain(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	default:
		t.Fatal("expected a queued message")
		return Envelope{}
	}
}

func TestBroadcastAll(t *testing.T) {
	h := NewHub()
	a := newHubClient(h, 1)
	b := newHubClient(h, 2)

	h.BroadcastAll(Outbound{Event: EvTimersSync, Data: []int{}})

	assert.Equal(t, EvTimersSync, drain(t, a).Event)
	assert.Equal(t, EvTimersSync, drain(t, b).Event)
}

func TestBroadcastOthersSkipsSender(t *testing.T) {
	h := NewHub()
	sender := newHubClient(h, 1)
	other := newHubClient(h, 2)

	h.BroadcastOthers(sender, Outbound{Event: EvUserStartedAttendance})

	assert.Equal(t, EvUserStartedAttendance, drain(t, other).Event)
	assert.Empty(t, sender.Send)
}

func TestBroadcastToCollaboratorHitsAllConnections(t *testing.T) {
	h := NewHub()
	phone := newHubClient(h, 7)
	desktop := newHubClient(h, 7)
	stranger := newHubClient(h, 8)

	h.BroadcastToCollaborator(7, Outbound{Event: EvTransferReceived})

	assert.Equal(t, EvTransferReceived, drain(t, phone).Event)
	assert.Equal(t, EvTransferReceived, drain(t, desktop).Event)
	assert.Empty(t, stranger.Send)
}

func TestReindexAfterAuthentication(t *testing.T) {
	h := NewHub()
	c := &Client{Send: make(chan []byte, 8)}
	h.Register(c) // anonymous: no collaborator index yet

	h.BroadcastToCollaborator(7, Outbound{Event: EvTransferReceived})
	assert.Empty(t, c.Send)

	c.CollaboratorID = 7
	h.Reindex(c)

	h.BroadcastToCollaborator(7, Outbound{Event: EvTransferReceived})
	assert.Equal(t, EvTransferReceived, drain(t, c).Event)
}

func TestCloseUnregisters(t *testing.T) {
	h := NewHub()
	c := newHubClient(h, 1)
	require.Equal(t, 1, h.ClientCount())

	c.Close()
	assert.Equal(t, 0, h.ClientCount())

	// second close is a no-op, not a panic on the closed channel
	c.Close()
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	slow := &Client{CollaboratorID: 1, Send: make(chan []byte)} // unbuffered, nobody reading
	h.Register(slow)
	fast := newHubClient(h, 2)

	h.BroadcastAll(Outbound{Event: EvTimersSync})

	// the slow client's message is dropped, the fast one still gets it
	assert.Equal(t, EvTimersSync, drain(t, fast).Event)
}
