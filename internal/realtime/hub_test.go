package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub, userID uuid.UUID) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Connect(w, r, userID); err != nil {
			t.Errorf("connect: %v", err)
		}
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHubDeliversToRecipientsOnly(t *testing.T) {
	hub := NewHub(nil, nil)
	alice, bob := uuid.New(), uuid.New()

	aliceConn, closeAlice := dial(t, hub, alice)
	defer closeAlice()
	bobConn, closeBob := dial(t, hub, bob)
	defer closeBob()

	require.Eventually(t, func() bool {
		return hub.ClientCount(alice) == 1 && hub.ClientCount(bob) == 1
	}, time.Second, 10*time.Millisecond)

	friendshipID := uuid.NewString()
	hub.Publish(models.ChangeEvent{
		Type:         models.ChangeFriendship,
		FriendshipID: friendshipID,
		Status:       models.FriendshipAccepted,
	}, alice)

	require.NoError(t, aliceConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := aliceConn.ReadMessage()
	require.NoError(t, err)

	var got models.ChangeEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, models.ChangeFriendship, got.Type)
	assert.Equal(t, friendshipID, got.FriendshipID)
	assert.Equal(t, models.FriendshipAccepted, got.Status)
	assert.False(t, got.At.IsZero())

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's event")
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil, nil)
	user := uuid.New()

	_, closeConn := dial(t, hub, user)
	require.Eventually(t, func() bool { return hub.ClientCount(user) == 1 }, time.Second, 10*time.Millisecond)

	closeConn()
	require.Eventually(t, func() bool { return hub.ClientCount(user) == 0 }, 2*time.Second, 10*time.Millisecond)

	// publishing to a user with no connections is a no-op
	hub.Publish(models.ChangeEvent{Type: models.ChangePlace}, user)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(nil, nil)
	user := uuid.New()

	conn, closeConn := dial(t, hub, user)
	defer closeConn()
	require.Eventually(t, func() bool { return hub.ClientCount(user) == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount(user))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
