package realtime

import (
	"testing"

	"github.com/Sean4E/PMHub2/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testConnection(name string) *Connection {
	identity := models.Identity{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Email: name + "@example.com",
	}
	return NewConnection(identity, nil)
}

func receivedEvents(c *Connection) []ServerEvent {
	events := []ServerEvent{}
	for {
		select {
		case event := <-c.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	rooms := NewRoomRouter()
	conn := testConnection("alice")

	rooms.Join(conn, RoomName("p1"))
	rooms.Join(conn, RoomName("p1"))

	assert.Equal(t, 1, rooms.MemberCount(RoomName("p1")))
	assert.Equal(t, []string{RoomName("p1")}, rooms.Rooms(conn))
}

func TestLeaveNotJoinedIsNoOp(t *testing.T) {
	rooms := NewRoomRouter()
	conn := testConnection("alice")

	rooms.Leave(conn, RoomName("p1"))

	assert.Equal(t, 0, rooms.MemberCount(RoomName("p1")))
	assert.Empty(t, rooms.Rooms(conn))
}

func TestBroadcastExcludesSender(t *testing.T) {
	rooms := NewRoomRouter()
	sender := testConnection("alice")
	receiver := testConnection("bob")

	rooms.Join(sender, RoomName("p1"))
	rooms.Join(receiver, RoomName("p1"))

	rooms.Broadcast(RoomName("p1"), sender, ServerEvent{Event: EventTaskUpdated})

	assert.Empty(t, receivedEvents(sender))
	received := receivedEvents(receiver)
	require.Len(t, received, 1)
	assert.Equal(t, EventTaskUpdated, received[0].Event)
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	rooms := NewRoomRouter()
	inRoomA := testConnection("alice")
	inRoomB := testConnection("bob")

	rooms.Join(inRoomA, RoomName("a"))
	rooms.Join(inRoomB, RoomName("b"))

	rooms.Broadcast(RoomName("a"), nil, ServerEvent{Event: EventTaskUpdated})

	assert.Len(t, receivedEvents(inRoomA), 1)
	assert.Empty(t, receivedEvents(inRoomB))
}

func TestBroadcastToEmptyRoomIsNoOp(t *testing.T) {
	rooms := NewRoomRouter()
	rooms.Broadcast(RoomName("empty"), nil, ServerEvent{Event: EventTaskUpdated})
	assert.Equal(t, 0, rooms.MemberCount(RoomName("empty")))
}

func TestRemoveConnectionClearsAllMemberships(t *testing.T) {
	rooms := NewRoomRouter()
	conn := testConnection("alice")
	other := testConnection("bob")

	rooms.Join(conn, RoomName("p1"))
	rooms.Join(conn, RoomName("p2"))
	rooms.Join(other, RoomName("p1"))

	rooms.RemoveConnection(conn)

	assert.Empty(t, rooms.Rooms(conn))
	assert.Equal(t, 1, rooms.MemberCount(RoomName("p1")))
	assert.Equal(t, 0, rooms.MemberCount(RoomName("p2")))

	rooms.Broadcast(RoomName("p1"), nil, ServerEvent{Event: EventTaskUpdated})
	assert.Empty(t, receivedEvents(conn))
	assert.Len(t, receivedEvents(other), 1)
}
