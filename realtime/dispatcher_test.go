package realtime

import (
	"encoding/json"
	"testing"

	"github.com/Sean4E/PMHub2/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func envelope(t *testing.T, kind EventKind, payload interface{}) Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Envelope{Event: kind, Data: data}
}

func newTestDispatcher() (*Dispatcher, *Registry, *RoomRouter) {
	registry := NewRegistry()
	rooms := NewRoomRouter()
	return NewDispatcher(registry, rooms), registry, rooms
}

func TestJoinRoomBroadcastsUserJoined(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	member := testConnection("alice")
	joiner := testConnection("bob")
	rooms.Join(member, RoomName("p1"))

	dispatcher.Dispatch(joiner, envelope(t, EventProjectJoin, RoomPayload{ProjectID: "p1"}))

	assert.Equal(t, 2, rooms.MemberCount(RoomName("p1")))

	received := receivedEvents(member)
	require.Len(t, received, 1)
	assert.Equal(t, EventUserJoinedProject, received[0].Event)
	payload := received[0].Data.(UserJoinedProjectPayload)
	assert.Equal(t, "bob", payload.User.Name)
	assert.Equal(t, "p1", payload.ProjectID)

	// The joiner does not hear their own join.
	assert.Empty(t, receivedEvents(joiner))
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	conn := testConnection("alice")

	dispatcher.Dispatch(conn, envelope(t, EventProjectJoin, RoomPayload{ProjectID: "p1"}))
	dispatcher.Dispatch(conn, envelope(t, EventProjectLeave, RoomPayload{ProjectID: "p1"}))

	assert.Equal(t, 0, rooms.MemberCount(RoomName("p1")))
}

// A mutation emitted by a client outside the room still reaches the room's
// members, the sender never hears its own broadcast, and a connection in a
// different room hears nothing.
func TestTaskUpdateFanOut(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	clientA := testConnection("alice")
	clientB := testConnection("bob")
	clientC := testConnection("carol")

	rooms.Join(clientA, RoomName("p1"))
	rooms.Join(clientC, RoomName("p2"))

	task := models.Task{ID: primitive.NewObjectID(), ProjectID: "p1", Title: "write spec"}
	dispatcher.Dispatch(clientB, envelope(t, EventTaskUpdate, TaskPayload{ProjectID: "p1", Task: task}))

	received := receivedEvents(clientA)
	require.Len(t, received, 1)
	assert.Equal(t, EventTaskUpdated, received[0].Event)
	payload := received[0].Data.(TaskUpdatedPayload)
	assert.Equal(t, task.ID, payload.Task.ID)
	assert.Equal(t, "bob", payload.UpdatedBy.Name)

	assert.Empty(t, receivedEvents(clientB))
	assert.Empty(t, receivedEvents(clientC))
}

func TestSenderExclusionWhenSenderInRoom(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	sender := testConnection("alice")
	receiver := testConnection("bob")
	rooms.Join(sender, RoomName("p1"))
	rooms.Join(receiver, RoomName("p1"))

	task := models.Task{ID: primitive.NewObjectID(), ProjectID: "p1"}
	dispatcher.Dispatch(sender, envelope(t, EventTaskUpdate, TaskPayload{ProjectID: "p1", Task: task}))

	assert.Empty(t, receivedEvents(sender))
	assert.Len(t, receivedEvents(receiver), 1)
}

func TestTaskCreateAndDeleteBroadcasts(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	member := testConnection("alice")
	actor := testConnection("bob")
	rooms.Join(member, RoomName("p1"))

	task := models.Task{ID: primitive.NewObjectID(), ProjectID: "p1"}
	dispatcher.Dispatch(actor, envelope(t, EventTaskCreate, TaskPayload{ProjectID: "p1", Task: task}))
	dispatcher.Dispatch(actor, envelope(t, EventTaskDelete, TaskDeletePayload{ProjectID: "p1", TaskID: task.ID.Hex()}))

	received := receivedEvents(member)
	require.Len(t, received, 2)
	assert.Equal(t, EventTaskCreated, received[0].Event)
	created := received[0].Data.(TaskCreatedPayload)
	assert.Equal(t, "bob", created.CreatedBy.Name)
	assert.Equal(t, EventTaskDeleted, received[1].Event)
	deleted := received[1].Data.(TaskDeletedPayload)
	assert.Equal(t, task.ID.Hex(), deleted.TaskID)
	assert.Equal(t, "bob", deleted.DeletedBy.Name)
}

func TestEphemeralEventsAreForwarded(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	member := testConnection("alice")
	actor := testConnection("bob")
	rooms.Join(member, RoomName("p1"))

	dispatcher.Dispatch(actor, envelope(t, EventCommentTyping, TaskRefPayload{ProjectID: "p1", TaskID: "t1"}))
	dispatcher.Dispatch(actor, envelope(t, EventTaskViewing, TaskRefPayload{ProjectID: "p1", TaskID: "t1"}))

	received := receivedEvents(member)
	require.Len(t, received, 2)
	assert.Equal(t, EventCommentUserTyping, received[0].Event)
	assert.Equal(t, EventTaskUserViewing, received[1].Event)
	typing := received[0].Data.(UserActivityPayload)
	assert.Equal(t, "t1", typing.TaskID)
	assert.Equal(t, "bob", typing.User.Name)
}

func TestMalformedPayloadsAreDropped(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	member := testConnection("alice")
	sender := testConnection("bob")
	rooms.Join(member, RoomName("p1"))

	malformed := []Envelope{
		{Event: EventTaskUpdate, Data: json.RawMessage(`not json`)},
		{Event: EventTaskUpdate, Data: json.RawMessage(`{"projectId":""}`)},
		{Event: EventTaskUpdate, Data: nil},
		{Event: EventTaskDelete, Data: json.RawMessage(`{"projectId":"p1","taskId":""}`)},
		{Event: EventProjectJoin, Data: json.RawMessage(`{}`)},
		{Event: EventCommentTyping, Data: json.RawMessage(`{"projectId":"p1"}`)},
	}
	for _, env := range malformed {
		dispatcher.Dispatch(sender, env)
	}

	// Nothing malformed reaches other clients, and the sender's room
	// memberships are untouched.
	assert.Empty(t, receivedEvents(member))
	assert.Empty(t, rooms.Rooms(sender))
}

func TestUnknownEventKindIsDropped(t *testing.T) {
	dispatcher, _, rooms := newTestDispatcher()
	member := testConnection("alice")
	sender := testConnection("bob")
	rooms.Join(member, RoomName("p1"))

	dispatcher.Dispatch(sender, Envelope{Event: "task:explode", Data: json.RawMessage(`{"projectId":"p1"}`)})

	assert.Empty(t, receivedEvents(member))
}
