package realtime

import (
	"encoding/json"

	"github.com/Sean4E/PMHub2/logging"
)

// Dispatcher routes inbound frames to the room router. It performs no
// persistence: by the time a client emits a mutation event its HTTP call
// has already committed, so every broadcast is a notification of committed
// state, not a replicated transaction.
type Dispatcher struct {
	registry *Registry
	rooms    *RoomRouter
}

func NewDispatcher(registry *Registry, rooms *RoomRouter) *Dispatcher {
	return &Dispatcher{registry: registry, rooms: rooms}
}

// Dispatch validates the frame's payload against its kind and either
// adjusts room membership or fans the event out. Malformed payloads are
// dropped with a local diagnostic and never reach other clients; the
// connection stays up.
func (d *Dispatcher) Dispatch(c *Connection, envelope Envelope) {
	switch envelope.Event {
	case EventProjectJoin:
		var payload RoomPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" {
			drop(c, envelope)
			return
		}
		room := RoomName(payload.ProjectID)
		d.rooms.Join(c, room)
		logging.Logger.Infof("Event ID: ROOM_JOINED, Description: User %s joined project %s", c.Identity.Name, payload.ProjectID)
		d.rooms.Broadcast(room, c, ServerEvent{
			Event: EventUserJoinedProject,
			Data: UserJoinedProjectPayload{
				UserID:    c.Identity.ID.Hex(),
				User:      c.Identity,
				ProjectID: payload.ProjectID,
			},
		})

	case EventProjectLeave:
		var payload RoomPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" {
			drop(c, envelope)
			return
		}
		d.rooms.Leave(c, RoomName(payload.ProjectID))
		logging.Logger.Infof("Event ID: ROOM_LEFT, Description: User %s left project %s", c.Identity.Name, payload.ProjectID)

	case EventTaskCreate:
		var payload TaskPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.Task.ID.IsZero() {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventTaskCreated,
			Data:  TaskCreatedPayload{Task: payload.Task, CreatedBy: c.Identity},
		})

	case EventTaskUpdate:
		var payload TaskPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.Task.ID.IsZero() {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventTaskUpdated,
			Data:  TaskUpdatedPayload{Task: payload.Task, UpdatedBy: c.Identity},
		})

	case EventTaskDelete:
		var payload TaskDeletePayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.TaskID == "" {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventTaskDeleted,
			Data:  TaskDeletedPayload{TaskID: payload.TaskID, DeletedBy: c.Identity},
		})

	case EventProjectUpdate:
		var payload ProjectPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.Project.ID.IsZero() {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventProjectUpdated,
			Data:  ProjectUpdatedPayload{Project: payload.Project, UpdatedBy: c.Identity},
		})

	case EventCommentAdd:
		var payload CommentPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.TaskID == "" {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventCommentAdded,
			Data:  CommentAddedPayload{TaskID: payload.TaskID, Comment: payload.Comment, AddedBy: c.Identity},
		})

	// Ephemeral kinds: forwarded the same way but carry no durable state;
	// recipients must tolerate missing ones.
	case EventCommentTyping:
		var payload TaskRefPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.TaskID == "" {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventCommentUserTyping,
			Data:  UserActivityPayload{TaskID: payload.TaskID, User: c.Identity},
		})

	case EventTaskViewing:
		var payload TaskRefPayload
		if !decode(c, envelope, &payload) || payload.ProjectID == "" || payload.TaskID == "" {
			drop(c, envelope)
			return
		}
		d.rooms.Broadcast(RoomName(payload.ProjectID), c, ServerEvent{
			Event: EventTaskUserViewing,
			Data:  UserActivityPayload{TaskID: payload.TaskID, User: c.Identity},
		})

	default:
		logging.Logger.Warnf("Event ID: UNKNOWN_EVENT_DROPPED, Description: Unrecognized event kind %q from connection %s", envelope.Event, c.ID)
	}
}

func decode(c *Connection, envelope Envelope, out interface{}) bool {
	if len(envelope.Data) == 0 {
		return false
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return false
	}
	return true
}

func drop(c *Connection, envelope Envelope) {
	logging.Logger.Warnf("Event ID: MALFORMED_EVENT_DROPPED, Description: Malformed %s payload from connection %s (user %s)", envelope.Event, c.ID, c.Identity.ID.Hex())
}
