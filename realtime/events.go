package realtime

import (
	"encoding/json"

	"github.com/Sean4E/PMHub2/models"
)

// EventKind names one wire event. The sets below are closed: the dispatcher
// switches over every inbound kind and anything else is dropped.
type EventKind string

// Inbound (client to server) kinds.
const (
	EventProjectJoin   EventKind = "project:join"
	EventProjectLeave  EventKind = "project:leave"
	EventTaskCreate    EventKind = "task:create"
	EventTaskUpdate    EventKind = "task:update"
	EventTaskDelete    EventKind = "task:delete"
	EventProjectUpdate EventKind = "project:update"
	EventCommentAdd    EventKind = "comment:add"
	EventCommentTyping EventKind = "comment:typing"
	EventTaskViewing   EventKind = "task:viewing"
)

// Outbound (server to client) kinds.
const (
	EventTaskCreated       EventKind = "task:created"
	EventTaskUpdated       EventKind = "task:updated"
	EventTaskDeleted       EventKind = "task:deleted"
	EventProjectUpdated    EventKind = "project:updated"
	EventCommentAdded      EventKind = "comment:added"
	EventCommentUserTyping EventKind = "comment:user-typing"
	EventTaskUserViewing   EventKind = "task:user-viewing"
	EventUserOnline        EventKind = "user:online"
	EventUserOffline       EventKind = "user:offline"
	EventUserJoinedProject EventKind = "user:joined-project"
)

// Envelope is the raw inbound frame; Data stays opaque until the dispatcher
// validates it against the kind's payload shape.
type Envelope struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is an outbound frame with an already-typed payload.
type ServerEvent struct {
	Event EventKind   `json:"event"`
	Data  interface{} `json:"data"`
}

// RoomName returns the broadcast scope label for a project.
func RoomName(projectID string) string {
	return "project:" + projectID
}

// Inbound payload shapes, one per kind in the client-to-server table.

type RoomPayload struct {
	ProjectID string `json:"projectId"`
}

type TaskPayload struct {
	ProjectID string      `json:"projectId"`
	Task      models.Task `json:"task"`
}

type TaskDeletePayload struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
}

type ProjectPayload struct {
	ProjectID string         `json:"projectId"`
	Project   models.Project `json:"project"`
}

type CommentPayload struct {
	ProjectID string         `json:"projectId"`
	TaskID    string         `json:"taskId"`
	Comment   models.Comment `json:"comment"`
}

type TaskRefPayload struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
}

// Outbound payload shapes. Mutation broadcasts carry the acting identity so
// recipients can attribute the change.

type TaskCreatedPayload struct {
	Task      models.Task     `json:"task"`
	CreatedBy models.Identity `json:"createdBy"`
}

type TaskUpdatedPayload struct {
	Task      models.Task     `json:"task"`
	UpdatedBy models.Identity `json:"updatedBy"`
}

type TaskDeletedPayload struct {
	TaskID    string          `json:"taskId"`
	DeletedBy models.Identity `json:"deletedBy"`
}

type ProjectUpdatedPayload struct {
	Project   models.Project  `json:"project"`
	UpdatedBy models.Identity `json:"updatedBy"`
}

type CommentAddedPayload struct {
	TaskID  string          `json:"taskId"`
	Comment models.Comment  `json:"comment"`
	AddedBy models.Identity `json:"addedBy"`
}

type UserActivityPayload struct {
	TaskID string          `json:"taskId"`
	User   models.Identity `json:"user"`
}

type PresencePayload struct {
	UserID string           `json:"userId"`
	User   *models.Identity `json:"user,omitempty"`
}

type UserJoinedProjectPayload struct {
	UserID    string          `json:"userId"`
	User      models.Identity `json:"user"`
	ProjectID string          `json:"projectId"`
}
