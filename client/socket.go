package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/Sean4E/PMHub2/models"
	"github.com/Sean4E/PMHub2/realtime"

	"github.com/gorilla/websocket"
)

// Socket is the Go counterpart of the dashboard's socket service: it holds
// one authenticated realtime connection and exposes emit helpers plus
// per-kind handler registration.
type Socket struct {
	conn *websocket.Conn

	mu       sync.Mutex
	handlers map[realtime.EventKind]func(json.RawMessage)
	done     chan struct{}
}

// Connect dials the realtime endpoint with the bearer token in the
// handshake. A rejected handshake returns the server's reason.
func Connect(serverURL, token string) (*Socket, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %v", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection rejected with status %d: %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("connection failed: %v", err)
	}

	s := &Socket{
		conn:     conn,
		handlers: make(map[realtime.EventKind]func(json.RawMessage)),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// On registers the handler for an event kind, replacing any previous one.
func (s *Socket) On(kind realtime.EventKind, handler func(json.RawMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = handler
}

func (s *Socket) readLoop() {
	defer close(s.done)
	for {
		var envelope realtime.Envelope
		if err := s.conn.ReadJSON(&envelope); err != nil {
			return
		}
		s.mu.Lock()
		handler := s.handlers[envelope.Event]
		s.mu.Unlock()
		if handler != nil {
			handler(envelope.Data)
		}
	}
}

// Emit sends one event frame.
func (s *Socket) Emit(kind realtime.EventKind, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(realtime.ServerEvent{Event: kind, Data: data})
}

func (s *Socket) JoinProject(projectID string) error {
	return s.Emit(realtime.EventProjectJoin, realtime.RoomPayload{ProjectID: projectID})
}

func (s *Socket) LeaveProject(projectID string) error {
	return s.Emit(realtime.EventProjectLeave, realtime.RoomPayload{ProjectID: projectID})
}

func (s *Socket) CreateTask(projectID string, task models.Task) error {
	return s.Emit(realtime.EventTaskCreate, realtime.TaskPayload{ProjectID: projectID, Task: task})
}

func (s *Socket) UpdateTask(projectID string, task models.Task) error {
	return s.Emit(realtime.EventTaskUpdate, realtime.TaskPayload{ProjectID: projectID, Task: task})
}

func (s *Socket) DeleteTask(projectID, taskID string) error {
	return s.Emit(realtime.EventTaskDelete, realtime.TaskDeletePayload{ProjectID: projectID, TaskID: taskID})
}

func (s *Socket) UpdateProject(projectID string, project models.Project) error {
	return s.Emit(realtime.EventProjectUpdate, realtime.ProjectPayload{ProjectID: projectID, Project: project})
}

func (s *Socket) AddComment(projectID, taskID string, comment models.Comment) error {
	return s.Emit(realtime.EventCommentAdd, realtime.CommentPayload{ProjectID: projectID, TaskID: taskID, Comment: comment})
}

func (s *Socket) TypingComment(projectID, taskID string) error {
	return s.Emit(realtime.EventCommentTyping, realtime.TaskRefPayload{ProjectID: projectID, TaskID: taskID})
}

func (s *Socket) ViewingTask(projectID, taskID string) error {
	return s.Emit(realtime.EventTaskViewing, realtime.TaskRefPayload{ProjectID: projectID, TaskID: taskID})
}

// Close shuts the socket down and waits for the read loop to exit.
func (s *Socket) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}
