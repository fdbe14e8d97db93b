package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/todo-app/internal/models"
	"github.com/benvon/todo-app/internal/queue"
	"github.com/benvon/todo-app/internal/request"
	"github.com/benvon/todo-app/internal/store"
	"github.com/benvon/todo-app/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultPublishTimeout bounds how long a committed change waits on the broker
const DefaultPublishTimeout = 5 * time.Second

// TodoHandler handles todo-related requests
type TodoHandler struct {
	store          store.TodoStore
	publisher      queue.Publisher
	logger         *zap.Logger
	publishTimeout time.Duration
}

// NewTodoHandler creates a new todo handler. A nil publisher drops change events.
func NewTodoHandler(s store.TodoStore, publisher queue.Publisher, logger *zap.Logger) *TodoHandler {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoHandler{store: s, publisher: publisher, logger: logger, publishTimeout: DefaultPublishTimeout}
}

// RegisterRoutes registers todo routes on the given router
// The router should already have the /api/todos prefix (e.g., from apiRouter.PathPrefix("/todos"))
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateTodo).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.GetTodo).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.UpdateTodo).Methods(http.MethodPut)
	r.HandleFunc("/{id}", h.DeleteTodo).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/toggle", h.ToggleTodo).Methods(http.MethodPatch)
}

// CreateTodoRequest is the POST body. Presence of title is checked separately from its length.
type CreateTodoRequest struct {
	Title       models.Optional[string] `json:"title"`
	Description *string                 `json:"description"`
	Completed   models.Optional[bool]   `json:"completed"`
}

// toCreate converts the request, reporting absent or null fields
func (req CreateTodoRequest) toCreate() (models.TodoCreate, error) {
	verr := &validation.Error{}
	if !req.Title.Set {
		verr.Fields = append(verr.Fields, validation.FieldError{
			Loc: []string{"body", "title"}, Msg: "Field required", Type: "missing",
		})
	} else if req.Title.Null {
		verr.Fields = append(verr.Fields, validation.FieldError{
			Loc: []string{"body", "title"}, Msg: "Input should be a valid string", Type: "string_type",
		})
	}
	if req.Completed.Set && req.Completed.Null {
		verr.Fields = append(verr.Fields, validation.FieldError{
			Loc: []string{"body", "completed"}, Msg: "Input should be a valid boolean", Type: "bool_type",
		})
	}
	if len(verr.Fields) > 0 {
		return models.TodoCreate{}, verr
	}

	return models.TodoCreate{
		Title:       req.Title.Value,
		Description: req.Description,
		Completed:   req.Completed.Value,
	}, nil
}

// ListTodos lists todos in insertion order, optionally filtered by ?completed=
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	var completed *bool
	if raw, ok := r.URL.Query()["completed"]; ok && len(raw) > 0 {
		v, valid := parseBool(raw[0])
		if !valid {
			respondValidation(w, validation.NewError("bool_parsing",
				"Input should be a valid boolean, unable to interpret input",
				"query", "completed"))
			return
		}
		completed = &v
	}

	respondJSON(w, http.StatusOK, h.store.List(r.Context(), completed))
}

// GetTodo returns one todo
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	todo, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// CreateTodo creates a todo and answers 201 with the stored record
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	in, err := req.toCreate()
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	todo, err := h.store.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.publish(r, queue.EventTodoCreated, todo.ID, todo)
	respondJSON(w, http.StatusCreated, todo)
}

// UpdateTodo applies the fields present in the body
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var patch models.TodoPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	todo, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.publish(r, queue.EventTodoUpdated, todo.ID, todo)
	respondJSON(w, http.StatusOK, todo)
}

// ToggleTodo flips the completion state. No request body is read.
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	todo, err := h.store.Toggle(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.publish(r, queue.EventTodoToggled, todo.ID, todo)
	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo removes a todo and answers 204 with no body
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.publish(r, queue.EventTodoDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// publish emits a change event. Failures are logged and never reach the caller.
func (h *TodoHandler) publish(r *http.Request, eventType queue.EventType, id int64, todo *models.Todo) {
	event := queue.NewEvent(eventType, id, todo)
	event.RequestID = request.ID(r)

	// A disconnected client must not cancel the publish, but a stalled broker must not hold the response
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("event_publish_failed",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
			zap.Int64("todo_id", id),
			zap.String("request_id", event.RequestID),
		)
	}
}
