package handlers

import (
	"bytes"
	"net/http"

	"github.com/benvon/todo-app/internal/logger"
	"github.com/benvon/todo-app/internal/models"
	"github.com/benvon/todo-app/internal/request"
	"github.com/benvon/todo-app/internal/web"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PageHandler serves the landing page and its assets
type PageHandler struct {
	logger *zap.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{logger: logger}
}

// RegisterRoutes registers the landing page and static asset routes
func (h *PageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.PathPrefix(web.StaticPrefix).Handler(http.StripPrefix(web.StaticPrefix, web.StaticHandler())).Methods(http.MethodGet, http.MethodHead)
}

// Index renders the landing page
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := web.RenderIndex(&buf, web.PageData{
		Title:                "Todo App",
		Service:              logger.ServiceName,
		Version:              Version,
		MaxTitleLength:       models.MaxTitleLength,
		MaxDescriptionLength: models.MaxDescriptionLength,
	})
	if err != nil {
		h.logger.Error("failed_to_render_page",
			zap.Error(err),
			zap.String("request_id", request.ID(r)),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
