package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/philly/edge-permissions/internal/config"
	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/platform/apperror"
	"github.com/philly/edge-permissions/internal/platform/eventbus"
	"github.com/philly/edge-permissions/internal/platform/events"
	"github.com/philly/edge-permissions/internal/platform/logger"
)

// NewHTTPServer builds the *http.Server bound to cfg.HTTPAddr, serving
// the router built by NewRouter.
func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// relationDTO is the wire shape of a Relation.
type relationDTO struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

func (d relationDTO) toRelation() permissions.Relation {
	return permissions.Relation{Schema: d.Schema, Table: d.Table}
}

// changeDTO is the wire shape of a Change. Kind is one of "insert",
// "update", "delete"; ScopeMove never crosses this boundary, it is
// produced only inside the write validator's own expansion step.
type changeDTO struct {
	Kind           string         `json:"kind"`
	Relation       relationDTO    `json:"relation"`
	Record         map[string]any `json:"record,omitempty"`
	OldRecord      map[string]any `json:"old_record,omitempty"`
	ChangedColumns []string       `json:"changed_columns,omitempty"`
}

func (d changeDTO) toChange() (permissions.Change, error) {
	relation := d.Relation.toRelation()
	switch d.Kind {
	case "insert":
		return permissions.NewInsert(relation, d.Record), nil
	case "update":
		cols := make(map[string]struct{}, len(d.ChangedColumns))
		for _, c := range d.ChangedColumns {
			cols[c] = struct{}{}
		}
		return permissions.NewUpdate(relation, d.Record, d.OldRecord, cols), nil
	case "delete":
		return permissions.NewDelete(relation, d.OldRecord), nil
	default:
		return permissions.Change{}, errors.New("unknown change kind: " + d.Kind)
	}
}

// transactionDTO is the wire shape of a Transaction.
type transactionDTO struct {
	LSN     uint64      `json:"lsn"`
	Changes []changeDTO `json:"changes"`
}

func (d transactionDTO) toTransaction() (permissions.Transaction, error) {
	changes := make([]permissions.Change, 0, len(d.Changes))
	for _, c := range d.Changes {
		change, err := c.toChange()
		if err != nil {
			return permissions.Transaction{}, err
		}
		changes = append(changes, change)
	}
	return permissions.Transaction{LSN: d.LSN, Changes: changes}, nil
}

// NewRouter wires the demonstration HTTP surface: a liveness probe plus
// two endpoints purely to exercise ValidateWrite and FilterRead against a
// freshly compiled permissions set for the caller's identity. This is glue for the demo,
// not a protocol the core owns.
func NewRouter(s *Server, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/transactions/write", s.handleValidateWrite)
	r.Post("/transactions/read", s.handleFilterRead)

	return r
}

func (s *Server) handleValidateWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := events.NewRequestID()

	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx, err := dto.toTransaction()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.identityFromRequest(ctx, r.Header.Get("Authorization"))
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	compiled, err := s.compileFor(ctx, id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if err := permissions.ValidateWrite(ctx, s.log, compiled, tx); err != nil {
		s.bus.Publish(ctx, eventbus.Event{
			Topic: events.TopicWriteRejected,
			Payload: events.WriteRejectedEvent{
				RequestID: requestID,
				UserID:    id.UserID,
				Reason:    err.Error(),
			},
		})
		writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilterRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := events.NewRequestID()

	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx, err := dto.toTransaction()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.identityFromRequest(ctx, r.Header.Get("Authorization"))
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	compiled, err := s.compileFor(ctx, id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	filtered, moveOuts, err := permissions.FilterRead(ctx, compiled, tx)
	if err != nil {
		writeAppError(w, err)
		return
	}

	for _, mo := range moveOuts {
		s.bus.Publish(ctx, eventbus.Event{
			Topic:   events.TopicRowMovedOut,
			Payload: events.RowMovedOutEvent{RequestID: requestID, UserID: id.UserID, MoveOut: mo},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lsn":          filtered.LSN,
		"change_count": len(filtered.Changes),
		"move_outs":    len(moveOuts),
	})
}

func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		writeJSONError(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestLogger logs each request's method, path, status and duration
// through the application logger, following the teacher's
// withObservability middleware.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info(r.Context(), "http request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
