package gql

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/config"
	"github.com/mmynk/groupexpenses/internal/service"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// CodeMalformedQuery is the error code of requests rejected before execution.
const CodeMalformedQuery = "MALFORMED_QUERY"

// Handler executes GraphQL requests against the schema.
type Handler struct {
	schema graphql.Schema
	store  storage.Store
	config *config.Config
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(schema graphql.Schema, store storage.Store, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		schema: schema,
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// ServeHTTP executes the request with the viewer attached by the auth gate,
// if any. A body already decoded by the gate is reused.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFrom(r.Context())
	if !ok {
		var err error
		req, err = DecodeRequest(w, r)
		if err != nil {
			WriteMalformed(w, err)
			return
		}
	}

	viewer, _ := auth.ViewerFromContext(r.Context())
	rc := &service.RequestContext{
		Store:  h.store,
		Config: h.config,
		Viewer: viewer,
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        withRequestContext(r.Context(), rc),
	})
	if result.HasErrors() {
		h.logger.Debug("GraphQL request completed with errors", "errors", len(result.Errors))
	}

	writeJSON(w, http.StatusOK, result)
}

type errorEnvelope struct {
	Data   interface{}     `json:"data"`
	Errors []envelopeError `json:"errors"`
}

type envelopeError struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions"`
}

// WriteMalformed rejects a request that could not be decoded or classified.
func WriteMalformed(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{
		Errors: []envelopeError{{
			Message:    err.Error(),
			Extensions: map[string]string{"code": CodeMalformedQuery},
		}},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
