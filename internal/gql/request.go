// Package gql exposes the API over GraphQL: request decoding, operation
// classification for the auth gate, the schema and its HTTP handler.
package gql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mmynk/groupexpenses/internal/service"
)

// MaxBodyBytes bounds the size of a GraphQL request body.
const MaxBodyBytes = 1 << 20

// Request is the POST body of a GraphQL call.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// ErrBadRequest is returned when the body is not a GraphQL request.
var ErrBadRequest = errors.New("invalid GraphQL request body")

// DecodeRequest reads and decodes a request body of at most MaxBodyBytes.
func DecodeRequest(w http.ResponseWriter, r *http.Request) (*Request, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: missing query", ErrBadRequest)
	}
	return &req, nil
}

type contextKey string

const (
	requestKey        contextKey = "graphql_request"
	requestContextKey contextKey = "resolver_context"
)

// WithRequest stores a decoded request so the body is only read once.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

// RequestFrom returns the request stored by WithRequest.
func RequestFrom(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestKey).(*Request)
	return req, ok && req != nil
}

func withRequestContext(ctx context.Context, rc *service.RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// requestContext returns the resolver context for a field resolution.
// The handler always installs one before executing.
func requestContext(ctx context.Context) *service.RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*service.RequestContext)
	if rc == nil {
		return &service.RequestContext{}
	}
	return rc
}
