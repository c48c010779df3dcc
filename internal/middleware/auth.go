package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/gql"
)

// Gate decisions, also used as metric labels.
const (
	DecisionAuthorized   = "authorized"
	DecisionException    = "exception"
	DecisionUnauthorized = "unauthorized"
	DecisionMalformed    = "malformed"
)

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// AuthGate decides, before any resolver runs, whether a GraphQL request may
// execute. Requests selecting only allow-listed fields pass anonymously;
// everything else needs a valid bearer token.
type AuthGate struct {
	tokens  TokenVerifier
	allow   gql.AllowList
	metrics *Metrics
	logger  *slog.Logger
}

// NewAuthGate creates a new AuthGate. metrics may be nil.
func NewAuthGate(tokens TokenVerifier, allow gql.AllowList, metrics *Metrics, logger *slog.Logger) *AuthGate {
	return &AuthGate{
		tokens:  tokens,
		allow:   allow,
		metrics: metrics,
		logger:  logger,
	}
}

// Middleware decodes and classifies the request, then attaches the viewer,
// or rejects with 400 (malformed) or 401 (unauthorized).
func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := gql.DecodeRequest(w, r)
		if err != nil {
			g.record(DecisionMalformed, "")
			gql.WriteMalformed(w, err)
			return
		}

		op, err := gql.Classify(req.Query, req.OperationName)
		if err != nil {
			g.record(DecisionMalformed, "")
			gql.WriteMalformed(w, err)
			return
		}

		ctx := gql.WithRequest(r.Context(), req)

		if op.PublicUnder(g.allow) {
			g.record(DecisionException, op.Key())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			g.record(DecisionUnauthorized, op.Key())
			unauthorized(w)
			return
		}

		userID, err := g.tokens.Verify(token)
		if err != nil {
			g.record(DecisionUnauthorized, op.Key())
			unauthorized(w)
			return
		}

		g.record(DecisionAuthorized, op.Key())
		ctx = auth.WithViewer(ctx, auth.NewViewer(userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *AuthGate) record(decision, op string) {
	if op != "" {
		g.logger.Debug("GraphQL request - " + decision + " for " + op)
	} else {
		g.logger.Debug("GraphQL request - " + decision)
	}
	if g.metrics != nil {
		g.metrics.gatewayRequests.WithLabelValues(decision).Inc()
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
