package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/config"
	"github.com/mmynk/groupexpenses/internal/gql"
	"github.com/mmynk/groupexpenses/internal/middleware"
	"github.com/mmynk/groupexpenses/internal/service"
	"github.com/mmynk/groupexpenses/internal/storage/sqlite"
	"github.com/mmynk/groupexpenses/pkg/logging"
)

const testSecret = "test-secret"

type testApp struct {
	server *httptest.Server
	tokens *auth.TokenService
}

func newTestApp(t *testing.T, environment string) *testApp {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		Environment: environment,
		Security: config.Security{
			SecretKeyValue:         testSecret,
			TokenExpirationSeconds: 3600,
		},
	}
	logger := logging.Discard()

	store, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "test.db"), sqlite.Options{})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	tokens, err := auth.NewTokenService(cfg.SecretKey(), cfg.TokenExpiration())
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	passwords := auth.NewPasswordService(auth.HashParams{
		MemoryKiB:   1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}, 2, auth.WithDurationHistogram(metrics.PasswordHashDuration))

	schema, err := gql.NewSchema(service.NewResolver(passwords, tokens, logger))
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}

	srv := httptest.NewServer(NewRouter(Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Schema:   schema,
		Tokens:   tokens,
		Metrics:  metrics,
		Registry: registry,
	}))
	t.Cleanup(srv.Close)

	return &testApp{server: srv, tokens: tokens}
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

func (a *testApp) do(t *testing.T, token, query string, variables map[string]interface{}) (int, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/graphql", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, out
}

func (a *testApp) signup(t *testing.T, email string) string {
	t.Helper()
	status, resp := a.do(t, "", `mutation($input: SignupInput!) { signup(input: $input) }`, map[string]interface{}{
		"input": map[string]interface{}{"email": email, "password": "hihihihi"},
	})
	if status != http.StatusOK || len(resp.Errors) > 0 {
		t.Fatalf("signup failed: status %d, errors %+v", status, resp.Errors)
	}
	var token string
	if err := json.Unmarshal(resp.Data["signup"], &token); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	return token
}

func errorCode(t *testing.T, resp gqlResponse) string {
	t.Helper()
	if len(resp.Errors) == 0 {
		t.Fatal("expected an error, got none")
	}
	return resp.Errors[0].Extensions.Code
}

func TestSignupLoginViewer(t *testing.T) {
	app := newTestApp(t, "test")

	token := app.signup(t, "a@b.com")
	userID, err := app.tokens.Verify(token)
	if err != nil {
		t.Fatalf("signup token does not verify: %v", err)
	}

	t.Run("login issues a token for the same user", func(t *testing.T) {
		_, resp := app.do(t, "", `{ login(email: "a@b.com", password: "hihihihi") }`, nil)
		var login string
		if err := json.Unmarshal(resp.Data["login"], &login); err != nil {
			t.Fatalf("failed to decode login: %v (errors %+v)", err, resp.Errors)
		}
		subject, err := app.tokens.Verify(login)
		if err != nil || subject != userID {
			t.Errorf("login subject = %v, %v; want %v", subject, err, userID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, resp := app.do(t, "", `{ login(email: "a@b.com", password: "wrongpass") }`, nil)
		if code := errorCode(t, resp); code != string(service.CodeInvalidCredentials) {
			t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
		}
	})

	t.Run("viewer with token", func(t *testing.T) {
		status, resp := app.do(t, token, `{ viewer { id email groups { name } } }`, nil)
		if status != http.StatusOK || len(resp.Errors) > 0 {
			t.Fatalf("viewer failed: status %d, errors %+v", status, resp.Errors)
		}
		var viewer struct {
			ID     string `json:"id"`
			Email  string `json:"email"`
			Groups []struct {
				Name string `json:"name"`
			} `json:"groups"`
		}
		if err := json.Unmarshal(resp.Data["viewer"], &viewer); err != nil {
			t.Fatalf("failed to decode viewer: %v", err)
		}
		if viewer.ID != userID.String() || viewer.Email != "a@b.com" {
			t.Errorf("unexpected viewer: %+v", viewer)
		}
		if len(viewer.Groups) != 1 || viewer.Groups[0].Name != "Default" {
			t.Errorf("expected the Default group, got %+v", viewer.Groups)
		}
	})

	t.Run("viewer without token", func(t *testing.T) {
		status, _ := app.do(t, "", `{ viewer { id } }`, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", status)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		past, err := auth.NewTokenService([]byte(testSecret), time.Hour, auth.WithClock(func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}))
		if err != nil {
			t.Fatalf("failed to create token service: %v", err)
		}
		expired, err := past.Sign(userID)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		status, _ := app.do(t, expired, `{ viewer { id } }`, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", status)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		parts := strings.Split(token, ".")
		parts[2] = strings.Repeat("A", len(parts[2]))
		status, _ := app.do(t, strings.Join(parts, "."), `{ viewer { id } }`, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", status)
		}
	})
}

func TestDomainErrors(t *testing.T) {
	app := newTestApp(t, "test")
	token := app.signup(t, "a@b.com")

	add := func(name string) (string, gqlResponse) {
		_, resp := app.do(t, token, `mutation($name: String!) { addGroup(name: $name) { id } }`, map[string]interface{}{"name": name})
		var group struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(resp.Data["addGroup"], &group)
		return group.ID, resp
	}

	groupID, resp := add("Trip")
	if len(resp.Errors) > 0 {
		t.Fatalf("addGroup failed: %+v", resp.Errors)
	}

	t.Run("duplicate group name", func(t *testing.T) {
		_, resp := add("Trip")
		if code := errorCode(t, resp); code != string(service.CodeNameNotUnique) {
			t.Errorf("expected NAME_NOT_UNIQUE, got %s", code)
		}
		if string(resp.Data["addGroup"]) != "" && string(resp.Data["addGroup"]) != "null" {
			t.Errorf("expected no data, got %s", resp.Data["addGroup"])
		}
	})

	t.Run("negative resources", func(t *testing.T) {
		_, resp := app.do(t, token, `mutation($g: ID!) { addPerson(groupId: $g, name: "Ann", resources: -1) { id } }`,
			map[string]interface{}{"g": groupID})
		if code := errorCode(t, resp); code != string(service.CodeInvalidResources) {
			t.Errorf("expected INVALID_RESOURCES, got %s", code)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		_, resp := app.do(t, token, `mutation($g: ID!) { addPerson(groupId: $g, name: "Ann", resources: 1) { id } }`,
			map[string]interface{}{"g": groupID})
		var person struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp.Data["addPerson"], &person); err != nil || person.ID == "" {
			t.Fatalf("addPerson failed: %v %+v", err, resp.Errors)
		}

		_, resp = app.do(t, token, `mutation($g: ID!, $p: ID!) { addExpense(groupId: $g, personId: $p, name: "Taxi", amount: 0) { id } }`,
			map[string]interface{}{"g": groupID, "p": person.ID})
		if code := errorCode(t, resp); code != string(service.CodeInvalidAmount) {
			t.Errorf("expected INVALID_AMOUNT, got %s", code)
		}
	})

	t.Run("other tenant cannot see the group", func(t *testing.T) {
		other := app.signup(t, "c@d.com")
		_, resp := app.do(t, other, `query($id: ID!) { group(id: $id) { name } }`, map[string]interface{}{"id": groupID})
		if code := errorCode(t, resp); code != string(service.CodeGroupNotFound) {
			t.Errorf("expected GROUP_NOT_FOUND, got %s", code)
		}
	})
}

func TestMalformedQuery(t *testing.T) {
	app := newTestApp(t, "test")
	status, resp := app.do(t, "", `{ viewer { id `, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code := errorCode(t, resp); code != gql.CodeMalformedQuery {
		t.Errorf("expected %s, got %s", gql.CodeMalformedQuery, code)
	}
}

func TestAuxiliaryRoutes(t *testing.T) {
	get := func(t *testing.T, app *testApp, path string) (int, string) {
		t.Helper()
		resp, err := http.Get(app.server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return resp.StatusCode, buf.String()
	}

	t.Run("health check", func(t *testing.T) {
		app := newTestApp(t, "test")
		status, body := get(t, app, "/health_check")
		if status != http.StatusOK || !strings.Contains(body, `"ok"`) {
			t.Errorf("unexpected health check: %d %s", status, body)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		app := newTestApp(t, "test")
		app.do(t, "", `{ viewer { id } }`, nil)
		status, body := get(t, app, "/metrics")
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if !strings.Contains(body, `gateway_requests_total{decision="unauthorized"} 1`) {
			t.Errorf("expected gateway counter in metrics, got %s", body)
		}
	})

	t.Run("explorer outside production", func(t *testing.T) {
		app := newTestApp(t, "test")
		if status, _ := get(t, app, "/graphql"); status != http.StatusOK {
			t.Errorf("expected 200, got %d", status)
		}
	})

	t.Run("no explorer in production", func(t *testing.T) {
		app := newTestApp(t, config.EnvironmentProduction)
		if status, _ := get(t, app, "/graphql"); status != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", status)
		}
	})
}
