package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"todoapp/internal/cache"
	"todoapp/internal/controller"
	"todoapp/internal/database/dbtest"
	"todoapp/internal/notify"
	"todoapp/internal/oauth"
	"todoapp/internal/repository"
	"todoapp/internal/service"
	"todoapp/internal/token"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, notify.Message) {}

type rejectVerifier struct{}

func (rejectVerifier) Verify(context.Context, string) (oauth.GoogleIdentity, error) {
	return oauth.GoogleIdentity{}, oauth.ErrVerification
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	issuer  *token.Issuer
	store   *repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.New(dbtest.New(t))
	issuer := token.NewIssuer("router-secret", time.Hour, 24*time.Hour, nil)
	stats := cache.NewStatsCache(nil, 0)
	d := Deps{
		Issuer:      issuer,
		Auth:        service.NewAuth(store, issuer, rejectVerifier{}, discardNotifier{}),
		Todos:       service.NewTodos(store, stats, discardNotifier{}),
		Health:      controller.NewHealthHandler(store, stats, "test"),
		CORSOrigins: []string{"http://localhost:3000"},
	}
	return &testServer{t: t, handler: Handler(d), issuer: issuer, store: store}
}

func (s *testServer) do(method, path, bearer string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (s *testServer) register(email string) (access, refresh string) {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret1", "first_name": "Ada", "last_name": "Lovelace",
	})
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %v", email, code, body)
	}
	return body["access_token"].(string), body["refresh_token"].(string)
}

func (s *testServer) createTodo(bearer string, body interface{}) int {
	s.t.Helper()
	code, resp := s.do(http.MethodPost, "/api/todos", bearer, body)
	if code != http.StatusCreated {
		s.t.Fatalf("create todo: %d %v", code, resp)
	}
	return int(resp["todo"].(map[string]interface{})["id"].(float64))
}

func TestRegisterAndLoginFlow(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "  Ada@Example.com", "password": "secret1", "first_name": "Ada", "last_name": "Lovelace",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: %d %v", code, body)
	}
	user := body["user"].(map[string]interface{})
	if user["email"] != "ada@example.com" || user["full_name"] != "Ada Lovelace" || body["token_type"] != "Bearer" {
		t.Fatalf("unexpected register body %v", body)
	}
	if body["message"] != "User registered successfully" {
		t.Fatalf("unexpected message %v", body["message"])
	}

	code, body = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ADA@example.com", "password": "secret1", "first_name": "x", "last_name": "y",
	})
	if code != http.StatusConflict || body["error"] != "User with this email already exists" {
		t.Fatalf("expected conflict, got %d %v", code, body)
	}

	code, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "  Ada@Example.com", "password": "secret1"})
	if code != http.StatusOK || body["access_token"] == "" {
		t.Fatalf("login: %d %v", code, body)
	}
	code, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope123"})
	if code != http.StatusUnauthorized || body["error"] != "Invalid email or password" {
		t.Fatalf("expected bad credentials, got %d %v", code, body)
	}
	code, body = s.do(http.MethodPost, "/api/auth/login", "", nil)
	if code != http.StatusBadRequest || body["error"] != "Email and password are required" {
		t.Fatalf("expected missing fields, got %d %v", code, body)
	}
	code, body = s.do(http.MethodPost, "/api/auth/login", "", "{not json")
	if code != http.StatusBadRequest {
		t.Fatalf("expected bad json to be 400, got %d %v", code, body)
	}
}

func TestGoogleLoginRejected(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(http.MethodPost, "/api/auth/google", "", map[string]string{})
	if code != http.StatusBadRequest || body["error"] != "Google token is required" {
		t.Fatalf("expected missing token, got %d %v", code, body)
	}
	code, body = s.do(http.MethodPost, "/api/auth/google", "", map[string]string{"token": "forged"})
	if code != http.StatusUnauthorized || body["error"] != "Invalid Google token" {
		t.Fatalf("expected invalid token, got %d %v", code, body)
	}
}

func TestTokenErrors(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.register("a@b.com")

	code, body := s.do(http.MethodGet, "/api/todos", "", nil)
	if code != http.StatusUnauthorized || body["error"] != "Authorization token is required" {
		t.Fatalf("missing token: %d %v", code, body)
	}

	code, body = s.do(http.MethodGet, "/api/todos", "not-a-jwt", nil)
	if code != http.StatusUnauthorized || body["error"] != "Invalid token" {
		t.Fatalf("malformed token: %d %v", code, body)
	}

	past := token.NewIssuer("router-secret", time.Hour, time.Hour, func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})
	expired, err := past.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	code, body = s.do(http.MethodGet, "/api/todos", expired.AccessToken, nil)
	if code != http.StatusUnauthorized || body["error"] != "Token has expired" {
		t.Fatalf("expired token: %d %v", code, body)
	}

	// Kinds are not interchangeable.
	code, body = s.do(http.MethodGet, "/api/todos", refresh, nil)
	if code != http.StatusUnauthorized || body["error"] != "Invalid token" {
		t.Fatalf("refresh token as access: %d %v", code, body)
	}
	code, _ = s.do(http.MethodPost, "/api/auth/refresh", access, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("access token as refresh: %d", code)
	}

	code, body = s.do(http.MethodPost, "/api/auth/refresh", refresh, nil)
	if code != http.StatusOK || body["access_token"] == "" || body["user"] == nil {
		t.Fatalf("refresh: %d %v", code, body)
	}
}

func TestMeLogoutAndDeletedUser(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.register("a@b.com")
	s.createTodo(access, map[string]string{"title": "one"})

	code, body := s.do(http.MethodGet, "/api/auth/me", access, nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d %v", code, body)
	}
	if user := body["user"].(map[string]interface{}); user["todo_count"] != float64(1) {
		t.Fatalf("unexpected user %v", user)
	}

	code, body = s.do(http.MethodPost, "/api/auth/logout", access, nil)
	if code != http.StatusOK || body["message"] != "Logout successful" {
		t.Fatalf("logout: %d %v", code, body)
	}

	id, err := s.issuer.Verify(access, token.Access)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := s.store.Users().Delete(context.Background(), id); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	code, body = s.do(http.MethodGet, "/api/auth/me", access, nil)
	if code != http.StatusNotFound || body["error"] != "User not found" {
		t.Fatalf("deleted user: %d %v", code, body)
	}
	code, body = s.do(http.MethodPost, "/api/auth/refresh", refresh, nil)
	if code != http.StatusNotFound || body["error"] != "User not found or inactive" {
		t.Fatalf("refresh for deleted user: %d %v", code, body)
	}
}

func TestTodoCRUD(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.register("a@b.com")

	id := s.createTodo(access, map[string]string{"title": "Write tests", "priority": "high"})
	path := fmt.Sprintf("/api/todos/%d", id)

	code, body := s.do(http.MethodGet, path, access, nil)
	todo := body["todo"].(map[string]interface{})
	if code != http.StatusOK || todo["title"] != "Write tests" || todo["due_date"] != nil || todo["completed_at"] != nil {
		t.Fatalf("get: %d %v", code, body)
	}

	code, body = s.do(http.MethodPut, path, access, `{"due_date": null}`)
	if code != http.StatusOK || body["todo"].(map[string]interface{})["due_date"] != nil {
		t.Fatalf("clear due date: %d %v", code, body)
	}

	code, body = s.do(http.MethodPut, path, access, map[string]bool{"completed": true})
	todo = body["todo"].(map[string]interface{})
	if code != http.StatusOK || todo["completed"] != true || todo["completed_at"] == nil {
		t.Fatalf("complete: %d %v", code, body)
	}
	code, body = s.do(http.MethodPut, path, access, map[string]bool{"completed": false})
	todo = body["todo"].(map[string]interface{})
	if code != http.StatusOK || todo["completed"] != false || todo["completed_at"] != nil {
		t.Fatalf("uncomplete: %d %v", code, body)
	}

	code, body = s.do(http.MethodPut, path, access, map[string]string{"title": " "})
	if code != http.StatusBadRequest || body["error"] != "Title cannot be empty" {
		t.Fatalf("empty title: %d %v", code, body)
	}

	code, body = s.do(http.MethodPost, "/api/todos", access, map[string]string{"title": "x", "due_date": "soon"})
	if code != http.StatusBadRequest || body["error"] != "Invalid due_date format. Use ISO format." {
		t.Fatalf("bad due date: %d %v", code, body)
	}
	code, body = s.do(http.MethodPost, "/api/todos", access, nil)
	if code != http.StatusBadRequest || body["error"] != "Title is required" {
		t.Fatalf("empty body: %d %v", code, body)
	}

	code, body = s.do(http.MethodDelete, path, access, nil)
	if code != http.StatusOK || body["message"] != "Todo deleted successfully" {
		t.Fatalf("delete: %d %v", code, body)
	}
	code, body = s.do(http.MethodGet, path, access, nil)
	if code != http.StatusNotFound || body["error"] != "Todo not found" {
		t.Fatalf("get after delete: %d %v", code, body)
	}

	for _, bad := range []string{"/api/todos/0", "/api/todos/abc", "/api/todos/-1"} {
		code, body = s.do(http.MethodGet, bad, access, nil)
		if code != http.StatusNotFound || body["error"] != "Todo not found" {
			t.Fatalf("%s: %d %v", bad, code, body)
		}
	}
}

func TestTodosInvisibleAcrossUsers(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice@b.com")
	bob, _ := s.register("bob@b.com")
	path := fmt.Sprintf("/api/todos/%d", s.createTodo(alice, map[string]string{"title": "secret"}))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, body := s.do(method, path, bob, map[string]string{"title": "stolen"})
		if code != http.StatusNotFound || body["error"] != "Todo not found" {
			t.Fatalf("%s as other user: %d %v", method, code, body)
		}
	}
	code, body := s.do(http.MethodGet, "/api/todos", bob, nil)
	if code != http.StatusOK || len(body["todos"].([]interface{})) != 0 {
		t.Fatalf("bob's list: %d %v", code, body)
	}
}

func TestListCapsPerPage(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.register("a@b.com")
	for i := 0; i < 102; i++ {
		s.createTodo(access, map[string]string{"title": fmt.Sprintf("todo %d", i)})
	}
	code, body := s.do(http.MethodGet, "/api/todos?per_page=500", access, nil)
	if code != http.StatusOK {
		t.Fatalf("list: %d %v", code, body)
	}
	if n := len(body["todos"].([]interface{})); n != 100 {
		t.Fatalf("expected 100 items, got %d", n)
	}
	p := body["pagination"].(map[string]interface{})
	if p["per_page"] != float64(100) || p["total"] != float64(102) || p["pages"] != float64(2) || p["has_next"] != true {
		t.Fatalf("unexpected pagination %v", p)
	}

	code, body = s.do(http.MethodGet, "/api/todos?search=TODO%201&completed=false", access, nil)
	if code != http.StatusOK {
		t.Fatalf("search: %d %v", code, body)
	}
	// "todo 1", "todo 10".."todo 19", "todo 100", "todo 101"
	if total := body["pagination"].(map[string]interface{})["total"]; total != float64(13) {
		t.Fatalf("unexpected search total %v", total)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.register("a@b.com")

	code, body := s.do(http.MethodGet, "/api/todos/stats", access, nil)
	if code != http.StatusOK || body["stats"].(map[string]interface{})["completion_rate"] != float64(0) {
		t.Fatalf("empty stats: %d %v", code, body)
	}

	first := s.createTodo(access, map[string]string{"title": "a"})
	s.createTodo(access, map[string]string{"title": "b", "priority": "high"})
	s.createTodo(access, map[string]string{"title": "c", "priority": "low"})
	s.do(http.MethodPut, fmt.Sprintf("/api/todos/%d", first), access, map[string]bool{"completed": true})

	code, body = s.do(http.MethodGet, "/api/todos/stats", access, nil)
	stats := body["stats"].(map[string]interface{})
	if code != http.StatusOK || stats["total_todos"] != float64(3) || stats["completion_rate"] != 33.33 {
		t.Fatalf("stats: %d %v", code, body)
	}
	breakdown := stats["priority_breakdown"].(map[string]interface{})
	if breakdown["high"] != float64(1) || breakdown["low"] != float64(1) || breakdown["medium"] != float64(0) {
		t.Fatalf("unexpected breakdown %v", breakdown)
	}
}

func TestServiceEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(http.MethodGet, "/", "", nil)
	if code != http.StatusOK || body["message"] != "TODO App API" || body["version"] != "1.0.0" {
		t.Fatalf("index: %d %v", code, body)
	}
	code, body = s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || body["database"] != "healthy" || body["environment"] != "test" {
		t.Fatalf("health: %d %v", code, body)
	}
	code, _ = s.do(http.MethodGet, "/ready", "", nil)
	if code != http.StatusOK {
		t.Fatalf("ready: %d", code)
	}
	code, body = s.do(http.MethodGet, "/nope", "", nil)
	if code != http.StatusNotFound || body["error"] != "Endpoint not found" {
		t.Fatalf("unknown route: %d %v", code, body)
	}
	code, body = s.do(http.MethodPatch, "/api/auth/login", "", nil)
	if code != http.StatusMethodNotAllowed || body["error"] != "Method not allowed" {
		t.Fatalf("wrong method: %d %v", code, body)
	}
}

func TestCORSAndRequestID(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost) {
		t.Fatalf("unexpected allow methods %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get("X-Request-ID"))
	}
}
