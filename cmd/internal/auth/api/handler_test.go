package authapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tasker/cmd/identity"
	"tasker/cmd/internal/auth/gate"
	"tasker/cmd/internal/auth/session"
	"tasker/cmd/internal/httpx"
	"tasker/cmd/security/password"
)

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fields  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

type testServer struct {
	srv     *httptest.Server
	records *session.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.AccessSecret = strings.Repeat("a", 32)
	cfg.RefreshSecret = strings.Repeat("r", 32)

	records := session.NewMemoryStore()
	iss, err := session.NewIssuer(cfg, records)
	require.NoError(t, err)

	pwCfg := password.DefaultConfig()
	pwCfg.Cost = bcrypt.MinCost

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := session.NewService(identity.NewMemoryStore(), password.NewHasher(pwCfg, nil), iss, session.WithLogger(log))

	mux := http.NewServeMux()
	NewHandler(svc, gate.New(iss), httpx.NewErrors(log, false)).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, records: records}
}

func (s *testServer) do(t *testing.T, method, path, body, bearer string) (int, []byte) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, raw
}

func (s *testServer) register(t *testing.T, email, pw string) authResponse {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/auth/register", `{"email":"`+email+`","password":"`+pw+`","name":"Ada"}`, "")
	require.Equal(t, http.StatusCreated, status, string(raw))

	var out authResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func decodeError(t *testing.T, raw []byte) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e
}

func TestRegister_ReturnsPairAndPublicUser(t *testing.T) {
	s := newTestServer(t)

	out := s.register(t, "ada@example.com", "secret1")
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)
	require.Equal(t, "ada@example.com", out.User.Email)
	require.NotNil(t, out.User.Name)
	require.Equal(t, "Ada", *out.User.Name)
	require.Equal(t, 1, s.records.Len())

	_, raw := s.do(t, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"secret1"}`, "")
	require.NotContains(t, string(raw), "password")
}

func TestLogin_IgnoresExtraKeys(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "extra@example.com", "secret1")

	status, raw := s.do(t, http.MethodPost, "/auth/login", `{"email":"extra@example.com","password":"secret1","remember":true}`, "")
	require.Equal(t, http.StatusOK, status, string(raw))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "dup@example.com", "secret1")

	status, raw := s.do(t, http.MethodPost, "/auth/register", `{"email":"DUP@example.com","password":"secret2"}`, "")
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, httpx.CodeConflict, decodeError(t, raw).Error.Code)
}

func TestRegister_ValidationEnumeratesFields(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodPost, "/auth/register", `{"email":"nope","password":"123","name":"A"}`, "")
	require.Equal(t, http.StatusBadRequest, status)

	e := decodeError(t, raw)
	require.Equal(t, httpx.CodeValidationFailed, e.Error.Code)
	require.Len(t, e.Error.Fields, 3)
	require.Contains(t, e.Error.Message, "email: must be a valid email")
	require.Contains(t, e.Error.Message, "password: must be at least 6 characters")
	require.Contains(t, e.Error.Message, "name: must be at least 2 characters")
}

func TestRegister_RejectsMalformedBodies(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{`, `{"email":"a@b.co","password":"secret1","role":"admin"}`, `{"email":"a@b.co","password":"secret1"} []`} {
		status, raw := s.do(t, http.MethodPost, "/auth/register", body, "")
		require.Equal(t, http.StatusBadRequest, status, body)
		require.Equal(t, httpx.CodeInvalidJSON, decodeError(t, raw).Error.Code, body)
	}
}

func TestLogin_NoEnumeration(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "known@example.com", "secret1")

	statusA, rawA := s.do(t, http.MethodPost, "/auth/login", `{"email":"unknown@example.com","password":"secret1"}`, "")
	statusB, rawB := s.do(t, http.MethodPost, "/auth/login", `{"email":"known@example.com","password":"wrong-one"}`, "")

	require.Equal(t, http.StatusUnauthorized, statusA)
	require.Equal(t, http.StatusUnauthorized, statusB)
	require.Equal(t, decodeError(t, rawA), decodeError(t, rawB))

	status, raw := s.do(t, http.MethodPost, "/auth/login", `{"email":"Known@Example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, status, string(raw))
}

func TestRefresh_OneTimeUse(t *testing.T) {
	s := newTestServer(t)
	first := s.register(t, "rot@example.com", "secret1")
	body := `{"refreshToken":"` + first.RefreshToken + `"}`

	status, raw := s.do(t, http.MethodPost, "/auth/refresh", body, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var next authResponse
	require.NoError(t, json.Unmarshal(raw, &next))
	require.NotEqual(t, first.RefreshToken, next.RefreshToken)

	status, raw = s.do(t, http.MethodPost, "/auth/refresh", body, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, httpx.CodeInvalidRefreshToken, decodeError(t, raw).Error.Code)

	status, _ = s.do(t, http.MethodPost, "/auth/refresh", `{"refreshToken":"garbage"}`, "")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestLogout_AlwaysOK(t *testing.T) {
	s := newTestServer(t)
	out := s.register(t, "bye@example.com", "secret1")

	status, _ := s.do(t, http.MethodPost, "/auth/logout", `{"refreshToken":"garbage"}`, "")
	require.Equal(t, http.StatusOK, status)

	body := `{"refreshToken":"` + out.RefreshToken + `"}`
	status, raw := s.do(t, http.MethodPost, "/auth/logout", body, "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"message":"logged out"}`, string(raw))

	status, _ = s.do(t, http.MethodPost, "/auth/logout", body, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/auth/refresh", body, "")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	out := s.register(t, "me@example.com", "secret1")

	status, raw := s.do(t, http.MethodGet, "/auth/me", "", out.AccessToken)
	require.Equal(t, http.StatusOK, status, string(raw))
	var me userResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	require.Equal(t, out.User, me)

	status, raw = s.do(t, http.MethodGet, "/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, httpx.CodeMissingToken, decodeError(t, raw).Error.Code)

	status, raw = s.do(t, http.MethodGet, "/auth/me", "", out.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, httpx.CodeInvalidToken, decodeError(t, raw).Error.Code)
}

func TestRoutes_MethodMismatch(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/auth/login", bytes.NewReader(nil))
	require.NoError(t, err)
	res, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
