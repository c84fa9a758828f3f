package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/config"
	"github.com/mynurseshift/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "correct-horse"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.MailMessage
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.MailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) messages() []domain.MailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]domain.MailMessage(nil), n.sent...)
}

type memoryResets struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *memoryResets) Save(_ context.Context, email, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[email] = token
	return nil
}

func (m *memoryResets) Get(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[email]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (m *memoryResets) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, email)
	return nil
}

type fixture struct {
	handler  *Handler
	store    *memoryStore
	notifier *recordingNotifier
	resets   *memoryResets

	admin, manager, member, pending, outsider *domain.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{Environment: "test"}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 86400
	cfg.JWT.CookieName = "__test_token"
	cfg.Auth.BcryptCost = 4
	cfg.Reset.Expiration = 900
	cfg.Account.PhoneRegion = "FR"
	cfg.InitialAdmin.Email = "root@mynurseshift.test"

	f := &fixture{
		store:    newMemoryStore(),
		notifier: &recordingNotifier{},
		resets:   &memoryResets{tokens: map[string]string{}},
	}

	hash, err := auth.HashPassword(testPassword, cfg.Auth.BcryptCost)
	require.NoError(t, err)

	service1, service2 := int64(1), int64(2)
	f.store.poles[10] = &domain.Pole{ID: 10, Name: "Pôle Médecine", Code: "MED", Status: domain.UnitStatusActive}
	f.store.services[1] = &domain.Service{ID: 1, Name: "Cardiologie", PoleID: 10, Status: domain.UnitStatusActive}
	f.store.services[2] = &domain.Service{ID: 2, Name: "Pneumologie", PoleID: 10, Status: domain.UnitStatusActive}

	f.admin = f.store.addAccount(&domain.Account{
		Email: cfg.InitialAdmin.Email, PasswordHash: hash, FirstName: "Super", LastName: "Admin",
		Role: domain.RoleSuperAdministrator, Status: domain.StatusActive,
	})
	f.manager = f.store.addAccount(&domain.Account{
		Email: "alice@mynurseshift.test", PasswordHash: hash, FirstName: "Alice", LastName: "Durand",
		Role: domain.RoleManager, Status: domain.StatusActive, ServiceID: &service1,
	})
	f.member = f.store.addAccount(&domain.Account{
		Email: "dora@mynurseshift.test", PasswordHash: hash, FirstName: "Dora", LastName: "Petit",
		Role: domain.RoleMember, Status: domain.StatusActive, ServiceID: &service1,
	})
	f.pending = f.store.addAccount(&domain.Account{
		Email: "bob@mynurseshift.test", PasswordHash: hash, FirstName: "Bob", LastName: "Martin",
		Role: domain.RoleMember, Status: domain.StatusPending, ServiceID: &service1,
	})
	f.outsider = f.store.addAccount(&domain.Account{
		Email: "carl@mynurseshift.test", PasswordHash: hash, FirstName: "Carl", LastName: "Simon",
		Role: domain.RoleMember, Status: domain.StatusActive, ServiceID: &service2,
	})

	h, err := NewHandler(cfg, f.store, f.notifier, f.resets, zap.NewNop())
	require.NoError(t, err)
	h.RegisterRoutes()
	f.handler = h

	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.Mux.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()

	rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestLoginEndpoint(t *testing.T) {
	f := newFixture(t)

	t.Run("success sets the session cookie", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    f.member.Email,
			"password": testPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "OK", env.Code)

		var result struct {
			Token string `json:"token"`
			User  struct {
				Email        string `json:"email"`
				Role         string `json:"role"`
				PasswordHash string `json:"passwordHash"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, f.member.Email, result.User.Email)
		assert.Equal(t, "USER", result.User.Role)
		assert.Empty(t, result.User.PasswordHash)
		assert.NotContains(t, string(env.Data), "$2a$")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "__test_token", cookies[0].Name)
		assert.Equal(t, result.Token, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    f.member.Email,
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "nobody@mynurseshift.test",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})

	t.Run("pending account", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    f.pending.Email,
			"password": testPassword,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "ACCOUNT_NOT_ACTIVE", env.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "not-an-email",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
		assert.Contains(t, env.Message, "email")
	})

	t.Run("empty body", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/login", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
	})
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHENTICATED", env.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", env.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		token := f.login(t, f.member.Email)

		rec, env := f.do(t, http.MethodGet, "/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var me domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &me))
		assert.Equal(t, f.member.ID, me.ID)
	})

	t.Run("session cookie", func(t *testing.T) {
		token := f.login(t, f.member.Email)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "__test_token", Value: token})
		rec := httptest.NewRecorder()
		f.handler.Mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("deactivated after login", func(t *testing.T) {
		token := f.login(t, f.outsider.Email)
		_, err := f.store.UpdateAccountStatus(context.Background(), f.outsider.ID, domain.StatusInactive)
		require.NoError(t, err)

		rec, env := f.do(t, http.MethodGet, "/me", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "ACCOUNT_NOT_ACTIVE", env.Code)
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		f.handler.Mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	})
}

func TestUsersEndpoints(t *testing.T) {
	f := newFixture(t)

	memberToken := f.login(t, f.member.Email)
	managerToken := f.login(t, f.manager.Email)
	adminToken := f.login(t, f.admin.Email)

	t.Run("member cannot list users", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/users", memberToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", env.Code)
	})

	t.Run("manager sees only their service", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/users", managerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var accounts []domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &accounts))
		require.Len(t, accounts, 3)
		for _, a := range accounts {
			assert.True(t, a.InService(1), a.Email)
		}
	})

	t.Run("super administrator sees everyone", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var accounts []domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &accounts))
		assert.Len(t, accounts, 5)
	})

	t.Run("pending list", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/users/pending", managerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var accounts []domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &accounts))
		require.Len(t, accounts, 1)
		assert.Equal(t, f.pending.ID, accounts[0].ID)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/users?status=REJECTED", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
	})

	t.Run("manager cannot read another service", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/users/"+itoa(f.outsider.ID), managerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/users/9999", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", env.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/users/abc", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("initial administrator is protected", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPatch, "/users/"+itoa(f.admin.ID), adminToken, map[string]string{"firstName": "Changed"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", env.Code)

		rec, _ = f.do(t, http.MethodDelete, "/users/"+itoa(f.admin.ID), adminToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("manager rejects a pending account", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/users/"+itoa(f.pending.ID)+"/decision", managerToken, map[string]any{"approved": false})
		require.Equal(t, http.StatusOK, rec.Code, env.Message)

		var account domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &account))
		assert.Equal(t, domain.StatusInactive, account.Status)

		sent := f.notifier.messages()
		require.NotEmpty(t, sent)
		last := sent[len(sent)-1]
		assert.Equal(t, domain.MailAccountRejected, last.Type)
		assert.Equal(t, f.pending.Email, last.To)
		assert.Equal(t, "Alice Durand", last.Data.ApproverName)
	})

	t.Run("decision requires approved", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/users/"+itoa(f.pending.ID)+"/decision", managerToken, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
	})

	t.Run("manager creates a member in their service", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/users", managerToken, map[string]any{
			"email":     "eve@mynurseshift.test",
			"password":  "long-enough-password",
			"firstName": "Eve",
			"lastName":  "Moreau",
		})
		require.Equal(t, http.StatusCreated, rec.Code, env.Message)

		var account domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &account))
		assert.Equal(t, domain.RoleMember, account.Role)
		assert.True(t, account.InService(1))
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/users", adminToken, map[string]any{
			"email":     f.member.Email,
			"password":  "long-enough-password",
			"firstName": "Dora",
			"lastName":  "Petit",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", env.Code)
	})
}

func TestMeEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.member.Email)

	t.Run("update own profile", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPatch, "/me", token, map[string]string{"position": "Infirmier(e)"})
		require.Equal(t, http.StatusOK, rec.Code, env.Message)

		var account domain.Account
		require.NoError(t, json.Unmarshal(env.Data, &account))
		require.NotNil(t, account.Position)
		assert.Equal(t, "Infirmier(e)", *account.Position)
	})

	t.Run("role is an unknown field", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPatch, "/me", token, `{"role":"SUPERADMIN"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)

		stored, err := f.store.GetAccountByID(context.Background(), f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, stored.Role)
	})

	t.Run("change password", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPatch, "/me/password", token, map[string]string{
			"oldPassword": "wrong-password",
			"newPassword": "another-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":     "frank@mynurseshift.test",
		"password":  "long-enough-password",
		"firstName": "Frank",
		"lastName":  "Leroy",
		"role":      "SUPERADMIN",
		"status":    "ACTIVE",
		"serviceId": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)

	var account domain.Account
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.Equal(t, domain.RoleMember, account.Role)
	assert.Equal(t, domain.StatusPending, account.Status)

	rec, env = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "frank@mynurseshift.test",
		"password": "long-enough-password",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_NOT_ACTIVE", env.Code)

	t.Run("short password", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/auth/register", "", map[string]any{
			"email":     "gina@mynurseshift.test",
			"password":  "short",
			"firstName": "Gina",
			"lastName":  "Roux",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Message, "password")
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/auth/reset-password/require", "", map[string]string{"email": f.member.Email})
	require.Equal(t, http.StatusOK, rec.Code)

	token, err := f.resets.Get(context.Background(), f.member.Email)
	require.NoError(t, err)

	rec, _ = f.do(t, http.MethodPost, "/auth/reset-password/require", "", map[string]string{"email": "nobody@mynurseshift.test"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/auth/reset-password/confirm", "", map[string]string{
		"email":    f.member.Email,
		"token":    token,
		"password": "brand-new-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, _ = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    f.member.Email,
		"password": "brand-new-password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrganizationEndpoints(t *testing.T) {
	f := newFixture(t)

	memberToken := f.login(t, f.member.Email)
	managerToken := f.login(t, f.manager.Email)
	adminToken := f.login(t, f.admin.Email)

	t.Run("member can read poles", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/poles", memberToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member cannot create a pole", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/poles", memberToken, map[string]string{"name": "Pôle Urgences", "code": "URG"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid pole code", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/poles", adminToken, map[string]string{"name": "Pôle Urgences", "code": "U"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
	})

	t.Run("create pole", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/poles", managerToken, map[string]string{"name": "Pôle Urgences", "code": "urg"})
		require.Equal(t, http.StatusCreated, rec.Code, env.Message)

		var pole domain.Pole
		require.NoError(t, json.Unmarshal(env.Data, &pole))
		assert.Equal(t, "URG", pole.Code)
	})

	t.Run("only a super administrator deletes poles", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodDelete, "/poles/10", managerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("pole with services cannot be deleted", func(t *testing.T) {
		rec, env := f.do(t, http.MethodDelete, "/poles/10", adminToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "pole still has services", env.Message)
	})

	t.Run("services of a pole", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/services?poleId=10", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var services []domain.Service
		require.NoError(t, json.Unmarshal(env.Data, &services))
		assert.Len(t, services, 2)
	})

	t.Run("manager dashboard is scoped", func(t *testing.T) {
		rec, env := f.do(t, http.MethodGet, "/dashboard/stats", managerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats domain.DashboardStats
		require.NoError(t, json.Unmarshal(env.Data, &stats))
		assert.Equal(t, int64(3), stats.TotalUsers)
		assert.Equal(t, int64(1), stats.PendingUsers)
		assert.Equal(t, int64(1), stats.TotalServices)
	})
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	f := newFixture(t)
	f.store.failPoles = errors.New("connection reset by peer")

	token := f.login(t, f.member.Email)

	rec, env := f.do(t, http.MethodGet, "/poles", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Equal(t, "internal server error", env.Message)
	assert.False(t, strings.Contains(rec.Body.String(), "connection reset"))
	assert.Equal(t, "null", string(env.Data))
}
