package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/webclinic017/sagetrader-api/internal/assets"
	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/config"
	"github.com/webclinic017/sagetrader-api/internal/db"
	"github.com/webclinic017/sagetrader-api/internal/events"
	gormrepository "github.com/webclinic017/sagetrader-api/internal/repository/gorm"
	"github.com/webclinic017/sagetrader-api/internal/service"
)

type testServer struct {
	engine   *gin.Engine
	accounts *service.AccountService
	hub      *events.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := db.OpenSQLite(name)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(d) })
	if err := db.AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := gormrepository.New(d.Gorm)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	log := zap.NewNop()
	hub := events.NewHub(log)
	revoker := auth.NewMemoryRevoker()
	accounts := &service.AccountService{
		Users:   store.Users,
		JWT:     auth.JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour},
		Revoker: revoker,
		Logger:  log,
	}
	cfg := config.Config{
		Server:     config.ServerConfig{APIPrefix: "/api/v1", CORSOrigins: []string{"*"}},
		Auth:       config.AuthConfig{OpenRegistration: true},
		Pagination: config.PaginationConfig{DefaultSize: 20, MaxSize: 100},
	}
	engine := NewRouter(Deps{
		Config:   cfg,
		DB:       d.Gorm,
		Store:    store,
		Accounts: accounts,
		Auth:     &auth.Authenticator{JWT: accounts.JWT, Revoker: revoker, Users: store.Users, Logger: log},
		Images: &service.ImageService{
			Images:     store.Images,
			Strategies: store.Strategies,
			Trades:     store.Trades,
			StudyItems: store.StudyItems,
			Studies:    store.Studies,
			Assets:     assets.Unconfigured{},
			Stager:     assets.Stager{Dir: t.TempDir()},
			FolderRoot: "mspt",
			MaxBytes:   1 << 20,
			Logger:     log,
		},
		Events:  hub,
		Logger:  log,
		Version: "test",
	})
	return &testServer{engine: engine, accounts: accounts, hub: hub}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

// login registers an account and returns a bearer token for it.
func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	if _, err := s.accounts.Register(context.Background(), service.NewUser{Email: email, Password: "pw-" + email}, false); err != nil {
		t.Fatalf("register: %v", err)
	}
	form := url.Values{"username": {email}, "password": {"pw-" + email}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	code, env := s.serve(t, req)
	if code != http.StatusOK {
		t.Fatalf("login status=%d body=%+v", code, env)
	}
	tok := decodeData[auth.AccessToken](t, env)
	if tok.Token == "" || tok.TokenType != "bearer" {
		t.Fatalf("token=%+v", tok)
	}
	return tok.Token
}

type uidOnly struct {
	UID uint64 `json:"uid"`
}

func (s *testServer) mustCreate(t *testing.T, token, path string, body any) uint64 {
	t.Helper()
	code, env := s.do(t, http.MethodPost, path, token, body)
	if code != http.StatusCreated {
		t.Fatalf("POST %s status=%d msg=%s", path, code, env.Message)
	}
	return decodeData[uidOnly](t, env).UID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	(&HealthHandler{Checks: map[string]ReadyCheck{
		"db":      func(context.Context) error { return nil },
		"revoker": func(context.Context) error { return fmt.Errorf("connection refused") },
	}}).Register(engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "degraded" || body.Checks["db"] != "ok" || body.Checks["revoker"] != "connection refused" {
		t.Fatalf("body=%+v", body)
	}
}

func TestLoginMeLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")

	code, env := s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me status=%d", code)
	}
	me := decodeData[struct {
		Email string `json:"email"`
	}](t, env)
	if me.Email != "alice@example.com" {
		t.Fatalf("email=%s", me.Email)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/v1/users/me", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d want 401", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/users", token, nil); code != http.StatusForbidden {
		t.Fatalf("non-superuser list status=%d want 403", code)
	}

	form := url.Values{"username": {"alice@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if code, _ := s.serve(t, req); code != http.StatusBadRequest {
		t.Fatalf("bad password status=%d want 400", code)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout status=%d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/users/me", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("revoked token status=%d want 401", code)
	}
}

type tradeRefs struct {
	instrument, strategy, style uint64
}

func (s *testServer) mustRefs(t *testing.T, token string) tradeRefs {
	t.Helper()
	return tradeRefs{
		instrument: s.mustCreate(t, token, "/api/v1/mspt/instrument", gin.H{"name": "eurusd"}),
		strategy:   s.mustCreate(t, token, "/api/v1/mspt/strategy", gin.H{"name": "breakout"}),
		style:      s.mustCreate(t, token, "/api/v1/mspt/style", gin.H{"name": "Scalping"}),
	}
}

func (s *testServer) mustTrade(t *testing.T, token string, refs tradeRefs, won bool) uint64 {
	t.Helper()
	return s.mustCreate(t, token, "/api/v1/mspt/trade", gin.H{
		"instrument_uid": refs.instrument,
		"strategy_uid":   fmt.Sprint(refs.strategy),
		"style_uid":      refs.style,
		"outcome":        won,
		"rr":             "2.5",
	})
}

func TestInstrumentConflicts(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")
	refs := s.mustRefs(t, token)

	code, _ := s.do(t, http.MethodPost, "/api/v1/mspt/instrument", token, gin.H{"name": "EURUSD"})
	if code != http.StatusConflict {
		t.Fatalf("duplicate status=%d want 409", code)
	}

	s.mustTrade(t, token, refs, true)
	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/mspt/instrument/%d", refs.instrument), token, nil)
	if code != http.StatusConflict {
		t.Fatalf("referenced delete status=%d want 409", code)
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/mspt/instrument", token, gin.H{"description": "no name"})
	if code != http.StatusBadRequest {
		t.Fatalf("missing name status=%d want 400", code)
	}
}

func TestTradeListing(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")
	refs := s.mustRefs(t, token)
	for i := 0; i < 5; i++ {
		s.mustTrade(t, token, refs, i%2 == 0)
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/mspt/trade?page=1&size=2", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list status=%d msg=%s", code, env.Message)
	}
	page := decodeData[struct {
		Count   int64     `json:"count"`
		Page    int       `json:"page"`
		Pages   int       `json:"pages"`
		Size    int       `json:"size"`
		Items   []uidOnly `json:"items"`
		NextURL *string   `json:"next_url"`
		PrevURL *string   `json:"prev_url"`
	}](t, env)
	if page.Count != 5 || page.Pages != 3 || page.Size != 2 || len(page.Items) != 2 {
		t.Fatalf("page=%+v", page)
	}
	if page.NextURL == nil || !strings.Contains(*page.NextURL, "page=2") || page.PrevURL != nil {
		t.Fatalf("links next=%v prev=%v", page.NextURL, page.PrevURL)
	}
	if page.Items[0].UID < page.Items[1].UID {
		t.Fatalf("default order should be newest first: %+v", page.Items)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/mspt/trade?filter=outcome:==:true", token, nil)
	if code != http.StatusOK {
		t.Fatalf("filtered status=%d msg=%s", code, env.Message)
	}
	if got := decodeData[struct {
		Count int64 `json:"count"`
	}](t, env).Count; got != 3 {
		t.Fatalf("won trades=%d want 3", got)
	}

	bad := []string{
		"/api/v1/mspt/trade?size=0",
		"/api/v1/mspt/trade?size=abc",
		"/api/v1/mspt/trade?filter=bogus:==:x",
		"/api/v1/mspt/trade?filter=outcome:around:x",
		"/api/v1/mspt/trade?sort_on=hashed_password",
	}
	for _, path := range bad {
		if code, env := s.do(t, http.MethodGet, path, token, nil); code != http.StatusBadRequest {
			t.Fatalf("%s status=%d msg=%s want 400", path, code, env.Message)
		}
	}
}

func TestStrategyStats(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")
	refs := s.mustRefs(t, token)
	for _, won := range []bool{true, true, false, true} {
		s.mustTrade(t, token, refs, won)
	}

	code, env := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/mspt/strategy/%d", refs.strategy), token, nil)
	if code != http.StatusOK {
		t.Fatalf("get status=%d msg=%s", code, env.Message)
	}
	stats := decodeData[struct {
		TotalTrades int64   `json:"total_trades"`
		WonTrades   int64   `json:"won_trades"`
		LostTrades  int64   `json:"lost_trades"`
		WinRate     float64 `json:"win_rate"`
	}](t, env)
	if stats.TotalTrades != 4 || stats.WonTrades != 3 || stats.LostTrades != 1 || stats.WinRate != 75 {
		t.Fatalf("stats=%+v", stats)
	}
}

func TestOwnershipHidesPrivateRows(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice@example.com")
	bob := s.login(t, "bob@example.com")
	refs := s.mustRefs(t, alice)
	trade := s.mustTrade(t, alice, refs, true)

	path := fmt.Sprintf("/api/v1/mspt/trade/%d", trade)
	if code, _ := s.do(t, http.MethodGet, path, bob, nil); code != http.StatusNotFound {
		t.Fatalf("stranger get status=%d want 404", code)
	}
	if code, _ := s.do(t, http.MethodPut, path, alice, gin.H{"public": true}); code != http.StatusOK {
		t.Fatalf("owner update status=%d", code)
	}
	if code, _ := s.do(t, http.MethodGet, path, bob, nil); code != http.StatusOK {
		t.Fatalf("public get status=%d want 200", code)
	}
	if code, _ := s.do(t, http.MethodDelete, path, bob, nil); code != http.StatusNotFound {
		t.Fatalf("stranger delete status=%d want 404", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/mspt/trade/abc", alice, nil); code != http.StatusBadRequest {
		t.Fatalf("bad uid status=%d want 400", code)
	}
}

func TestStudyItemAttributes(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")
	refs := s.mustRefs(t, token)

	study := s.mustCreate(t, token, "/api/v1/mspt/study", gin.H{"name": "london open"})
	a := s.mustCreate(t, token, "/api/v1/mspt/attribute", gin.H{"name": "A", "study_uid": study})
	b := s.mustCreate(t, token, "/api/v1/mspt/attribute", gin.H{"name": "B", "study_uid": study})
	c := s.mustCreate(t, token, "/api/v1/mspt/attribute", gin.H{"name": "C", "study_uid": study})

	item := s.mustCreate(t, token, "/api/v1/mspt/studyitems", gin.H{
		"name":           "first",
		"study_uid":      study,
		"instrument_uid": refs.instrument,
		"style_uid":      refs.style,
		"attributes":     []gin.H{{"uid": a}, {"uid": b}},
	})

	type itemView struct {
		Attributes []struct {
			Name string `json:"name"`
		} `json:"attributes"`
	}
	names := func(v itemView) string {
		out := make([]string, 0, len(v.Attributes))
		for _, attr := range v.Attributes {
			out = append(out, attr.Name)
		}
		sort.Strings(out)
		return strings.Join(out, ",")
	}

	path := fmt.Sprintf("/api/v1/mspt/studyitems/%d", item)
	code, env := s.do(t, http.MethodPut, path, token, gin.H{"attributes": []gin.H{{"uid": b}, {"uid": c}}})
	if code != http.StatusOK {
		t.Fatalf("replace status=%d msg=%s", code, env.Message)
	}
	if got := names(decodeData[itemView](t, env)); got != "B,C" {
		t.Fatalf("attributes=%s want B,C", got)
	}

	code, env = s.do(t, http.MethodGet, path, token, nil)
	if code != http.StatusOK || names(decodeData[itemView](t, env)) != "B,C" {
		t.Fatalf("get status=%d body=%s", code, env.Data)
	}

	code, _ = s.do(t, http.MethodGet, "/api/v1/mspt/studyitems", token, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("list without study_uid status=%d want 400", code)
	}

	bob := s.login(t, "bob@example.com")
	code, _ = s.do(t, http.MethodPost, "/api/v1/mspt/attribute", bob, gin.H{"name": "X", "study_uid": study})
	if code != http.StatusNotFound {
		t.Fatalf("foreign study attribute status=%d want 404", code)
	}
}

func TestFileUploadWithoutAssetService(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")
	refs := s.mustRefs(t, token)

	upload := func(path string) int {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "chart.png")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte("png-bytes"))
		_ = mw.WriteField("alt", "entry")
		_ = mw.WriteField("tags", "london, breakout")
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		code, _ := s.serve(t, req)
		return code
	}

	if code := upload(fmt.Sprintf("/api/v1/mspt/files/strategy/%d", refs.strategy)); code != http.StatusFailedDependency {
		t.Fatalf("unconfigured upload status=%d want 424", code)
	}
	if code := upload(fmt.Sprintf("/api/v1/mspt/files/portfolio/%d", refs.strategy)); code != http.StatusNotFound {
		t.Fatalf("unknown parent status=%d want 404", code)
	}
	if code := upload("/api/v1/mspt/files/strategy/9999"); code != http.StatusNotFound {
		t.Fatalf("missing parent status=%d want 404", code)
	}

	code, env := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/mspt/files/strategy/%d", refs.strategy), token, nil)
	if code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("list status=%d data=%s", code, env.Data)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidCredentials, http.StatusBadRequest},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{&assets.ExternalServiceError{Op: "upload"}, http.StatusFailedDependency},
		{fmt.Errorf("wrapped: %w", service.ErrInactiveUser), http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Fatalf("statusOf(%v)=%d want=%d", tc.err, got, tc.want)
		}
	}
}

func TestTradingPlanNameUniquePerOwner(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice@example.com")
	bob := s.login(t, "bob@example.com")

	s.mustCreate(t, alice, "/api/v1/mspt/trading-plan", gin.H{"name": "Plan A"})
	code, env := s.do(t, http.MethodPost, "/api/v1/mspt/trading-plan", alice, gin.H{"name": "Plan A"})
	if code != http.StatusConflict {
		t.Fatalf("duplicate status=%d want=%d msg=%s", code, http.StatusConflict, env.Message)
	}
	s.mustCreate(t, bob, "/api/v1/mspt/trading-plan", gin.H{"name": "Plan A"})
}

func TestErrorCarriesRequestID(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mspt/instrument/999999", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-404")
	code, env := s.serve(t, req)
	if code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", code, http.StatusNotFound)
	}
	if got := env.Meta["request_id"]; got != "req-404" {
		t.Fatalf("meta.request_id=%v want=%v", got, "req-404")
	}
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")

	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/mspt/events", &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + token}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for s.hub.Subscribers() == 0 {
		if ctx.Err() != nil {
			t.Fatalf("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	uid := s.mustCreate(t, token, "/api/v1/mspt/instrument", gin.H{"name": "audjpy"})

	_, frame, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev events.Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		t.Fatalf("decode %q: %v", frame, err)
	}
	if ev.Kind != "instrument" || ev.Action != events.ActionCreated || ev.UID != uid {
		t.Fatalf("event=%+v want instrument created uid=%d", ev, uid)
	}
}

func TestEventsStreamRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/mspt/events", nil)
	if err == nil {
		t.Fatalf("dial without token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp=%v want=%d", resp, http.StatusUnauthorized)
	}
}
