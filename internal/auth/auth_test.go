package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webclinic017/sagetrader-api/internal/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("hash stored plaintext")
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("check=false want=true")
	}
	if CheckPassword("other", hash) {
		t.Fatalf("check=true want=false for wrong password")
	}
}

func TestJWTIssueVerify(t *testing.T) {
	j := JWT{Secret: []byte("k"), TokenTTL: time.Hour}
	tok, err := j.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.TokenType != "bearer" {
		t.Fatalf("token_type=%q want=bearer", tok.TokenType)
	}
	claims, err := j.Verify(tok.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	uid, err := claims.UserUID()
	if err != nil || uid != 42 {
		t.Fatalf("uid=%d err=%v want=42", uid, err)
	}
	if claims.ID == "" {
		t.Fatalf("missing jti")
	}
	if r := claims.Remaining(time.Now()); r <= 0 || r > time.Hour {
		t.Fatalf("remaining=%v", r)
	}

	other := JWT{Secret: []byte("different"), TokenTTL: time.Hour}
	if _, err := other.Verify(tok.Token); err == nil {
		t.Fatalf("expected verification failure with another secret")
	}

	expired := JWT{Secret: []byte("k"), TokenTTL: -time.Minute}
	old, err := expired.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := j.Verify(old.Token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	if ok, _ := r.Revoked(ctx, "a"); ok {
		t.Fatalf("fresh jti reported revoked")
	}
	if err := r.Revoke(ctx, "a", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := r.Revoked(ctx, "a"); !ok {
		t.Fatalf("revoked=false want=true")
	}
	// Already-expired tokens need no entry.
	_ = r.Revoke(ctx, "b", 0)
	if ok, _ := r.Revoked(ctx, "b"); ok {
		t.Fatalf("zero ttl should not revoke")
	}
}

type fakeUsers map[uint64]*models.User

func (f fakeUsers) Get(_ context.Context, uid uint64) (*models.User, error) {
	return f[uid], nil
}

func TestRequireMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := JWT{Secret: []byte("k"), TokenTTL: time.Hour}
	users := fakeUsers{
		1: {Base: models.Base{UID: 1}, Email: "a@b.c", IsActive: true},
		2: {Base: models.Base{UID: 2}, Email: "off@b.c", IsActive: false},
		3: {Base: models.Base{UID: 3}, Email: "root@b.c", IsActive: true, IsSuperuser: true},
	}
	revoker := NewMemoryRevoker()
	a := &Authenticator{JWT: j, Revoker: revoker, Users: users}

	r := gin.New()
	r.GET("/me", a.Require(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": CurrentUser(c).UID})
	})
	r.GET("/admin", a.Require(), RequireSuperuser(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token := func(uid uint64) string {
		tok, err := j.Issue(uid)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return tok.Token
	}
	do := func(path, tok string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	revokedTok := token(1)
	claims, _ := j.Verify(revokedTok)
	_ = revoker.Revoke(context.Background(), claims.ID, time.Hour)

	cases := []struct {
		name string
		path string
		tok  string
		want int
	}{
		{"missing", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "abc", http.StatusUnauthorized},
		{"active", "/me", token(1), http.StatusOK},
		{"inactive", "/me", token(2), http.StatusBadRequest},
		{"unknown user", "/me", token(99), http.StatusNotFound},
		{"revoked", "/me", revokedTok, http.StatusUnauthorized},
		{"not superuser", "/admin", token(1), http.StatusForbidden},
		{"superuser", "/admin", token(3), http.StatusNoContent},
	}
	for _, tc := range cases {
		if got := do(tc.path, tc.tok); got != tc.want {
			t.Fatalf("%s: status=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func TestQueryTokenOnlyForWebsocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := JWT{Secret: []byte("k"), TokenTTL: time.Hour}
	a := &Authenticator{JWT: j, Users: fakeUsers{1: {Base: models.Base{UID: 1}, IsActive: true}}}
	r := gin.New()
	r.GET("/events", a.Require(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tok, _ := j.Issue(1)
	req := httptest.NewRequest(http.MethodGet, "/events?token="+tok.Token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("plain request status=%d want=401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/events?token="+tok.Token, nil)
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upgrade request status=%d want=200", w.Code)
	}
}
