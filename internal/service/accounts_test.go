package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

func newAccounts(t *testing.T) *AccountService {
	store := newTestStore(t)
	return &AccountService{
		Users:   store.Users,
		JWT:     auth.JWT{Secret: []byte("test"), TokenTTL: time.Hour},
		Revoker: auth.NewMemoryRevoker(),
	}
}

func TestAccountRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)

	u, err := svc.Register(ctx, NewUser{Email: " Trader@Example.com ", Password: "pw", IsSuperuser: boolp(true)}, false)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "trader@example.com" || !u.IsActive || u.IsSuperuser {
		t.Fatalf("user=%+v", u)
	}

	_, err = svc.Register(ctx, NewUser{Email: "trader@example.com", Password: "pw"}, false)
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("err=%v want DuplicateError", err)
	}

	if _, err := svc.Login(ctx, "trader@example.com", "bad"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err=%v want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err=%v want ErrInvalidCredentials", err)
	}
	tok, err := svc.Login(ctx, "TRADER@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.JWT.Verify(tok.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid, _ := claims.UserUID(); uid != u.UID {
		t.Fatalf("sub=%d want=%d", uid, u.UID)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if revoked, _ := svc.Revoker.Revoked(ctx, claims.ID); !revoked {
		t.Fatalf("token not revoked after logout")
	}
}

func TestAccountInactiveUserCannotLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	if _, err := svc.Register(ctx, NewUser{Email: "off@example.com", Password: "pw", IsActive: boolp(false)}, true); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "off@example.com", "pw"); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("err=%v want ErrInactiveUser", err)
	}
}

func TestAccountUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	a, _ := svc.Register(ctx, NewUser{Email: "a@example.com", Password: "pw"}, false)
	if _, err := svc.Register(ctx, NewUser{Email: "b@example.com", Password: "pw"}, false); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.UpdateProfile(ctx, a, ProfileUpdate{Email: str("b@example.com")})
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("err=%v want DuplicateError", err)
	}

	got, err := svc.UpdateProfile(ctx, a, ProfileUpdate{FirstName: str("Ada"), Password: str("new")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FirstName != "Ada" {
		t.Fatalf("first_name=%q", got.FirstName)
	}
	if _, err := svc.Login(ctx, "a@example.com", "new"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestSeederIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seeder := &Seeder{
		Accounts: &AccountService{Users: store.Users},
		Styles:   store.Styles,
	}
	for i := 0; i < 2; i++ {
		if err := seeder.Run(ctx, "admin@admin.com", "admin"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	admin, err := store.Users.GetByEmail(ctx, "admin@admin.com")
	if err != nil || admin == nil || !admin.IsSuperuser || !admin.IsActive {
		t.Fatalf("admin=%+v err=%v", admin, err)
	}
	styles, err := store.Styles.List(ctx, 0, 100)
	if err != nil {
		t.Fatalf("list styles: %v", err)
	}
	if len(styles) != len(SystemStyles) {
		t.Fatalf("styles=%d want=%d", len(styles), len(SystemStyles))
	}
	for _, st := range styles {
		if st.OwnerUID != nil {
			t.Fatalf("system style %q has owner %d", st.Name, *st.OwnerUID)
		}
	}
}
