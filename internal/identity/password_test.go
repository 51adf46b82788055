package identity

import "testing"

func TestPasswordHashAndVerify(t *testing.T) {
	salt, err := GenerateSaltHex()
	if err != nil {
		t.Fatalf("GenerateSaltHex: %v", err)
	}
	hash, err := HashPassword("p@ssw0rd", salt)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if !VerifyPassword("p@ssw0rd", salt, hash) {
		t.Fatalf("expected verify ok")
	}
	if VerifyPassword("wrong", salt, hash) {
		t.Fatalf("expected verify fail")
	}
}

func TestHashPasswordRejectsBadInput(t *testing.T) {
	if _, err := HashPassword("", "abcd"); err == nil {
		t.Fatalf("empty password should fail")
	}
	if _, err := HashPassword("pw", "not-hex!"); err == nil {
		t.Fatalf("invalid salt should fail")
	}
}

func TestRolesRoundTrip(t *testing.T) {
	a := Account{Roles: " system , engineer ,"}
	roles := a.RolesSlice()
	if len(roles) != 2 || roles[0] != "system" || roles[1] != "engineer" {
		t.Fatalf("RolesSlice = %v", roles)
	}
	if !a.HasRole(RoleSystem) || a.HasRole("auditor") {
		t.Fatalf("HasRole mismatch")
	}
	if got := RolesJoin([]string{" engineer ", "", "system"}); got != "engineer,system" {
		t.Fatalf("RolesJoin = %q", got)
	}
}
