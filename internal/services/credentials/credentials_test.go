package credentials

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"os"
	"testing"
)

type fakeNotifier struct{}

func (fakeNotifier) NotifyEvent(string, []string, []string) {}

// TestSetAndLogin covers spec.md §8 scenario F: Set decrypts an
// OAEP-encrypted password, stores the record, bumps the sequence
// number, and a subsequent Login invokes the configured helper.
func TestSetAndLogin(t *testing.T) {
	dir := t.TempDir()
	s := New("uuid:creds", fakeNotifier{}, Config{
		CacheDir:   dir,
		SaveToFile: true,
		LoginHelpers: LoginHelpers{
			"qobuz.com": "/bin/echo token-for",
		},
	})

	plain := "p"
	pub := &s.privKey.PublicKey
	cipher, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, []byte(plain), nil)
	if err != nil {
		t.Fatalf("EncryptOAEP: %v", err)
	}
	encB64 := base64.StdEncoding.EncodeToString(cipher)

	seqBefore := s.GetSequenceNumber()
	if !s.Set("qobuz.com", "u", encB64) {
		t.Fatalf("Set failed")
	}
	if s.GetSequenceNumber() <= seqBefore {
		t.Fatalf("expected sequence number to increase after Set")
	}

	user, _, enabled, ok := s.Get("qobuz.com")
	if !ok || user != "u" || !enabled {
		t.Fatalf("Get returned user=%q enabled=%v ok=%v", user, enabled, ok)
	}

	token, ok := s.Login("qobuz.com")
	if !ok || token == "" {
		t.Fatalf("Login failed: token=%q ok=%v", token, ok)
	}

	if _, err := os.Stat(dir + "/screds"); err != nil {
		t.Fatalf("expected screds file to be written: %v", err)
	}
}

// TestLoginEmptyTokenClearsCreds covers the "clear bad credentials"
// branch: a helper producing no output must clear the in-memory
// user/password.
func TestLoginEmptyTokenClearsCreds(t *testing.T) {
	dir := t.TempDir()
	s := New("uuid:creds", fakeNotifier{}, Config{
		CacheDir:   dir,
		SaveToFile: true,
		LoginHelpers: LoginHelpers{
			"tidalhifi.com": "/bin/true",
		},
	})
	s.mu.Lock()
	s.creds["tidalhifi.com"] = &record{user: "u", password: "p", enabled: true}
	s.mu.Unlock()

	token, ok := s.Login("tidalhifi.com")
	if ok || token != "" {
		t.Fatalf("expected login failure with empty helper output, got token=%q ok=%v", token, ok)
	}
	user, _, _, _ := s.Get("tidalhifi.com")
	if user != "" {
		t.Fatalf("expected user cleared after failed login, got %q", user)
	}
}
