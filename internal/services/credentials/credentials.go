// Package credentials implements the OpenHome Credentials service: a
// per-process RSA keypair used to decrypt control-point-supplied
// passwords, a record per configured streaming service, and a login
// helper proxy that exchanges a plaintext user/password for a session
// token via an out-of-process plugin script.
package credentials

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/config"
	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/helper"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

var declaredOrder = []string{"Ids", "PublicKey", "SequenceNumber"}

// idList is the fixed, declared set of supported service ids, mirrored
// to a short internal name used as a persistence key prefix.
var idList = []string{"tidalhifi.com", "qobuz.com"}
var shortID = map[string]string{"tidalhifi.com": "tidal", "qobuz.com": "qobuz"}
var idString = "tidalhifi.com qobuz.com"

// HelperTimeout bounds one login-helper invocation.
const HelperTimeout = 15 * time.Second

// record is one service's stored credential state.
type record struct {
	user, password, encrypted string
	enabled                   bool
	token                     string
}

// LoginHelpers maps a service id to the shell command line of its
// login-helper plugin, started on demand (spec §4.12).
type LoginHelpers map[string]string

// Config carries the on-disk cache directory (keypair + optional
// screds file) and whether credentials persist to a file (mode 0600)
// or a SysV shared-memory segment, mirroring the original's
// `saveohcredentials` switch.
type Config struct {
	CacheDir       string
	SaveToFile     bool
	LoginHelpers   LoginHelpers
}

// Service is the OpenHome Credentials implementation.
type Service struct {
	*eventbase.Base
	cfg      Config
	notifier eventbase.Notifier

	mu      sync.Mutex
	privKey *rsa.PrivateKey
	pubPEM  string
	seq     int
	creds   map[string]*record
}

// New generates (or loads) the process keypair, restores any
// previously persisted credentials, and returns the service.
func New(serviceID string, notifier eventbase.Notifier, cfg Config) *Service {
	s := &Service{cfg: cfg, notifier: notifier, seq: 1, creds: map[string]*record{}}
	s.Base = eventbase.New(serviceID, "Credentials", declaredOrder, s.makeState)

	if err := s.loadOrCreateKey(); err != nil {
		log.Errorf("credentials: keypair init failed: %v", err)
	}
	s.tryLoad()
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]string{
		"Ids":            idString,
		"PublicKey":      s.pubPEM,
		"SequenceNumber": strconv.Itoa(s.seq),
	}
}

func (s *Service) keyfile() string { return filepath.Join(s.cfg.CacheDir, "credkey.pem") }

// loadOrCreateKey reads the PEM keyfile if present, else generates a
// fresh 4096-bit keypair and writes it mode 0600 (spec §4.12 /
// original's `openssl genrsa -out keyfile 4096`).
func (s *Service) loadOrCreateKey() error {
	if s.cfg.CacheDir != "" {
		if err := os.MkdirAll(s.cfg.CacheDir, 0700); err != nil {
			return fmt.Errorf("credentials: mkdir %s: %w", s.cfg.CacheDir, err)
		}
	}
	kf := s.keyfile()
	if kf != "" {
		if data, err := os.ReadFile(kf); err == nil {
			if key, perr := parsePrivateKeyPEM(data); perr == nil {
				s.mu.Lock()
				s.privKey = key
				s.pubPEM = publicKeyPEM(&key.PublicKey)
				s.mu.Unlock()
				return nil
			}
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return fmt.Errorf("credentials: genrsa: %w", err)
	}
	s.mu.Lock()
	s.privKey = key
	s.pubPEM = publicKeyPEM(&key.PublicKey)
	s.mu.Unlock()

	if kf != "" {
		block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
		if err := os.WriteFile(kf, pem.EncodeToMemory(block), 0600); err != nil {
			log.Errorf("credentials: could not persist keyfile %s: %v", kf, err)
		}
	}
	return nil
}

func parsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("credentials: no PEM block in keyfile")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// publicKeyPEM renders an RSAPublicKey PEM block, matching the
// original's `openssl rsa -RSAPublicKey_out` format (PKCS#1, not the
// SubjectPublicKeyInfo PKCS#8 wrapper some control points reject).
func publicKeyPEM(pub *rsa.PublicKey) string {
	block := &pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(pub)}
	return string(pem.EncodeToMemory(block))
}

// decrypt base64-decodes and RSA-OAEP(SHA1)-decrypts a control-point-
// supplied password, matching `openssl pkeyutl -pkeyopt
// rsa_padding_mode:oaep -decrypt`'s default hash.
func (s *Service) decrypt(b64 string) (string, error) {
	s.mu.Lock()
	key := s.privKey
	s.mu.Unlock()
	if key == nil {
		return "", fmt.Errorf("credentials: no private key")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("credentials: bad base64: %w", err)
	}
	plain, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, key, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("credentials: decrypt: %w", err)
	}
	return string(plain), nil
}

// Set implements Credentials.Set.
func (s *Service) Set(id, username, encryptedPassword string) bool {
	if _, ok := shortID[id]; !ok {
		return false
	}
	plain, err := s.decrypt(encryptedPassword)
	if err != nil {
		log.Errorf("credentials: Set(%s): %v", id, err)
		return false
	}
	s.mu.Lock()
	r, have := s.creds[id]
	if !have {
		r = &record{enabled: true}
		s.creds[id] = r
	}
	r.user = username
	r.password = plain
	r.encrypted = encryptedPassword
	r.enabled = true
	s.seq++
	s.mu.Unlock()
	s.save()
	s.publish()
	return true
}

// Clear implements Credentials.Clear.
func (s *Service) Clear(id string) bool {
	if _, ok := shortID[id]; !ok {
		return false
	}
	s.mu.Lock()
	delete(s.creds, id)
	s.seq++
	s.mu.Unlock()
	s.save()
	s.publish()
	return true
}

// SetEnabled implements Credentials.SetEnabled.
func (s *Service) SetEnabled(id string, enabled bool) bool {
	s.mu.Lock()
	r, ok := s.creds[id]
	if ok {
		r.enabled = enabled
		s.seq++
	}
	s.mu.Unlock()
	if ok {
		s.publish()
	}
	return ok
}

// publish pushes a SequenceNumber-bump event, if a notifier was given.
func (s *Service) publish() {
	if s.notifier != nil {
		s.OnEvent(s.notifier, &model.Status{})
	}
}

// Get implements Credentials.Get: username, encrypted password,
// enabled flag, and whether the id is known.
func (s *Service) Get(id string) (username, encryptedPassword string, enabled, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, have := s.creds[id]
	if !have {
		if _, known := shortID[id]; !known {
			return "", "", false, false
		}
		return "", "", false, true
	}
	return r.user, r.encrypted, r.enabled, true
}

// Login implements Credentials.Login: invokes the configured helper
// for id with the plaintext user/password and returns its token. An
// empty token is treated as bad credentials and clears them from
// memory and disk.
func (s *Service) Login(id string) (token string, ok bool) {
	s.mu.Lock()
	r, have := s.creds[id]
	cmdline := s.cfg.LoginHelpers[id]
	s.mu.Unlock()
	if !have {
		return "", false
	}
	if cmdline == "" {
		log.Errorf("credentials: no login helper configured for %s", id)
		return "", false
	}
	tok, err := helper.RunLoginHelper(cmdline, r.user, r.password, HelperTimeout)
	if err != nil {
		log.Errorf("credentials: login helper for %s failed: %v", id, err)
		tok = ""
	}
	s.mu.Lock()
	r.token = tok
	if tok == "" {
		r.user = ""
		r.password = ""
	}
	s.seq++
	s.mu.Unlock()
	s.publish()
	if tok == "" {
		s.save()
		return "", false
	}
	return tok, true
}

// ReLogin implements Credentials.ReLogin: logs out (clears the cached
// token) then logs back in, returning the new token.
func (s *Service) ReLogin(id, currentToken string) (newToken string, ok bool) {
	s.mu.Lock()
	if r, have := s.creds[id]; have {
		r.token = ""
	}
	s.mu.Unlock()
	return s.Login(id)
}

// GetIds implements Credentials.GetIds.
func (s *Service) GetIds() string { return idString }

// GetPublicKey implements Credentials.GetPublicKey.
func (s *Service) GetPublicKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pubPEM
}

// GetSequenceNumber implements Credentials.GetSequenceNumber.
func (s *Service) GetSequenceNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// save persists every known record, to either a cache-dir file (mode
// 0600) or a SysV shared-memory segment, per cfg.SaveToFile.
func (s *Service) save() {
	s.mu.Lock()
	lines := config.New(config.FlagNone)
	for id, r := range s.creds {
		sid := shortID[id]
		lines.Set(sid+"user", r.user, "")
		lines.Set(sid+"pass", r.password, "")
		lines.Set(sid+"epass", r.encrypted, "")
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	lines.Write(&buf)

	if s.cfg.SaveToFile {
		if s.cfg.CacheDir == "" {
			return
		}
		path := filepath.Join(s.cfg.CacheDir, "screds")
		if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
			log.Errorf("credentials: could not write %s: %v", path, err)
		}
		return
	}
	if err := writeShmSegment(buf.Bytes()); err != nil {
		log.Errorf("credentials: shared-memory save failed: %v", err)
	}
}

// tryLoad restores persisted records at startup (spec §4.12's
// "avoids having to enter the password on the CP if it was previously
// saved").
func (s *Service) tryLoad() {
	if !s.cfg.SaveToFile || s.cfg.CacheDir == "" {
		return
	}
	path := filepath.Join(s.cfg.CacheDir, "screds")
	if _, err := os.Stat(path); err != nil {
		return
	}
	store := config.Open(path, config.FlagReadOnly)
	if store == nil || !store.OK() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sid := range shortID {
		user, uok := store.Get(sid+"user", "")
		pass, pok := store.Get(sid+"pass", "")
		epass, eok := store.Get(sid+"epass", "")
		if uok && pok && eok {
			s.creds[id] = &record{user: user, password: pass, encrypted: epass, enabled: true}
		}
	}
}
