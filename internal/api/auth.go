package api

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ticketTTL bounds how long a WebSocket ticket stays redeemable.
	ticketTTL = 60 * time.Second

	// ticketBytes of randomness per ticket, hex-encoded on the wire.
	ticketBytes = 32

	// defaultTokenTTLMinutes applies when no token lifetime is configured.
	defaultTokenTTLMinutes = 15

	// Installer-default credentials for the single-household deployment.
	// Per-user accounts live in the companion app backend; the core API
	// authenticates the household, not individuals.
	defaultUsername = "admin"
	defaultPassword = "lumina"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleLogin authenticates the household and returns a JWT token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(defaultUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(defaultPassword)) == 1
	if !userOK || !passOK {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTLMinutes
	}

	claims := jwt.MapClaims{
		"sub": req.Username,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Duration(ttl) * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secCfg.JWT.Secret))
	if err != nil {
		writeInternalError(w, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60, // seconds
	})
}

// handleWSTicket issues a single-use WebSocket authentication ticket so the
// JWT never appears in a URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     s.tickets.issue(),
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// ticketStore tracks outstanding WebSocket tickets keyed by their opaque
// value. Each ticket is redeemable exactly once within ticketTTL.
type ticketStore struct {
	mu      sync.Mutex
	pending map[string]time.Time // ticket -> expiry
}

func newTicketStore() *ticketStore {
	return &ticketStore{pending: make(map[string]time.Time)}
}

// issue mints a fresh ticket and records its expiry.
func (t *ticketStore) issue() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	ticket := hex.EncodeToString(b)

	t.mu.Lock()
	t.pending[ticket] = time.Now().Add(ticketTTL)
	t.mu.Unlock()

	return ticket
}

// redeem consumes a ticket, reporting whether it existed and was still live.
func (t *ticketStore) redeem(ticket string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.pending[ticket]
	if !ok {
		return false
	}
	delete(t.pending, ticket)
	return time.Now().Before(expiry)
}

// sweep drops tickets that expired without being redeemed.
func (t *ticketStore) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for ticket, expiry := range t.pending {
		if now.After(expiry) {
			delete(t.pending, ticket)
		}
	}
}

// sweepLoop sweeps periodically until the context is cancelled.
func (t *ticketStore) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}
