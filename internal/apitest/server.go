// Package apitest runs an in-process wallet API for tests. It implements the
// subset of the server's behaviour the client relies on: cookie sessions,
// anti-forgery tokens on mutating requests, TOTP second factor and paginated
// transactions.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pquerna/otp/totp"

	"github.com/fragmede/purse/internal/api"
)

const (
	// BasePath is where the API is mounted, matching the real server.
	BasePath   = "/api/v1"
	cookieName = "session_id"
)

// paths that accept mutating requests without an anti-forgery token.
var skipCSRF = map[string]bool{
	BasePath + "/login":                true,
	BasePath + "/signup":               true,
	BasePath + "/password-reset/send":  true,
	BasePath + "/password-reset/reset": true,
	BasePath + "/configure-mfa":        true,
	BasePath + "/verify-mfa":           true,
}

// User is an account known to the fake server.
type User struct {
	api.LoginResponse
	Password string
	// MFASecret is the enrolled TOTP secret. Empty means the server issues a
	// fresh secret at login.
	MFASecret string
	// SkipMFA lets the account log in with the password alone.
	SkipMFA bool

	Balances      []api.Balance
	History       map[int][]api.BalanceHistory
	Wallets       []api.Wallet
	Beneficiaries []api.Beneficiary
	Transactions  []api.Transaction
}

type session struct {
	email     string
	csrfToken string
	verified  bool
}

// Server is a fake wallet API backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]*User
	sessions map[string]*session
	pending  map[string]string // email -> issued, not yet enrolled secret
	hits     map[string]int
	lastCSRF map[string]string

	meStatus     int
	rotateTokens bool
}

// New starts a fake API and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    map[string]*User{},
		sessions: map[string]*session{},
		pending:  map[string]string{},
		hits:     map[string]int{},
		lastCSRF: map[string]string{},
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to give the client.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// AddUser registers an account.
func (s *Server) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.History == nil {
		u.History = map[int][]api.BalanceHistory{}
	}
	s.users[u.Email] = u
}

// Hits returns how many requests reached path (relative to BasePath).
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[BasePath+path]
}

// LastCSRF returns the X-CSRF-Token header of the last request to path.
func (s *Server) LastCSRF(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCSRF[BasePath+path]
}

// ExpireSessions drops every server-side session, as a server restart would.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	s.sessions = map[string]*session{}
	s.mu.Unlock()
}

// AddTransaction appends a transaction to the user's history.
func (s *Server) AddTransaction(email string, tx api.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Transactions = append([]api.Transaction{tx}, u.Transactions...)
	}
}

// SetRotateTokens makes every successful /users/me issue a new token.
func (s *Server) SetRotateTokens(on bool) {
	s.mu.Lock()
	s.rotateTokens = on
	s.mu.Unlock()
}

// EnrolledSecret returns the TOTP secret the account finished enrolling.
func (s *Server) EnrolledSecret(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.MFASecret
	}
	return ""
}

// PendingSecret returns the TOTP secret issued to email at login, if any.
func (s *Server) PendingSecret(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[email]
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	v1 := r.PathPrefix(BasePath).Subrouter()

	v1.HandleFunc("/login", s.login).Methods(http.MethodPost)
	v1.HandleFunc("/signup", s.signUp).Methods(http.MethodPost)
	v1.HandleFunc("/configure-mfa", s.configureMFA).Methods(http.MethodPost)
	v1.HandleFunc("/verify-mfa", s.verifyMFA).Methods(http.MethodPost)
	v1.HandleFunc("/password-reset/send", noContent).Methods(http.MethodPost)
	v1.HandleFunc("/password-reset/reset", noContent).Methods(http.MethodPatch)

	auth := v1.NewRoute().Subrouter()
	auth.Use(s.authenticate, s.csrf)
	auth.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	auth.HandleFunc("/users/me", s.me).Methods(http.MethodGet)
	auth.HandleFunc("/users/profile", s.updateProfile).Methods(http.MethodPut)
	auth.HandleFunc("/change-password", noContent).Methods(http.MethodPatch)
	auth.HandleFunc("/balances", s.balances).Methods(http.MethodGet)
	auth.HandleFunc("/balances/{id:[0-9]+}", s.balance).Methods(http.MethodGet)
	auth.HandleFunc("/balances/history/{id:[0-9]+}", s.balanceHistory).Methods(http.MethodGet)
	auth.HandleFunc("/balances/deposit", s.deposit).Methods(http.MethodPost)
	auth.HandleFunc("/wallet/all", s.wallets).Methods(http.MethodGet)
	auth.HandleFunc("/beneficiary", s.beneficiaries).Methods(http.MethodGet)
	auth.HandleFunc("/beneficiary", s.createBeneficiary).Methods(http.MethodPost)
	auth.HandleFunc("/transaction", s.createTransaction).Methods(http.MethodPost)
	auth.HandleFunc("/transaction/all", s.transactions).Methods(http.MethodGet)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.lastCSRF[r.URL.Path] = r.Header.Get(api.HeaderCSRFToken)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == BasePath+"/users/me" && s.meOverride() != 0 {
			writeError(w, s.meOverride(), "forced status")
			return
		}
		if s.current(r) == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || skipCSRF[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		sess := s.current(r)
		tok := r.Header.Get(api.HeaderCSRFToken)
		if tok == "" || sess == nil || tok != sess.csrfToken {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) meOverride() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meStatus
}

// SetMeStatus forces the status of GET /users/me. Zero restores normal
// behaviour.
func (s *Server) SetMeStatus(status int) {
	s.mu.Lock()
	s.meStatus = status
	s.mu.Unlock()
}

func (s *Server) current(r *http.Request) *session {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.Value]
	if !ok || !sess.verified {
		return nil
	}
	return sess
}

func (s *Server) user(r *http.Request) *User {
	sess := s.current(r)
	if sess == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[sess.email]
}

func (s *Server) startSession(w http.ResponseWriter, email string, verified bool) *session {
	sess := &session{email: email, csrfToken: uuid.NewString(), verified: verified}
	id := uuid.NewString()
	s.sessions[id] = sess
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: id, Path: "/", HttpOnly: true, MaxAge: 3600})
	return sess
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Email]
	if !ok || u.Password != req.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Incorrect username/password. Please try again.")
		return
	}
	resp := u.LoginResponse
	resp.IsMFAConfigured = u.MFASecret != ""
	resp.MFAConfig = api.MFAConfig{}
	if !u.SkipMFA && u.MFASecret == "" {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: "purse", AccountName: u.Email})
		if err != nil {
			s.mu.Unlock()
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		s.pending[u.Email] = key.Secret()
		resp.MFAConfig = api.MFAConfig{Secret: key.Secret(), URL: key.URL()}
	}
	sess := s.startSession(w, u.Email, u.SkipMFA)
	s.mu.Unlock()

	w.Header().Set(api.HeaderCSRFToken, sess.csrfToken)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pendingSession(r *http.Request, email string) *session {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	sess, ok := s.sessions[c.Value]
	if !ok || sess.email != email {
		return nil
	}
	return sess
}

func (s *Server) configureMFA(w http.ResponseWriter, r *http.Request) {
	var req api.ConfigureMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.pendingSession(r, req.Email)
	u := s.users[req.Email]
	if sess == nil || u == nil || s.pending[req.Email] != req.Secret || !totp.Validate(req.MFACode, req.Secret) {
		writeError(w, http.StatusUnauthorized, "Invalid MFA Code")
		return
	}
	u.MFASecret = req.Secret
	delete(s.pending, req.Email)
	sess.verified = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) verifyMFA(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.pendingSession(r, req.Email)
	u := s.users[req.Email]
	if sess == nil || u == nil || u.MFASecret == "" || !totp.Validate(req.MFACode, u.MFASecret) {
		writeError(w, http.StatusUnauthorized, "Invalid MFA Code")
		return
	}
	sess.verified = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeError(w, http.StatusBadRequest, "User already exists. Please try again.")
		return
	}
	u := &User{Password: req.Password, History: map[int][]api.BalanceHistory{}}
	u.Email = req.Email
	u.Username = req.Username
	u.MobileNumber = req.MobileNumber
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	s.users[req.Email] = u
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	sess := s.current(r)
	s.mu.Lock()
	if s.rotateTokens {
		sess.csrfToken = uuid.NewString()
	}
	tok := sess.csrfToken
	s.mu.Unlock()
	w.Header().Set(api.HeaderCSRFToken, tok)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Username = req.Username
	u.MobileNumber = req.MobileNumber
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) balances(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, u.Balances)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range u.Balances {
		if b.ID == id {
			writeJSON(w, http.StatusOK, b)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Balance not found.")
}

func (s *Server) balanceHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, u.History[id])
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req api.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range u.Balances {
		if b.Currency == req.Currency {
			u.Balances[i].Balance += req.Amount
			writeJSON(w, http.StatusOK, u.Balances[i])
			return
		}
	}
	b := api.Balance{ID: len(u.Balances) + 1, Balance: req.Amount, Currency: req.Currency}
	u.Balances = append(u.Balances, b)
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) wallets(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(u.Wallets) == 0 {
		writeError(w, http.StatusNotFound, "No wallets found.")
		return
	}
	writeJSON(w, http.StatusOK, u.Wallets)
}

func (s *Server) beneficiaries(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, u.Beneficiaries)
}

func (s *Server) createBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.MobileNumber == req.MobileNumber && other.MobileCountryCode == req.MobileCountryCode {
			u.Beneficiaries = append(u.Beneficiaries, api.Beneficiary{
				BeneficiaryID:     len(u.Beneficiaries) + 1,
				FirstName:         other.FirstName,
				LastName:          other.LastName,
				Email:             other.Email,
				Username:          other.Username,
				IsActive:          1,
				MobileCountryCode: other.MobileCountryCode,
				MobileNumber:      other.MobileNumber,
			})
			w.WriteHeader(http.StatusCreated)
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found.")
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceAmount <= 0 {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	u := s.user(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Transactions = append([]api.Transaction{{
		SenderUsername:          u.Username,
		SenderMobileNumber:      u.MobileNumber,
		BeneficiaryMobileNumber: req.BeneficiaryMobileNumber,
		SourceAmount:            req.SourceAmount,
		SourceCurrency:          req.SourceCurrency,
		DestinationAmount:       req.SourceAmount,
		DestinationCurrency:     req.SourceCurrency,
		SourceOfTransfer:        "wallet",
		Status:                  "COMPLETED",
	}}, u.Transactions...)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	u := s.user(r)
	s.mu.Lock()
	all := append([]api.Transaction(nil), u.Transactions...)
	s.mu.Unlock()

	if len(all) == 0 {
		writeError(w, http.StatusNotFound, "No transactions found.")
		return
	}
	totalPages := (len(all) + size - 1) / size
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	h := w.Header()
	h.Set(api.HeaderTotal, strconv.Itoa(len(all)))
	h.Set(api.HeaderTotalPages, strconv.Itoa(totalPages))
	h.Set(api.HeaderPage, strconv.Itoa(page))
	h.Set(api.HeaderPageSize, strconv.Itoa(size))
	h.Set(api.HeaderHasNextPage, strconv.FormatBool(page < totalPages))
	h.Set(api.HeaderHasPreviousPage, strconv.FormatBool(page > 1))
	writeJSON(w, http.StatusOK, all[start:end])
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"status": status, "message": msg})
}
