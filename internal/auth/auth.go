// Package auth implements the authorization-code exchange against the
// broker. The dashboard redirects the user to the broker login page, gets
// back a short-lived auth code, and trades it here for the bearer token the
// feed subscription requires.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"aura-trader/internal/logger"
	"aura-trader/internal/store"
)

// Exchanger trades a broker auth code for an access token.
type Exchanger interface {
	LoginURL() string
	Exchange(ctx context.Context, authCode string) (string, error)
}

// kiteExchanger backs Exchanger with the Kite Connect session API.
type kiteExchanger struct {
	kc        *kiteconnect.Client
	apiSecret string
}

func NewKiteExchanger(apiKey, apiSecret string) Exchanger {
	return &kiteExchanger{kc: kiteconnect.New(apiKey), apiSecret: apiSecret}
}

func (e *kiteExchanger) LoginURL() string {
	return e.kc.GetLoginURL()
}

func (e *kiteExchanger) Exchange(ctx context.Context, authCode string) (string, error) {
	session, err := e.kc.GenerateSession(authCode, e.apiSecret)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// Service serves the two auth endpoints and caches the exchanged token.
type Service struct {
	exchanger Exchanger
	kv        *store.KVStore
}

func NewService(exchanger Exchanger, kv *store.KVStore) *Service {
	return &Service{exchanger: exchanger, kv: kv}
}

type loginURLRequest struct {
	RedirectURI string `json:"redirectUri"`
}

type loginURLResponse struct {
	LoginURL string `json:"loginUrl"`
}

type accessTokenRequest struct {
	AuthCode    string `json:"authCode"`
	RedirectURI string `json:"redirectUri"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// HandleLoginURL implements POST /get-login-url.
func (s *Service) HandleLoginURL(w http.ResponseWriter, r *http.Request) {
	var req loginURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, loginURLResponse{LoginURL: s.exchanger.LoginURL()})
}

// HandleAccessToken implements POST /get-access-token. On success the token
// is cached so a restarted server can resubscribe without a fresh login.
func (s *Service) HandleAccessToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req accessTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.AuthCode == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "authCode is required"})
		return
	}

	token, err := s.exchanger.Exchange(ctx, req.AuthCode)
	if err != nil {
		logger.ErrorWithErr(ctx, "Auth code exchange failed", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not exchange auth code for access token"})
		return
	}

	if err := s.kv.SaveAccessToken(token); err != nil {
		logger.ErrorWithErr(ctx, "Persisting access token failed", err)
	}
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: token})
}
