package auth

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/iurnickita/airbilling/internal/store"
	"github.com/iurnickita/airbilling/internal/token"
)

type Auth interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

const (
	HeaderUserCodeKey = "userCode"
	cookieUserToken   = "airbillingUserToken"
)

type auth struct {
	store store.Store
}

func NewAuth(store store.Store) Auth {
	return &auth{store: store}
}

type CredentialsJSONRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (a *auth) Register(w http.ResponseWriter, r *http.Request) {
	credentials, ok := readCredentials(w, r)
	if !ok {
		return
	}

	userCode, err := a.store.AuthRegister(r.Context(), credentials.Login, credentials.Password)
	if err != nil {
		switch err {
		case store.ErrAlreadyExists:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if !setTokenCookie(w, userCode) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *auth) Login(w http.ResponseWriter, r *http.Request) {
	credentials, ok := readCredentials(w, r)
	if !ok {
		return
	}

	userCode, err := a.store.AuthLogin(r.Context(), credentials.Login, credentials.Password)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			http.Error(w, err.Error(), http.StatusUnauthorized)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if !setTokenCookie(w, userCode) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// user id from the token cookie
		userCode, err := a.getUserCode(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		r.Header.Set(HeaderUserCodeKey, userCode)

		h.ServeHTTP(w, r)
	}
}

func (a *auth) getUserCode(_ http.ResponseWriter, r *http.Request) (string, error) {
	var userCode string
	tokenCookie, err := r.Cookie(cookieUserToken)
	if err != nil {
		return "", err
	}
	userCode, err = token.GetUserCode(tokenCookie.Value)
	if err != nil {
		return "", err
	}
	return userCode, nil
}

func readCredentials(w http.ResponseWriter, r *http.Request) (CredentialsJSONRequest, bool) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return CredentialsJSONRequest{}, false
	}

	var credentials CredentialsJSONRequest
	err = json.Unmarshal(buf.Bytes(), &credentials)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return CredentialsJSONRequest{}, false
	}
	if credentials.Login == "" || credentials.Password == "" {
		http.Error(w, "login and password are required", http.StatusBadRequest)
		return CredentialsJSONRequest{}, false
	}
	return credentials, true
}

func setTokenCookie(w http.ResponseWriter, userCode string) bool {
	tokenString, err := token.BuildJWTString(userCode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieUserToken,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
	})
	return true
}
