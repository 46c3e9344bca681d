// Package auth secures the command API. The ROS/mavros system this
// bridge replaces has no network-facing ACL of its own (a ROS master
// is assumed to sit behind its own trust boundary); a standalone HTTP
// service needs one: a storm-backed User store, JWT bearer tokens, and
// bcrypt password hashing.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/skyward-robotics/offboard-bridge/internal/httputil"
)

// User is a local operator account, storm-backed.
type User struct {
	ID       int    `storm:"increment"`
	Email    string `storm:"unique"`
	Name     string
	Password string
	Admin    bool
}

// SetPassword hashes pass with bcrypt and stores the digest.
func (u *User) SetPassword(pass []byte) {
	hash, _ := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	u.Password = string(hash)
}

// VerifyPassword compares pass against the stored digest, returning
// bcrypt's own error values for the caller to switch on.
func (u *User) VerifyPassword(pass []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), pass)
}

// Config bundles the JWT parameters, sourced from the bridge's own
// config so the HMAC secret is never a compiled-in constant.
type Config struct {
	Issuer   string
	Secret   []byte
	Lifespan time.Duration
}

// Service wires a storm-backed user store to the JWT issuer/verifier.
type Service struct {
	DB     *storm.DB
	Config Config
}

func (s *Service) lifespan() time.Duration {
	if s.Config.Lifespan <= 0 {
		return time.Hour
	}
	return s.Config.Lifespan
}

// NewJWT issues a signed HS512 token for sub.
func (s *Service) NewJWT(sub string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.StandardClaims{
		Issuer:    s.Config.Issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.lifespan()).Unix(),
		Subject:   sub,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(s.Config.Secret)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *loginPayload) Bind(r *http.Request) error { return nil }

type jwtPayload struct {
	SignedToken string `json:"token"`
}

// Login looks up a user by email, verifies the password and returns a
// fresh token.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	data := &loginPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, httputil.ErrInvalidRequest(err))
		return
	}

	var user User
	if err := s.DB.One("Email", data.Email, &user); err != nil {
		if err == storm.ErrNotFound {
			render.Render(w, r, httputil.ErrNotFound)
			return
		}
		render.Render(w, r, httputil.ErrRender(err))
		return
	}

	if err := user.VerifyPassword([]byte(data.Password)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			render.Render(w, r, httputil.ErrPermissionDenied(errors.New("invalid password")))
			return
		}
		render.Render(w, r, httputil.ErrRender(err))
		return
	}

	token, err := s.NewJWT(user.Email)
	if err != nil {
		render.Render(w, r, httputil.ErrRender(err))
		return
	}

	render.JSON(w, r, jwtPayload{token})
}

// Refresh reissues a token for the subject of the request's already-
// validated JWT.
func (s *Service) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(claimsKey).(*jwt.StandardClaims)
	if !ok {
		render.Render(w, r, httputil.ErrUnauthorized(errors.New("missing token claims")))
		return
	}

	token, err := s.NewJWT(claims.Subject)
	if err != nil {
		render.Render(w, r, httputil.ErrRender(err))
		return
	}

	render.JSON(w, r, jwtPayload{token})
}

type ctxKey int

const claimsKey ctxKey = iota

var errMissingBearer = errors.New("bearer token not provided")

// RequireAuth validates a bearer token from the query string, the
// Authorization header, or a cookie, in that order.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("jwt")

		if tokenStr == "" {
			bearer := r.Header.Get("Authorization")
			if len(bearer) > 7 && strings.ToUpper(bearer[0:6]) == "BEARER" {
				tokenStr = bearer[7:]
			}
		}

		if tokenStr == "" {
			if cookie, err := r.Cookie("jwt"); err == nil {
				tokenStr = cookie.Value
			}
		}

		if tokenStr == "" {
			render.Render(w, r, httputil.ErrUnauthorized(errMissingBearer))
			return
		}

		token, err := jwt.ParseWithClaims(tokenStr, &jwt.StandardClaims{}, func(*jwt.Token) (interface{}, error) {
			return s.Config.Secret, nil
		})
		if err != nil {
			msg := errors.New("invalid token")
			if verr, ok := err.(*jwt.ValidationError); ok && verr.Errors&jwt.ValidationErrorExpired != 0 {
				msg = errors.New("token has expired")
			}
			render.Render(w, r, httputil.ErrUnauthorized(msg))
			return
		}

		if !token.Valid {
			render.Render(w, r, httputil.ErrUnauthorized(errors.New("invalid token")))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, token.Claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
