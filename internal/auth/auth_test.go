package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/asdine/storm/v3"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUser(t *testing.T) {
	Convey("Methods work as expected", t, func() {
		user := new(User)
		Convey("Setting and verifying password works correctly with hashes", func() {
			user.SetPassword([]byte("hello123"))
			So(user.Password, ShouldStartWith, "$")

			So(user.VerifyPassword([]byte("hello123")), ShouldBeNil)
			So(user.VerifyPassword([]byte("hello12")), ShouldNotBeNil)
		})

		Convey("Invalid hash returns the correct error", func() {
			user.Password = "I DON'T WORK"
			So(user.VerifyPassword([]byte("hello123")).Error(), ShouldContainSubstring, "hashedSecret too short")
		})
	})
}

func TestJWTGeneration(t *testing.T) {
	Convey("test basic claim creation", t, func() {
		svc := &Service{Config: Config{Issuer: "test", Secret: []byte("secret")}}
		ts, err := svc.NewJWT("hello test")
		So(ts, ShouldNotBeEmpty)
		So(err, ShouldBeNil)
	})
}

func openTestDB(t *testing.T) *storm.DB {
	path := t.TempDir() + "/auth-test.db"
	db, err := storm.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})
	return db
}

func TestLogin(t *testing.T) {
	db := openTestDB(t)
	svc := &Service{DB: db, Config: Config{Issuer: "test", Secret: []byte("secret")}}

	user := &User{Email: "login@test.case"}
	user.SetPassword([]byte("testing123"))
	if err := db.Save(user); err != nil {
		t.Fatal(err)
	}

	Convey("Valid request works as expected", t, func() {
		body, _ := json.Marshal(loginPayload{Email: "login@test.case", Password: "testing123"})

		req := httptest.NewRequest("POST", "/api/login/", bytes.NewBuffer(body))
		req.Header.Add("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		http.HandlerFunc(svc.Login).ServeHTTP(rr, req)

		So(rr.Code, ShouldEqual, http.StatusOK)
		So(rr.Body.String(), ShouldContainSubstring, `"token":`)
	})

	Convey("Invalid credentials return error", t, func() {
		Convey("Incorrect email provides 404", func() {
			body, _ := json.Marshal(loginPayload{Email: "login-no@test.case", Password: "testing123"})
			req := httptest.NewRequest("POST", "/api/login/", bytes.NewBuffer(body))
			req.Header.Add("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			http.HandlerFunc(svc.Login).ServeHTTP(rr, req)

			So(rr.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Incorrect password provides 403", func() {
			body, _ := json.Marshal(loginPayload{Email: "login@test.case", Password: "testing12"})
			req := httptest.NewRequest("POST", "/api/login/", bytes.NewBuffer(body))
			req.Header.Add("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			http.HandlerFunc(svc.Login).ServeHTTP(rr, req)

			So(rr.Code, ShouldEqual, http.StatusForbidden)
		})
	})
}

func TestRequireAuth(t *testing.T) {
	svc := &Service{Config: Config{Issuer: "test", Secret: []byte("secret")}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	Convey("Requests without a token are rejected", t, func() {
		req := httptest.NewRequest("GET", "/api/", nil)
		rr := httptest.NewRecorder()

		svc.RequireAuth(ok).ServeHTTP(rr, req)

		So(rr.Code, ShouldEqual, http.StatusUnauthorized)
	})

	Convey("Requests with a valid token pass through", t, func() {
		token, err := svc.NewJWT("someone@example.com")
		So(err, ShouldBeNil)

		req := httptest.NewRequest("GET", "/api/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		svc.RequireAuth(ok).ServeHTTP(rr, req)

		So(rr.Code, ShouldEqual, http.StatusOK)
	})
}
