package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jengzang/spots-backend-go/internal/middleware"
	. "github.com/smartystreets/goconvey/convey"
)

func sign(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	So(err, ShouldBeNil)
	return tok
}

func TestParseToken(t *testing.T) {
	secret := []byte("s3cret")

	Convey("Given HS256 tokens", t, func() {
		Convey("When the token is valid", func() {
			sub, err := middleware.ParseToken(sign(jwt.RegisteredClaims{Subject: "alice"}, jwt.SigningMethodHS256, secret), secret)
			So(err, ShouldBeNil)
			So(sub, ShouldEqual, "alice")
		})

		Convey("When the token is signed with another key", func() {
			_, err := middleware.ParseToken(sign(jwt.RegisteredClaims{Subject: "alice"}, jwt.SigningMethodHS256, []byte("other")), secret)
			So(err, ShouldNotBeNil)
		})

		Convey("When the token has expired", func() {
			claims := jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}
			_, err := middleware.ParseToken(sign(claims, jwt.SigningMethodHS256, secret), secret)
			So(err, ShouldNotBeNil)
		})

		Convey("When the token has no subject", func() {
			_, err := middleware.ParseToken(sign(jwt.RegisteredClaims{}, jwt.SigningMethodHS256, secret), secret)
			So(err, ShouldEqual, middleware.ErrMissingSubject)
		})
	})
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("Given a router with optional auth", t, func() {
		r := gin.New()
		r.Use(middleware.Auth("s3cret", false))
		r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("user_id")) })

		get := func(header string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			return w
		}

		Convey("Then anonymous requests pass without a user", func() {
			w := get("")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldBeEmpty)
		})

		Convey("Then a bearer token sets the user", func() {
			w := get("Bearer " + sign(jwt.RegisteredClaims{Subject: "alice"}, jwt.SigningMethodHS256, []byte("s3cret")))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "alice")
		})

		Convey("Then a non-bearer header is rejected", func() {
			So(get("Basic Zm9vOmJhcg==").Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestRateLimiter(t *testing.T) {
	Convey("Given a limiter of two requests per window", t, func() {
		rl := middleware.NewRateLimiter(2, time.Hour)
		Reset(rl.Stop)

		Convey("When a client exceeds the limit", func() {
			first := rl.Allow("1.2.3.4")
			second := rl.Allow("1.2.3.4")
			third := rl.Allow("1.2.3.4")

			Convey("Then only the excess request is refused", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
				So(third, ShouldBeFalse)
				So(rl.Allow("5.6.7.8"), ShouldBeTrue)
				So(rl.Tracked(), ShouldEqual, 2)
			})
		})

		Convey("When the middleware refuses a request", func() {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(middleware.RateLimit(middleware.NewRateLimiter(1, time.Hour)))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			codes := make([]int, 0, 2)
			for i := 0; i < 2; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				codes = append(codes, w.Code)
			}

			Convey("Then it answers 429", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusTooManyRequests})
			})
		})
	})
}
