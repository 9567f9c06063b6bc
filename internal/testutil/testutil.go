// Package testutil holds shared helpers for handler tests: an in-memory
// sqlite store with the full schema, and a router with a stub identity
// middleware so handlers see an authenticated caller.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jaider012/easy-reals/internal/platform"
)

// NewDB opens an in-memory sqlite store and applies the schema. The pool
// is pinned to one connection so the memory database survives.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := platform.Migrate(db); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return db
}

const testUserHeader = "X-Test-User"

// NewRouter builds a gin engine whose identity middleware reads the
// caller id from the X-Test-User header instead of a bearer token.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader(testUserHeader); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err == nil {
				c.Set("user_id", uint(id))
			}
		}
		c.Next()
	})
	return r
}

// Do performs a JSON request as the given user and returns the recorder.
func Do(t *testing.T, r *gin.Engine, method, path string, body interface{}, userID uint) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testUserHeader, strconv.FormatUint(uint64(userID), 10))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a response body into dst.
func Decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}
