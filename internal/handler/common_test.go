package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestGetUserIDAcceptsClaimShapes(t *testing.T) {
	// JWT claims decode numbers as float64; other shapes appear when the
	// context is populated programmatically.
	cases := []struct {
		name  string
		value interface{}
		want  uint64
	}{
		{"float64", float64(42), 42},
		{"uint64", uint64(7), 7},
		{"int", int(9), 9},
		{"int64", int64(11), 11},
		{"numeric string", "123", 123},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestContext(t)
			c.Set("user_id", tc.value)
			got, err := getUserID(c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetUserIDRejectsMissingOrGarbage(t *testing.T) {
	c := newTestContext(t)
	_, err := getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", "not-a-number")
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestPathIDRejectsZeroAndGarbage(t *testing.T) {
	for _, raw := range []string{"", "0", "-3", "abc"} {
		c := newTestContext(t)
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, ok := pathID(c, "id")
		assert.False(t, ok, "raw=%q", raw)
	}

	c := newTestContext(t)
	c.SetParamNames("id")
	c.SetParamValues("15")
	id, ok := pathID(c, "id")
	require.True(t, ok)
	assert.Equal(t, uint64(15), id)
}
