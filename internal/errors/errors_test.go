package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesKindSentinel(t *testing.T) {
	errNotAdmin := AccessDenied("only admins may do this")
	wrapped := fmt.Errorf("update role: %w", errNotAdmin)

	assert.ErrorIs(t, wrapped, ErrAccessDenied)
	assert.ErrorIs(t, wrapped, errNotAdmin)
	assert.NotErrorIs(t, wrapped, ErrResourceNotFound)
	assert.NotErrorIs(t, wrapped, AccessDenied("only admins may do this"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("x: %w", Validation("bad"))))
	assert.Equal(t, Kind(0), KindOf(stderrors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestRespondWithDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{AccessDenied("no"), http.StatusForbidden, ErrCodeForbidden},
		{NotFound("gone"), http.StatusNotFound, ErrCodeNotFound},
		{AlreadyExists("dup"), http.StatusConflict, ErrCodeAlreadyExists},
		{InvalidTaskState("done is terminal"), http.StatusConflict, ErrCodeInvalidOperation},
		{Validation("bad role"), http.StatusBadRequest, ErrCodeInvalidInput},
		{Unauthenticated("who are you"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{stderrors.New("database exploded"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		RespondWithDomainError(c, fmt.Errorf("wrapped: %w", tc.err))

		require.Equal(t, tc.status, w.Code, tc.err.Error())
		var body APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
	}
}

func TestRespondWithDomainError_HidesInternalMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithDomainError(c, stderrors.New("dial tcp 10.0.0.1: refused"))

	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}
