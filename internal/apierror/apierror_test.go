package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantCause   bool
	}{
		{
			name:        "domain error passes through",
			err:         Forbidden("You are not authorized to update this comment"),
			wantStatus:  http.StatusForbidden,
			wantMessage: "You are not authorized to update this comment",
		},
		{
			name:        "wrapped domain error passes through",
			err:         fmt.Errorf("update comment: %w", NotFound("Comment not found")),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Comment not found",
		},
		{
			name:        "unique violation is hidden",
			err:         fmt.Errorf("insert user: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (email)=(a@b.c) already exists."}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MessageDatabase,
			wantCause:   true,
		},
		{
			name:        "check violation is hidden",
			err:         &pgconn.PgError{Code: pgerrcode.CheckViolation},
			wantStatus:  http.StatusBadRequest,
			wantMessage: MessageDatabase,
			wantCause:   true,
		},
		{
			name:        "non constraint pg error is internal",
			err:         &pgconn.PgError{Severity: "ERROR", Code: pgerrcode.SerializationFailure, Message: "restart transaction"},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "ERROR: restart transaction (SQLSTATE 40001)",
			wantCause:   true,
		},
		{
			name:        "plain error keeps its message",
			err:         errors.New("upstream exploded"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "upstream exploded",
			wantCause:   true,
		},
		{
			name:        "empty message falls back",
			err:         errors.New(""),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
			wantCause:   true,
		},
		{
			name:        "nil error",
			err:         nil,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			require.Equal(t, tc.wantStatus, got.Status)
			require.Equal(t, tc.wantMessage, got.Message)
			require.Equal(t, tc.wantCause, got.Cause != nil)
		})
	}
}

func TestDatabaseKeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	err := Database(cause)

	got := Classify(err)
	require.Equal(t, http.StatusBadRequest, got.Status)
	require.Equal(t, MessageDatabase, got.Message)
	require.ErrorIs(t, got.Cause, cause)
}

func TestInternalMessage(t *testing.T) {
	require.Equal(t, "boom", Internal(errors.New("boom")).Message)
	require.Equal(t, MessageInternal, Internal(nil).Message)
}
