package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := New(InvalidState, "Attempt already finished")
	err := fmt.Errorf("finish: %w", base)
	if KindOf(err) != InvalidState {
		t.Fatalf("kind = %s", KindOf(err))
	}
	if KindOf(errors.New("boom")) != Internal {
		t.Fatal("plain errors are internal")
	}
	if !Is(err, InvalidState) || Is(nil, InvalidState) {
		t.Fatal("Is mismatch")
	}
}

func TestWriteStatusAndDetail(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{New(NotFound, "Exam not found"), http.StatusNotFound, "Exam not found"},
		{New(InvalidArgument, "bad"), http.StatusBadRequest, "bad"},
		{New(InvalidState, "done"), http.StatusConflict, "done"},
		{New(Unauthorized, "no"), http.StatusUnauthorized, "no"},
		{New(Forbidden, "nope"), http.StatusForbidden, "nope"},
		{Wrap(Internal, "db exploded", errors.New("secret")), http.StatusInternalServerError, "Internal server error"},
		{errors.New("raw"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		Write(rec, c.err)
		if rec.Code != c.status {
			t.Errorf("%v: status %d, want %d", c.err, rec.Code, c.status)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["detail"] != c.detail {
			t.Errorf("%v: detail %q, want %q", c.err, body["detail"], c.detail)
		}
	}
}
