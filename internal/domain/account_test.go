package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zionnet/newsflow/internal/domain"
)

func TestDecodeAccountRequest(t *testing.T) {
	valid := `{"username":"alice","password":"s3cret","email":"alice@example.com","preferences":["technology","sports"]}`

	t.Run("valid payload decodes", func(t *testing.T) {
		req, err := domain.DecodeAccountRequest([]byte(valid))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Username != "alice" || req.Email != "alice@example.com" {
			t.Fatalf("unexpected request: %+v", req)
		}
		if len(req.Preferences) != 2 {
			t.Fatalf("expected 2 preferences, got %v", req.Preferences)
		}
	})

	t.Run("invalid JSON is a decode failure", func(t *testing.T) {
		_, err := domain.DecodeAccountRequest([]byte(`{"username":`))
		if !errors.Is(err, domain.ErrDecodeFailure) {
			t.Fatalf("expected ErrDecodeFailure, got %v", err)
		}
	})

	t.Run("missing username rejected", func(t *testing.T) {
		_, err := domain.DecodeAccountRequest([]byte(`{"password":"x","email":"a@b.c"}`))
		if !errors.Is(err, domain.ErrDecodeFailure) {
			t.Fatalf("expected ErrDecodeFailure, got %v", err)
		}
	})

	t.Run("missing password rejected", func(t *testing.T) {
		_, err := domain.DecodeAccountRequest([]byte(`{"username":"a","email":"a@b.c"}`))
		if !errors.Is(err, domain.ErrDecodeFailure) {
			t.Fatalf("expected ErrDecodeFailure, got %v", err)
		}
	})

	t.Run("overlong password rejected", func(t *testing.T) {
		long := strings.Repeat("p", 73)
		_, err := domain.DecodeAccountRequest([]byte(`{"username":"a","password":"` + long + `","email":"a@b.c"}`))
		if !errors.Is(err, domain.ErrDecodeFailure) {
			t.Fatalf("expected ErrDecodeFailure, got %v", err)
		}
	})

	t.Run("bad email rejected", func(t *testing.T) {
		_, err := domain.DecodeAccountRequest([]byte(`{"username":"a","password":"x","email":"nope"}`))
		if !errors.Is(err, domain.ErrDecodeFailure) {
			t.Fatalf("expected ErrDecodeFailure, got %v", err)
		}
	})

	t.Run("preferences truncated to five", func(t *testing.T) {
		body := `{"username":"a","password":"x","email":"a@b.c","preferences":["a","b","c","d","e","f","g"]}`
		req, err := domain.DecodeAccountRequest([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(req.Preferences) != 5 {
			t.Fatalf("expected 5 preferences, got %d", len(req.Preferences))
		}
	})
}
