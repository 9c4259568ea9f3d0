package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AccountRequest is the signup payload carried over the work queue.
// The password travels in plaintext on the internal broker and is hashed
// before it ever reaches the identity store.
type AccountRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Email       string   `json:"email"`
	Preferences []string `json:"preferences"`
}

// bcrypt rejects passwords longer than 72 bytes.
const maxPasswordBytes = 72

// DecodeAccountRequest parses and validates a queue message body.
// Any failure wraps ErrDecodeFailure so the consumer can tell a poison
// message apart from a transient store error.
func DecodeAccountRequest(body []byte) (*AccountRequest, error) {
	var req AccountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	// Extra preferences are truncated rather than rejected, mirroring the
	// five-category cap applied on the aggregation path.
	if len(req.Preferences) > MaxPreferences {
		req.Preferences = req.Preferences[:MaxPreferences]
	}
	return &req, nil
}

func (r *AccountRequest) validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) > maxPasswordBytes {
		return fmt.Errorf("password exceeds %d bytes", maxPasswordBytes)
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("email %q is not valid", r.Email)
	}
	return nil
}

// User is the persisted identity record. The plaintext password never
// appears here; only the bcrypt hash is stored.
type User struct {
	ID             string
	Username       string
	HashedPassword string
	Email          string
	Preferences    []string
	CreatedAt      time.Time
}
