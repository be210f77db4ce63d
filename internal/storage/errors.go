package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

// StorageError reports a failure originating in the database layer.
// Message never contains the connection string or password fragments.
type StorageError struct {
	Op      string
	Code    string // SQLSTATE, when the driver reports one
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (SQLSTATE %s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Wrap converts a driver error into a *StorageError. Nil stays nil.
func (s *Store) Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	e := &StorageError{Op: op, Message: s.redact(err.Error()), Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		e.Code = string(pqErr.Code)
	}
	return e
}

const redacted = "xxxxx"

var (
	passwordParam = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)
	urlUserinfo   = regexp.MustCompile(`(://[^:/@\s]*:)[^@\s]*@`)
)

// redact blanks out the connection string and any password fragment. A bare
// password is not searched for: a short one would mangle unrelated text.
func (s *Store) redact(msg string) string {
	for _, secret := range s.secrets {
		if secret != "" {
			msg = strings.ReplaceAll(msg, secret, redacted)
		}
	}
	msg = passwordParam.ReplaceAllString(msg, "${1}"+redacted)
	return urlUserinfo.ReplaceAllString(msg, "${1}"+redacted+"@")
}
