package storage

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"
)

// prepareDSN normalises the connection string for the driver and returns the
// substrings that must never appear in error messages.
func prepareDSN(driver, dsn string, requireTLS bool) (string, []string, error) {
	switch driver {
	case "sqlite3":
		return dsn, nil, nil
	case "postgres":
	default:
		return "", nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conninfo := dsn
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		var err error
		// The parse error quotes the URL, password included.
		if conninfo, err = pq.ParseURL(dsn); err != nil {
			return "", nil, fmt.Errorf("invalid connection URL")
		}
	}

	kv := parseConninfo(conninfo)
	secrets := []string{dsn, conninfo}

	if requireTLS {
		switch mode := kv["sslmode"]; mode {
		case "":
			conninfo += " sslmode=require"
		case "require", "verify-ca", "verify-full":
		default:
			return "", nil, fmt.Errorf("secure transport required but connection string sets sslmode=%s", mode)
		}
	}
	return conninfo, secrets, nil
}

// parseConninfo splits a libpq key/value connection string. Values may be
// single-quoted; a backslash escapes the next character.
func parseConninfo(s string) map[string]string {
	kv := make(map[string]string)
	r := []rune(s)
	i := 0
	skipSpace := func() {
		for i < len(r) && unicode.IsSpace(r[i]) {
			i++
		}
	}
	for {
		skipSpace()
		start := i
		for i < len(r) && r[i] != '=' && !unicode.IsSpace(r[i]) {
			i++
		}
		key := string(r[start:i])
		skipSpace()
		if i >= len(r) || r[i] != '=' {
			return kv
		}
		i++
		skipSpace()

		var val []rune
		quoted := i < len(r) && r[i] == '\''
		if quoted {
			i++
		}
		for i < len(r) {
			if quoted && r[i] == '\'' {
				i++
				break
			}
			if !quoted && unicode.IsSpace(r[i]) {
				break
			}
			if r[i] == '\\' && i+1 < len(r) {
				i++
			}
			val = append(val, r[i])
			i++
		}
		if key != "" {
			kv[key] = string(val)
		}
	}
}
