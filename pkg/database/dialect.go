package database

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/zumu-ai/knowledgedb/domain"

	// Drivers for the three engines shards are provisioned on.
	_ "github.com/googleapis/go-sql-spanner"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect is the capability set of one shard's engine, fixed once when the
// family's pool is opened and reused for the process lifetime. The drivers
// disagree on bind-var style and on native UUID support, so neither is ever
// inferred per query.
type Dialect struct {
	Driver        string
	NativeUUID    bool
	numberedBinds bool
}

// Rebind rewrites `?` placeholders into the dialect's bind-var style.
// Queries throughout the repository layer are written with `?`.
func (d Dialect) Rebind(query string) string {
	if !d.numberedBinds {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// resolveDialect picks the driver and DSN for a shard URL by scheme.
// Unknown schemes are a configuration error; there is no default engine.
func resolveDialect(family Family, rawURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return Dialect{Driver: "postgres", NativeUUID: true, numberedBinds: true}, rawURL, nil

	case strings.HasPrefix(rawURL, "sqlite:"):
		dsn := sqliteDSN(strings.TrimPrefix(rawURL, "sqlite:"))
		return Dialect{Driver: "sqlite"}, dsn, nil

	case strings.HasPrefix(rawURL, "file:"):
		return Dialect{Driver: "sqlite"}, sqliteDSN(rawURL), nil

	case strings.HasPrefix(rawURL, "spanner:"):
		return Dialect{Driver: "spanner"}, strings.TrimPrefix(rawURL, "spanner:"), nil

	default:
		return Dialect{}, "", &domain.ConfigurationError{
			Key:    string(family),
			Reason: "unrecognized shard URL scheme",
		}
	}
}

// sqliteDSN forces the sqlite time format that serializes timestamps in a
// lexicographically sortable layout; without it ORDER BY created_at on text
// columns is meaningless.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_time_format=" + url.QueryEscape("sqlite")
	}
	return dsn + "?_time_format=sqlite"
}
