package sqldao

import (
	"strconv"
	"strings"
	"time"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

// rebind rewrites ? placeholders into $1..$n for Postgres.
func rebind(dialect db.Dialect, query string) string {
	if dialect != db.DIALECT_POSTGRES {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dateColumn and timeColumn select DATE/TIME columns as ISO text in both dialects.
func dateColumn(dialect db.Dialect, col string) string {
	if dialect == db.DIALECT_POSTGRES {
		return col + "::text"
	}
	return col
}

func timeColumn(dialect db.Dialect, col string) string {
	if dialect == db.DIALECT_POSTGRES {
		return "to_char(" + col + ", 'HH24:MI:SS')"
	}
	return col
}

func formatDate(t time.Time) string {
	return t.Format(models.DATE_LAYOUT)
}

func parseDate(s string) (time.Time, error) {
	// Postgres may append a time part when the column is cast from timestamp
	if len(s) > len(models.DATE_LAYOUT) {
		s = s[:len(models.DATE_LAYOUT)]
	}
	return time.ParseInLocation(models.DATE_LAYOUT, s, time.UTC)
}
