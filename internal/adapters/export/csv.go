package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/phenrril/customerdesk/internal/domain"
)

// CSV: los campos de texto van siempre entre comillas (con "" para las
// comillas internas) y el userId va sin comillas. Sin salto de línea final.
func CSV(items []domain.Customer, now time.Time) (Artifact, error) {
	if len(items) == 0 {
		return Artifact{}, ErrNothingToExport
	}
	var b strings.Builder
	b.WriteString(strings.Join(Columns, ","))
	for _, c := range items {
		b.WriteByte('\n')
		for _, v := range []string{c.CustomerID, c.CompanyName, c.Address, c.ContactNo, c.Username} {
			b.WriteString(quote(v))
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(c.UserID, 10))
	}
	return Artifact{
		Filename:    filename(now, "csv"),
		ContentType: "text/csv;charset=utf-8",
		Data:        []byte(b.String()),
	}, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
