package main

import (
	"net"
	"net/url"
	"strings"

	"almgetl/internal/platform/config"
	perr "almgetl/internal/platform/errors"
)

// databaseURL returns ETL_PG_DBURL, or composes one from DB_USER, DB_PASS,
// DB_HOST, DB_PORT and DB_NAME. Missing pieces are a config error
func databaseURL(root config.Conf) (string, error) {
	if u := root.Prefix("ETL_PG_").MayString("DBURL", ""); u != "" {
		return u, nil
	}

	db := root.Prefix("DB_")
	var missing []string
	for _, k := range []string{"USER", "PASS", "HOST", "PORT", "NAME"} {
		if !db.Has(k) {
			missing = append(missing, "DB_"+k)
		}
	}
	if len(missing) > 0 {
		return "", perr.Configf("database not configured: set ETL_PG_DBURL or %s", strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.MayString("USER", ""), db.MayString("PASS", "")),
		Host:   net.JoinHostPort(db.MayString("HOST", ""), db.MayString("PORT", "")),
		Path:   "/" + db.MayString("NAME", ""),
	}
	return u.String(), nil
}

// envName maps a settings field name onto its env key suffix
func envName(field string) string {
	return strings.ToUpper(field)
}
