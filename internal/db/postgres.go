package db

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultPostgresHost = "localhost"
	defaultPostgresPort = "5432"
)

// postgresDSN builds a pgx connection URL. Credentials are escaped by url.URL
// so passwords may contain any character.
func postgresDSN(p ConnParams, opts Options) string {
	host := p.Host
	if host == "" {
		host = defaultPostgresHost
	}
	port := p.Port
	if port == "" {
		port = defaultPostgresPort
	}

	q := url.Values{}
	q.Set("sslmode", opts.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(opts.ConnectTimeout.Seconds())))

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + p.Database,
		RawQuery: q.Encode(),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}
