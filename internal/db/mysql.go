package db

import (
	"net"

	"github.com/go-sql-driver/mysql"
)

const (
	defaultMySQLHost = "localhost"
	defaultMySQLPort = "3306"
)

func mysqlDSN(p ConnParams, opts Options) string {
	host := p.Host
	if host == "" {
		host = defaultMySQLHost
	}
	port := p.Port
	if port == "" {
		port = defaultMySQLPort
	}

	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = p.Database
	cfg.ParseTime = true
	cfg.Timeout = opts.ConnectTimeout
	return cfg.FormatDSN()
}
