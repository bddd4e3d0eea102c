package datastore

import (
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"

	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// MySQLConfig holds the connection settings of a MySQL store.
type MySQLConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	Database string
}

// DSN renders the driver connection string.
func (c MySQLConfig) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// OpenMySQL connects to the MySQL database described by cfg.
func OpenMySQL(cfg MySQLConfig) (*Store, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, validationError(ErrNotInitialized, "mysql host and database are required")
	}

	store, err := Open(mysql.Open(cfg.DSN()))
	if err != nil {
		getLogger().Error("failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.String("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return nil, err
	}

	getLogger().Info("MySQL database opened",
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database))
	return store, nil
}
