package config

import (
	"github.com/garyjia/kvdph/internal/container"
)

// ToContainerConfig converts the viper-loaded Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Statement: container.StatementConfig{
			DomesticPrefix: c.Statement.DomesticPrefix,
			XMLNamespace:   c.Statement.XMLNamespace,
			OutputDir:      c.Statement.OutputDir,
			TraceDecisions: c.Statement.TraceDecisions,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}
