package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/concierge/internal/config"
)

func TestDSN(t *testing.T) {
	require.Equal(t, "postgres://u:p@h/db", DSN(config.DatabaseConfig{DSN: "postgres://u:p@h/db", Host: "ignored"}))
	require.Equal(t,
		"host=localhost port=5432 user=app password=secret dbname=concierge sslmode=disable",
		DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Password: "secret", DBName: "concierge"}),
	)
	require.Contains(t, DSN(config.DatabaseConfig{Host: "h", SSLMode: "require"}), "sslmode=require")
}
