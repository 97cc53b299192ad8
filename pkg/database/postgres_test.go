package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/face-attendance-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "att",
		Password: "secret",
		Name:     "face_attendance",
		SSLMode:  "require",
	})
	assert.Equal(t, "host=db port=5433 user=att password=secret dbname=face_attendance sslmode=require", dsn)
}
