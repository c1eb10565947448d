package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/talent-assessment-api/pkg/config"
)

func TestDSNQuotesValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "hr",
		Password: "it's secret",
		Name:     "talent_assessment",
		SSLMode:  "disable",
	})

	assert.Equal(t, `host='db' port='5432' user='hr' password='it\'s secret' dbname='talent_assessment' sslmode='disable' application_name='talent-assessment-api'`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "hr", Name: "ta"})

	assert.NotContains(t, dsn, "password")
	assert.NotContains(t, dsn, "sslmode")
}
