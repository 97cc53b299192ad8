package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, parseDuration("soon", 5*time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", 5*time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a, ,http://b "))
}

func TestNormalizeDriver(t *testing.T) {
	assert.Equal(t, DriverPgx, normalizeDriver(" PGX "))
	assert.Equal(t, DriverPostgres, normalizeDriver("mysql"))
	assert.Equal(t, DriverPostgres, normalizeDriver(""))
}

func TestReportsLocation(t *testing.T) {
	assert.Equal(t, time.Local, ReportsConfig{Timezone: "Local"}.Location())
	assert.Equal(t, time.Local, ReportsConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", ReportsConfig{Timezone: "UTC"}.Location().String())
}
