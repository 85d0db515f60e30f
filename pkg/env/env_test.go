package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("INVENTORYPRO_LOG_FORMAT", "console")
	assert.Equal(t, "console", Get("LOG_FORMAT", "x"))
	assert.Equal(t, "console", Get("INVENTORYPRO_LOG_FORMAT", "x"))
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("LOG_FORMAT", "  ")
	t.Setenv("INVENTORYPRO_LOG_FORMAT", "")
	assert.Equal(t, "json", Get("LOG_FORMAT", "json"))

	t.Setenv("LOG_FORMAT", "console")
	assert.Equal(t, "console", Get("LOG_FORMAT", "json"))
}
