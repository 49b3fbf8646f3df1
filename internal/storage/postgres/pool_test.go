package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/overstack/internal/config"
)

func TestQueryLogger_MapsLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	q := queryLogger{logger: zap.New(core)}

	q.Log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{"sql": "SELECT 1"})
	q.Log(context.Background(), tracelog.LogLevelWarn, "Exec", nil)
	q.Log(context.Background(), tracelog.LogLevelInfo, "Prepare", nil)
	q.Log(context.Background(), tracelog.LogLevelTrace, "CopyFrom", nil)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestNewPool_RejectsBadConfig(t *testing.T) {
	_, err := NewPool(context.Background(), config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Name: "d", SSLMode: "bogus",
		MaxConns: 1, MinConns: 0,
	}, nil)
	assert.ErrorContains(t, err, "parsing database config")
}
