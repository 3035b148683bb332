package persistence

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/site-cms/internal/config"
)

func TestNewRedisAppliesTimeouts(t *testing.T) {
	srv := miniredis.RunT(t)
	core, logs := observer.New(zapcore.InfoLevel)

	r := NewRedis(context.Background(), config.RedisConfig{
		Addr:               srv.Addr(),
		DialTimeoutMillis:  250,
		ReadTimeoutMillis:  100,
		WriteTimeoutMillis: 150,
	}, zap.New(core))
	defer r.Close()

	opts := r.Client.Options()
	assert.Equal(t, 250*time.Millisecond, opts.DialTimeout)
	assert.Equal(t, 100*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 150*time.Millisecond, opts.WriteTimeout)
	assert.NoError(t, r.Ping(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("connected to redis").Len())
}

func TestNewRedisDefaultsTimeouts(t *testing.T) {
	srv := miniredis.RunT(t)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	defer r.Close()

	assert.Equal(t, 500*time.Millisecond, r.Client.Options().DialTimeout)
	assert.Equal(t, 300*time.Millisecond, r.Client.Options().ReadTimeout)
}

func TestNewRedisUnreachableDoesNotStall(t *testing.T) {
	// A listener that accepts but never answers behaves like a hung server.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		var conns []net.Conn
		defer func() {
			for _, conn := range conns {
				conn.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()

	core, logs := observer.New(zapcore.WarnLevel)
	start := time.Now()
	r := NewRedis(context.Background(), config.RedisConfig{
		Addr:               ln.Addr().String(),
		DialTimeoutMillis:  100,
		ReadTimeoutMillis:  100,
		WriteTimeoutMillis: 100,
	}, zap.New(core))
	defer r.Close()

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, logs.FilterMessage("redis unreachable; login throttling disabled until it recovers").Len())
}

func TestNilRedisPing(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
	assert.NotPanics(t, r.Close)
}
