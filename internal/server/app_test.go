package server

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/config"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repotest"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	return c
}

func TestNewApp_Wiring(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	c := testConfig()
	c.RedisAddr = mr.Addr()

	app, err := newApp(c, logging.Nop(), db, repotest.NewStore().Manager())
	require.NoError(t, err)

	assert.NotNil(t, app.http)
	assert.NotNil(t, app.grpc)
	assert.NotNil(t, app.hub)
	require.NotNil(t, app.redis, "redis client is built when an address is configured")
	assert.NoError(t, app.redis.Ping(context.Background()).Err())

	mock.ExpectClose()
	app.close()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_NoRedis(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app, err := newApp(testConfig(), logging.Nop(), db, repotest.NewStore().Manager())
	require.NoError(t, err)
	assert.Nil(t, app.redis)
}

func TestNewApp_BadSecrets(t *testing.T) {
	c := testConfig()
	c.JWTAccessSecret = ""

	_, err := newApp(c, logging.Nop(), nil, repotest.NewStore().Manager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token codec")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app, err := newApp(testConfig(), logging.Nop(), db, repotest.NewStore().Manager())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunFailsOnBadAddress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	c := testConfig()
	c.GRPCAddr = "127.0.0.1:99999"

	app, err := newApp(c, logging.Nop(), db, repotest.NewStore().Manager())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop after a listener failure")
	}
}
