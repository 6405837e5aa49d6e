package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Options{Addr: mr.Addr(), DB: 2})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	require.NoError(t, client.Set(context.Background(), "ledger:probe", "1", 0).Err())
	require.True(t, mr.DB(2).Exists("ledger:probe"))
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"})
	require.ErrorContains(t, err, "platform/cache: ping")

	_, err = New(context.Background(), Options{})
	require.ErrorContains(t, err, "address required")
}

func TestAsynqOptions(t *testing.T) {
	opt := Options{Addr: "redis:6379", Password: "s3cret", DB: 1}.Asynq()
	require.Equal(t, "redis:6379", opt.Addr)
	require.Equal(t, "s3cret", opt.Password)
	require.Equal(t, 1, opt.DB)
}
