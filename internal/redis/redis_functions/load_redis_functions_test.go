package redis_functions

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAll(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a := redis.NewScript(`return 1`)
	b := redis.NewScript(`return 2`)

	mock.ExpectScriptLoad(`return 1`).SetVal(a.Hash())
	mock.ExpectScriptLoad(`return 2`).SetVal(b.Hash())

	require.NoError(t, LoadAll(context.Background(), db, a, b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAllStopsOnError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a := redis.NewScript(`return 1`)
	b := redis.NewScript(`return 2`)

	mock.ExpectScriptLoad(`return 1`).SetErr(errors.New("NOSCRIPT disabled"))

	err := LoadAll(context.Background(), db, a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), a.Hash())
	assert.NoError(t, mock.ExpectationsWereMet())
}
