package store

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsLoad(t *testing.T) {
	source, err := iofs.New(migrations, "migrations")
	require.NoError(t, err)

	first, err := source.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)
}

func TestJsonbParam(t *testing.T) {
	require.Nil(t, jsonbParam(nil))
	require.Nil(t, jsonbParam([]byte{}))
	require.Equal(t, `{"a":1}`, jsonbParam([]byte(`{"a":1}`)))
}
