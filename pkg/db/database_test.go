package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestOpenMemory_Migrates(t *testing.T) {
	t.Parallel()

	type probe struct {
		ID   uint `gorm:"primaryKey"`
		Name string
	}

	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&probe{}))
	require.NoError(t, db.Create(&probe{Name: "soup"}).Error)

	var got probe
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "soup", got.Name)
}

func TestDialector(t *testing.T) {
	t.Parallel()

	_, embedded := dialector("sqlite://:memory:")
	assert.True(t, embedded)

	d, embedded := dialector("postgres://u:p@localhost:5432/db")
	assert.False(t, embedded)
	assert.Equal(t, "postgres", d.Name())
}
