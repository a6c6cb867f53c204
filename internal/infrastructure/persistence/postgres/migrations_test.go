package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()

	assert.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions are contiguous")
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
	assert.Contains(t, migrations[0].UpSQL, "app_slots")
}

func TestSlotStatements(t *testing.T) {
	assert.Contains(t, upsertSlotSQL, "ON CONFLICT (slot_key)")
	assert.Contains(t, selectSlotSQL, "WHERE slot_key = $1")
	assert.Equal(t, "edutrack_data_v1", NewSlot(nil, "edutrack_data_v1").Name())
}
