package sqlbase

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationManager_Pending(t *testing.T) {
	m := NewMigrationManager(slog.Default(), nil, map[int]string{
		3:  "SELECT 3",
		1:  "SELECT 1",
		10: "SELECT 10",
		2:  "SELECT 2",
	})

	assert.Equal(t, 10, m.LatestVersion())

	tests := []struct {
		from int
		want []int
	}{
		{from: 0, want: []int{1, 2, 3, 10}},
		{from: 2, want: []int{3, 10}},
		{from: 10, want: nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Pending(tt.from))
	}
}

func TestMigrationManager_NoMigrations(t *testing.T) {
	m := NewMigrationManager(slog.Default(), nil, nil)

	assert.Zero(t, m.LatestVersion())
	assert.Empty(t, m.Pending(0))
}
