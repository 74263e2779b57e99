package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateWorkingDays(t *testing.T) {
	t.Run("single weekday", func(t *testing.T) {
		// Wednesday
		assert.Equal(t, 1, calculateWorkingDays(date(2026, 9, 9), date(2026, 9, 9)))
	})

	t.Run("full work week", func(t *testing.T) {
		// Monday through Friday
		assert.Equal(t, 5, calculateWorkingDays(date(2026, 9, 7), date(2026, 9, 11)))
	})

	t.Run("weekend excluded", func(t *testing.T) {
		// Monday through next Friday spans one weekend
		assert.Equal(t, 10, calculateWorkingDays(date(2026, 9, 7), date(2026, 9, 18)))
	})

	t.Run("weekend only", func(t *testing.T) {
		// Saturday and Sunday
		assert.Equal(t, 0, calculateWorkingDays(date(2026, 9, 12), date(2026, 9, 13)))
	})

	t.Run("range ending on weekend", func(t *testing.T) {
		// Friday through Sunday counts only the Friday
		assert.Equal(t, 1, calculateWorkingDays(date(2026, 9, 11), date(2026, 9, 13)))
	})
}
