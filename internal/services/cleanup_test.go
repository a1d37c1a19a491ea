package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/config"
)

func TestCleanupService_RunCleanup(t *testing.T) {
	store := new(MockOddsStore)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	store.On("DeleteStale", mock.Anything, now, now.Add(-6*time.Hour)).Return(int64(42), nil)

	svc := NewCleanupService(store, config.CleanupConfig{OddsRetentionHours: 6}, quietLogger())
	svc.now = func() time.Time { return now }

	result, err := svc.RunCleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Deleted)
	assert.Equal(t, now, result.StartedBefore)
	assert.Equal(t, now.Add(-6*time.Hour), result.UpdatedBefore)
	store.AssertExpectations(t)
}

func TestCleanupService_Defaults(t *testing.T) {
	svc := NewCleanupService(new(MockOddsStore), config.CleanupConfig{}, quietLogger())
	assert.Equal(t, 24*time.Hour, svc.retention())
	assert.Equal(t, time.Hour, svc.interval())
}

func TestCleanupService_RunCleanupError(t *testing.T) {
	store := new(MockOddsStore)
	store.On("DeleteStale", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	svc := NewCleanupService(store, config.CleanupConfig{}, quietLogger())
	_, err := svc.RunCleanup(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestCleanupService_StartStop(t *testing.T) {
	store := new(MockOddsStore)
	ran := make(chan struct{}, 1)
	store.On("DeleteStale", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), nil)

	svc := NewCleanupService(store, config.CleanupConfig{CleanupIntervalMinutes: 60}, quietLogger())
	svc.Start()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("initial cleanup did not run")
	}

	svc.Stop()
	svc.Stop()
}
