package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndSet(t *testing.T) {
	userID := uuid.MustParse("7f1c9a52-3f55-4b7a-9c4c-1f7e0a2b9d11")
	k := "rate_limit:user:" + userID.String() + ":spotlight_claim"

	tests := []struct {
		name      string
		setupMock func(redismock.ClientMock)
		want      bool
		wantErr   bool
	}{
		{
			name: "first call reserves the window",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectSetNX(k, "locked", 10*time.Second).SetVal(true)
			},
			want: true,
		},
		{
			name: "second call inside the window is limited",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectSetNX(k, "locked", 10*time.Second).SetVal(false)
			},
			want: false,
		},
		{
			name: "redis failure surfaces",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectSetNX(k, "locked", 10*time.Second).SetErr(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setupMock(mock)

			got, err := CheckAndSet(context.Background(), client, userID, "spotlight_claim", 10*time.Second)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNilClientNeverLimits(t *testing.T) {
	ok, err := CheckAndSet(context.Background(), nil, uuid.New(), "any", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, Clear(context.Background(), nil, uuid.New(), "any"))
}

func TestClear(t *testing.T) {
	userID := uuid.New()
	client, mock := redismock.NewClientMock()
	mock.ExpectDel("rate_limit:user:" + userID.String() + ":spotlight_claim").SetVal(1)

	require.NoError(t, Clear(context.Background(), client, userID, "spotlight_claim"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemaining(t *testing.T) {
	userID := uuid.New()
	k := "rate_limit:user:" + userID.String() + ":spotlight_claim"

	tests := []struct {
		name      string
		setupMock func(redismock.ClientMock)
		want      time.Duration
		wantErr   bool
	}{
		{
			name:      "partial seconds round up",
			setupMock: func(mock redismock.ClientMock) { mock.ExpectPTTL(k).SetVal(2100 * time.Millisecond) },
			want:      3 * time.Second,
		},
		{
			name:      "whole seconds stay",
			setupMock: func(mock redismock.ClientMock) { mock.ExpectPTTL(k).SetVal(4 * time.Second) },
			want:      4 * time.Second,
		},
		{
			name:      "missing key",
			setupMock: func(mock redismock.ClientMock) { mock.ExpectPTTL(k).SetVal(-2) },
		},
		{
			name:      "redis failure surfaces",
			setupMock: func(mock redismock.ClientMock) { mock.ExpectPTTL(k).SetErr(errors.New("connection refused")) },
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setupMock(mock)

			got, err := Remaining(context.Background(), client, userID, "spotlight_claim")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	left, err := Remaining(context.Background(), nil, userID, "spotlight_claim")
	require.NoError(t, err)
	assert.Zero(t, left)
}
