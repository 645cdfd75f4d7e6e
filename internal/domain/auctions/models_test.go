package auctions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var guardNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scheduledAuction(status Status, start, end time.Time, totalLots int32) *Auction {
	return &Auction{
		Status:    status,
		StartDate: start,
		EndDate:   end,
		TotalLots: totalLots,
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusUpcoming.IsTerminal())
	assert.False(t, StatusLive.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestAuction_CanStart(t *testing.T) {
	tests := []struct {
		name    string
		auction *Auction
		wantErr error
	}{
		{
			name:    "starts an upcoming auction at its start time",
			auction: scheduledAuction(StatusUpcoming, guardNow, guardNow.Add(2*time.Hour), 3),
			wantErr: nil,
		},
		{
			name:    "starts an upcoming auction past its start time",
			auction: scheduledAuction(StatusUpcoming, guardNow.Add(-1*time.Hour), guardNow.Add(2*time.Hour), 1),
			wantErr: nil,
		},
		{
			name:    "rejects a live auction",
			auction: scheduledAuction(StatusLive, guardNow.Add(-1*time.Hour), guardNow.Add(2*time.Hour), 3),
			wantErr: ErrNotUpcoming,
		},
		{
			name:    "rejects a cancelled auction",
			auction: scheduledAuction(StatusCancelled, guardNow.Add(-1*time.Hour), guardNow.Add(2*time.Hour), 3),
			wantErr: ErrNotUpcoming,
		},
		{
			name:    "rejects an auction without lots",
			auction: scheduledAuction(StatusUpcoming, guardNow.Add(-1*time.Hour), guardNow.Add(2*time.Hour), 0),
			wantErr: ErrNoLots,
		},
		{
			name:    "rejects a start before the scheduled time",
			auction: scheduledAuction(StatusUpcoming, guardNow.Add(1*time.Minute), guardNow.Add(2*time.Hour), 3),
			wantErr: ErrBeforeStartTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.auction.CanStart(guardNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuction_CanComplete(t *testing.T) {
	tests := []struct {
		name    string
		auction *Auction
		wantErr error
	}{
		{
			name:    "completes a live auction past its end time",
			auction: scheduledAuction(StatusLive, guardNow.Add(-3*time.Hour), guardNow.Add(-1*time.Minute), 3),
			wantErr: nil,
		},
		{
			name:    "completes a never-started auction past its end time",
			auction: scheduledAuction(StatusUpcoming, guardNow.Add(-3*time.Hour), guardNow.Add(-1*time.Minute), 3),
			wantErr: nil,
		},
		{
			name:    "rejects completion exactly at the end time",
			auction: scheduledAuction(StatusLive, guardNow.Add(-3*time.Hour), guardNow, 3),
			wantErr: ErrBeforeEndTime,
		},
		{
			name:    "rejects completion before the end time",
			auction: scheduledAuction(StatusLive, guardNow.Add(-3*time.Hour), guardNow.Add(1*time.Hour), 3),
			wantErr: ErrBeforeEndTime,
		},
		{
			name:    "rejects an already completed auction",
			auction: scheduledAuction(StatusCompleted, guardNow.Add(-3*time.Hour), guardNow.Add(-1*time.Hour), 3),
			wantErr: ErrTerminalState,
		},
		{
			name:    "rejects a cancelled auction",
			auction: scheduledAuction(StatusCancelled, guardNow.Add(-3*time.Hour), guardNow.Add(-1*time.Hour), 3),
			wantErr: ErrTerminalState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.auction.CanComplete(guardNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuction_CanCancel(t *testing.T) {
	assert.NoError(t, scheduledAuction(StatusUpcoming, guardNow, guardNow.Add(1*time.Hour), 0).CanCancel())
	assert.NoError(t, scheduledAuction(StatusLive, guardNow, guardNow.Add(1*time.Hour), 2).CanCancel())
	assert.ErrorIs(t, scheduledAuction(StatusCompleted, guardNow, guardNow, 2).CanCancel(), ErrTerminalState)
	assert.ErrorIs(t, scheduledAuction(StatusCancelled, guardNow, guardNow, 2).CanCancel(), ErrTerminalState)
}

func TestAuction_IsBiddableAt(t *testing.T) {
	start := guardNow.Add(-1 * time.Hour)
	end := guardNow.Add(1 * time.Hour)

	tests := []struct {
		name    string
		auction *Auction
		at      time.Time
		want    bool
	}{
		{
			name:    "biddable while live inside the window",
			auction: scheduledAuction(StatusLive, start, end, 1),
			at:      guardNow,
			want:    true,
		},
		{
			name:    "biddable at the window boundaries",
			auction: scheduledAuction(StatusLive, start, end, 1),
			at:      end,
			want:    true,
		},
		{
			name:    "not biddable while upcoming",
			auction: scheduledAuction(StatusUpcoming, start, end, 1),
			at:      guardNow,
			want:    false,
		},
		{
			name:    "not biddable after the window even if still marked live",
			auction: scheduledAuction(StatusLive, start, end, 1),
			at:      end.Add(1 * time.Second),
			want:    false,
		},
		{
			name:    "not biddable before the window",
			auction: scheduledAuction(StatusLive, start, end, 1),
			at:      start.Add(-1 * time.Second),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.auction.IsBiddableAt(tt.at))
		})
	}
}
