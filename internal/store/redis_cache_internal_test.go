package store

import (
	"strconv"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecord(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nanos := strconv.FormatInt(expiry.UnixNano(), 10)

	tests := []struct {
		name   string
		record map[string]string
		want   *time.Time
	}{
		{
			name:   "canonical field",
			record: map[string]string{fieldExpiresAt: nanos},
			want:   &expiry,
		},
		{
			name:   "snake case legacy field",
			record: map[string]string{"expiry_date": expiry.Format(time.RFC3339)},
			want:   &expiry,
		},
		{
			name:   "camel case legacy field",
			record: map[string]string{"expiryDate": nanos},
			want:   &expiry,
		},
		{
			name:   "canonical wins over legacy",
			record: map[string]string{fieldExpiresAt: nanos, "expiryDate": "0"},
			want:   &expiry,
		},
		{
			name:   "empty expiry means never",
			record: map[string]string{fieldExpiresAt: ""},
			want:   nil,
		},
		{
			name:   "missing expiry means never",
			record: map[string]string{},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := decodeLink(normalizeRecord(tt.record))

			if tt.want == nil {
				assert.Nil(t, link.ExpiresAt)

				return
			}

			require.NotNil(t, link.ExpiresAt)
			assert.True(t, tt.want.Equal(*link.ExpiresAt))
		})
	}
}

func TestEncodeDecodeLink(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := created.Add(7 * 24 * time.Hour)

	link := &shortener.Link{
		ID:          "id-1",
		Code:        "abc1234",
		Destination: "https://example.com/a",
		Owner:       "alice",
		CreatedAt:   created,
		ExpiresAt:   &expiry,
		Active:      true,
	}

	encoded := encodeLink(link)
	record := make(map[string]string, len(encoded))

	for k, v := range encoded {
		switch val := v.(type) {
		case string:
			record[k] = val
		case int64:
			record[k] = strconv.FormatInt(val, 10)
		}
	}

	decoded := decodeLink(normalizeRecord(record))

	assert.Equal(t, link.ID, decoded.ID)
	assert.Equal(t, link.Code, decoded.Code)
	assert.Equal(t, link.Destination, decoded.Destination)
	assert.Equal(t, link.Owner, decoded.Owner)
	assert.True(t, created.Equal(decoded.CreatedAt))
	require.NotNil(t, decoded.ExpiresAt)
	assert.True(t, expiry.Equal(*decoded.ExpiresAt))
	assert.True(t, decoded.Active)
}
