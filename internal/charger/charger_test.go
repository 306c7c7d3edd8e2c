// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package charger_test

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/internal/access"
	"github.com/chargeshare/chargeshare/internal/charger"
)

var _ access.Owned = (*charger.Charger)(nil)

func validInput() charger.Input {
	return charger.Input{
		Title:             "  Driveway charger ",
		Address:           "1 Main St",
		Latitude:          52.52,
		Longitude:         13.40,
		PowerKW:           11,
		PricePerHourCents: 450,
		ConnectorType:     "Type 2",
	}
}

func TestNew(t *testing.T) {
	host := ulid.Make()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := charger.New(host, validInput(), now)
	require.NoError(t, err)
	assert.False(t, c.ID.IsZero())
	assert.Equal(t, host, c.OwnerID())
	assert.Equal(t, "Driveway charger", c.Title)
	assert.True(t, c.Available)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		host   ulid.ULID
		mutate func(*charger.Input)
		field  string
	}{
		{name: "zero host", host: ulid.ULID{}, mutate: func(*charger.Input) {}, field: "host_id"},
		{name: "blank title", mutate: func(in *charger.Input) { in.Title = "   " }, field: "title"},
		{name: "long title", mutate: func(in *charger.Input) { in.Title = strings.Repeat("x", charger.MaxTitleLength+1) }, field: "title"},
		{name: "invalid utf8 title", mutate: func(in *charger.Input) { in.Title = "\xff\xfe" }, field: "title"},
		{name: "long address", mutate: func(in *charger.Input) { in.Address = strings.Repeat("a", charger.MaxAddressLength+1) }, field: "address"},
		{name: "latitude out of range", mutate: func(in *charger.Input) { in.Latitude = 91 }, field: "latitude"},
		{name: "longitude out of range", mutate: func(in *charger.Input) { in.Longitude = -181 }, field: "longitude"},
		{name: "negative power", mutate: func(in *charger.Input) { in.PowerKW = -1 }, field: "power_kw"},
		{name: "negative price", mutate: func(in *charger.Input) { in.PricePerHourCents = -1 }, field: "price_per_hour_cents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := tt.host
			if tt.name != "zero host" {
				host = ulid.Make()
			}
			in := validInput()
			tt.mutate(&in)

			_, err := charger.New(host, in, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, charger.ErrInvalid)

			var verr *charger.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestListFilter_Matches(t *testing.T) {
	host := ulid.Make()
	available := &charger.Charger{HostID: host, Available: true}
	busy := &charger.Charger{HostID: ulid.Make(), Available: false}

	assert.True(t, charger.ListFilter{}.Matches(available))
	assert.True(t, charger.ListFilter{}.Matches(busy))
	assert.True(t, charger.ListFilter{AvailableOnly: true}.Matches(available))
	assert.False(t, charger.ListFilter{AvailableOnly: true}.Matches(busy))
	assert.True(t, charger.ListFilter{HostID: host}.Matches(available))
	assert.False(t, charger.ListFilter{HostID: host}.Matches(busy))
}
