// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package charger models the EV chargers hosts list for rent.
package charger

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// Validation limits.
const (
	MaxTitleLength         = 100
	MaxAddressLength       = 500
	MaxConnectorTypeLength = 50
)

var (
	// ErrNotFound is returned by repositories when a charger does not exist.
	ErrNotFound = errors.New("charger not found")
	// ErrInvalid is wrapped by every ValidationError.
	ErrInvalid = errors.New("invalid charger")
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Charger is a charging point owned by a host identity.
type Charger struct {
	ID                ulid.ULID `json:"id"`
	HostID            ulid.ULID `json:"host_id"`
	Title             string    `json:"title"`
	Address           string    `json:"address"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	PowerKW           float64   `json:"power_kw"`
	PricePerHourCents int64     `json:"price_per_hour_cents"`
	ConnectorType     string    `json:"connector_type"`
	Available         bool      `json:"available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// OwnerID returns the hosting identity.
func (c *Charger) OwnerID() ulid.ULID { return c.HostID }

// Input holds the caller-supplied fields of a new charger.
type Input struct {
	Title             string  `json:"title"`
	Address           string  `json:"address"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	PowerKW           float64 `json:"power_kw"`
	PricePerHourCents int64   `json:"price_per_hour_cents"`
	ConnectorType     string  `json:"connector_type"`
}

// New validates in and returns an available charger owned by hostID.
func New(hostID ulid.ULID, in Input, now time.Time) (*Charger, error) {
	if hostID.IsZero() {
		return nil, &ValidationError{Field: "host_id", Message: "cannot be empty"}
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	in.ConnectorType = strings.TrimSpace(in.ConnectorType)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return &Charger{
		ID:                ulid.Make(),
		HostID:            hostID,
		Title:             in.Title,
		Address:           in.Address,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		PowerKW:           in.PowerKW,
		PricePerHourCents: in.PricePerHourCents,
		ConnectorType:     in.ConnectorType,
		Available:         true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Validate checks field ranges.
func (in Input) Validate() error {
	switch {
	case in.Title == "":
		return &ValidationError{Field: "title", Message: "cannot be empty"}
	case !utf8.ValidString(in.Title):
		return &ValidationError{Field: "title", Message: "must be valid UTF-8"}
	case len(in.Title) > MaxTitleLength:
		return &ValidationError{Field: "title", Message: fmt.Sprintf("exceeds maximum length of %d", MaxTitleLength)}
	case len(in.Address) > MaxAddressLength:
		return &ValidationError{Field: "address", Message: fmt.Sprintf("exceeds maximum length of %d", MaxAddressLength)}
	case len(in.ConnectorType) > MaxConnectorTypeLength:
		return &ValidationError{Field: "connector_type", Message: fmt.Sprintf("exceeds maximum length of %d", MaxConnectorTypeLength)}
	case in.Latitude < -90 || in.Latitude > 90:
		return &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	case in.Longitude < -180 || in.Longitude > 180:
		return &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	case in.PowerKW < 0:
		return &ValidationError{Field: "power_kw", Message: "cannot be negative"}
	case in.PricePerHourCents < 0:
		return &ValidationError{Field: "price_per_hour_cents", Message: "cannot be negative"}
	}
	return nil
}
