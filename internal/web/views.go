// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"time"

	"github.com/chargeshare/chargeshare/internal/auth"
)

// IdentityView is the public shape of an identity.
type IdentityView struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	Verified           bool      `json:"verified"`
	WalletBalanceCents int64     `json:"wallet_balance_cents"`
	CarbonCredits      int64     `json:"carbon_credits"`
	CreatedAt          time.Time `json:"created_at"`
}

func identityView(i *auth.Identity) IdentityView {
	return IdentityView{
		ID:                 i.ID.String(),
		Email:              i.Email,
		Name:               i.Name,
		Role:               string(i.Role),
		Verified:           i.Verified,
		WalletBalanceCents: i.WalletBalanceCents,
		CarbonCredits:      i.CarbonCredits,
		CreatedAt:          i.CreatedAt,
	}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Identity IdentityView `json:"identity"`
	Token    string       `json:"token"`
}

// SessionView describes one active device.
type SessionView struct {
	ID             string    `json:"id"`
	UserAgent      string    `json:"user_agent"`
	IPAddress      string    `json:"ip_address"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Current        bool      `json:"current"`
}

func sessionViews(sessions []*auth.Session, current *auth.Session) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionView{
			ID:             s.ID.String(),
			UserAgent:      s.UserAgent,
			IPAddress:      s.IPAddress,
			CreatedAt:      s.CreatedAt,
			LastAccessedAt: s.LastAccessedAt,
			ExpiresAt:      s.ExpiresAt,
			Current:        current != nil && s.ID == current.ID,
		})
	}
	return out
}
