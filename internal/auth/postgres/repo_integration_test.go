// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/auth/postgres"
)

var _ = Describe("Auth repositories", func() {
	var (
		ctx        context.Context
		identities *postgres.IdentityRepository
		sessions   *postgres.SessionRepository
		now        time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		identities = postgres.NewIdentityRepository(pool)
		sessions = postgres.NewSessionRepository(pool)
		now = time.Now().UTC().Truncate(time.Microsecond)

		_, err := pool.Exec(ctx, `TRUNCATE identities CASCADE`)
		Expect(err).NotTo(HaveOccurred())
	})

	newIdentity := func(email string) *auth.Identity {
		identity, err := auth.NewIdentity(email, "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", "Test", auth.RoleDriver, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(identities.Create(ctx, identity)).To(Succeed())
		return identity
	}

	newSession := func(identity *auth.Identity, hash string, expiresAt time.Time) *auth.Session {
		session, err := auth.NewSession(identity.ID, auth.NewSessionNonce(), hash,
			auth.Device{UserAgent: "ginkgo", IPAddress: "127.0.0.1"}, expiresAt, now.Add(-time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions.Create(ctx, session)).To(Succeed())
		return session
	}

	Describe("IdentityRepository", func() {
		It("round-trips an identity", func() {
			identity := newIdentity("ada@example.com")

			got, err := identities.GetByID(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Email).To(Equal("ada@example.com"))
			Expect(got.Role).To(Equal(auth.RoleDriver))
			Expect(got.LockedUntil).To(BeNil())
		})

		It("finds identities by email regardless of case", func() {
			identity := newIdentity("ada@example.com")

			got, err := identities.GetByEmail(ctx, "ADA@Example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(identity.ID))
		})

		It("rejects a duplicate email", func() {
			newIdentity("ada@example.com")

			dup, err := auth.NewIdentity("Ada@example.com", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", "Dup", auth.RoleHost, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(identities.Create(ctx, dup)).To(MatchError(auth.ErrEmailTaken))
		})

		It("persists lockout state on update", func() {
			identity := newIdentity("ada@example.com")
			locked := now.Add(15 * time.Minute)
			identity.FailedAttempts = 7
			identity.LockedUntil = &locked

			Expect(identities.Update(ctx, identity)).To(Succeed())

			got, err := identities.GetByID(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.FailedAttempts).To(Equal(7))
			Expect(got.LockedUntil).NotTo(BeNil())
			Expect(got.LockedUntil.Equal(locked)).To(BeTrue())
		})

		It("counts every concurrent login failure", func() {
			identity := newIdentity("ada@example.com")

			var wg sync.WaitGroup
			for range auth.LockoutThreshold {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, _, err := identities.RecordFailure(ctx, identity.ID, now)
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			got, err := identities.GetByID(ctx, identity.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.FailedAttempts).To(Equal(auth.LockoutThreshold))
			Expect(got.LockedUntil).NotTo(BeNil())
			Expect(got.LockedUntil.Equal(now.Add(auth.LockoutDuration))).To(BeTrue())
		})

		It("reports a failure for a missing identity as not found", func() {
			_, _, err := identities.RecordFailure(ctx, ulid.Make(), now)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("SessionRepository", func() {
		It("returns only live sessions by token hash", func() {
			identity := newIdentity("ada@example.com")
			live := newSession(identity, "live-hash", now.Add(time.Hour))
			newSession(identity, "dead-hash", now.Add(-time.Minute))

			got, err := sessions.GetLiveByTokenHash(ctx, "live-hash", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(live.ID))
			Expect(got.Nonce).To(Equal(live.Nonce))

			_, err = sessions.GetLiveByTokenHash(ctx, "dead-hash", now)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("rejects a duplicate token hash", func() {
			identity := newIdentity("ada@example.com")
			newSession(identity, "same-hash", now.Add(time.Hour))

			dup, err := auth.NewSession(identity.ID, auth.NewSessionNonce(), "same-hash", auth.Device{}, now.Add(time.Hour), now)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(ctx, dup)).NotTo(Succeed())
		})

		It("touches last access time", func() {
			identity := newIdentity("ada@example.com")
			session := newSession(identity, "hash", now.Add(time.Hour))

			later := now.Add(5 * time.Minute)
			Expect(sessions.Touch(ctx, session.ID, later)).To(Succeed())

			got, err := sessions.GetLiveByTokenHash(ctx, "hash", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.LastAccessedAt.Equal(later)).To(BeTrue())
		})

		It("sweeps only expired sessions", func() {
			identity := newIdentity("ada@example.com")
			newSession(identity, "live", now.Add(time.Hour))
			newSession(identity, "dead-1", now.Add(-time.Minute))
			newSession(identity, "dead-2", now.Add(-time.Hour/2))

			n, err := sessions.DeleteExpired(ctx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))

			_, err = sessions.GetLiveByTokenHash(ctx, "live", now)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps a session expiring exactly at the sweep instant", func() {
			identity := newIdentity("ada@example.com")
			newSession(identity, "boundary", now)
			newSession(identity, "dead", now.Add(-time.Minute))

			n, err := sessions.DeleteExpired(ctx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			n, err = sessions.DeleteExpired(ctx, now.Add(time.Microsecond))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)), "boundary row goes once now has passed it")
		})

		It("is a no-op when repeated at the same instant", func() {
			identity := newIdentity("ada@example.com")
			newSession(identity, "live", now.Add(time.Hour))
			newSession(identity, "dead", now.Add(-time.Minute))

			n, err := sessions.DeleteExpired(ctx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			n, err = sessions.DeleteExpired(ctx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("lists and deletes sessions by identity", func() {
			identity := newIdentity("ada@example.com")
			other := newIdentity("bob@example.com")
			newSession(identity, "a", now.Add(time.Hour))
			newSession(identity, "b", now.Add(time.Hour))
			newSession(other, "c", now.Add(time.Hour))

			listed, err := sessions.ListByIdentity(ctx, identity.ID, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(2))

			Expect(sessions.DeleteByIdentity(ctx, identity.ID)).To(Succeed())
			listed, err = sessions.ListByIdentity(ctx, identity.ID, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeEmpty())

			_, err = sessions.GetLiveByTokenHash(ctx, "c", now)
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes by token hash idempotently", func() {
			identity := newIdentity("ada@example.com")
			newSession(identity, "hash", now.Add(time.Hour))

			Expect(sessions.DeleteByTokenHash(ctx, "hash")).To(Succeed())
			Expect(sessions.DeleteByTokenHash(ctx, "hash")).To(Succeed())
		})

		It("cascades session removal when the identity goes away", func() {
			identity := newIdentity("ada@example.com")
			newSession(identity, "hash", now.Add(time.Hour))

			_, err := pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, identity.ID.String())
			Expect(err).NotTo(HaveOccurred())

			_, err = sessions.GetLiveByTokenHash(ctx, "hash", now)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
