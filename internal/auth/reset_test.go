package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/internal/mailer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Reset Service", func() {
	var (
		ctx       context.Context
		now       time.Time
		repo      *MockRepository
		hasher    *auth.BcryptHasher
		tokens    *auth.JWTTokenGenerator
		notifier  *recordingNotifier
		publisher *recordingPublisher
		service   *auth.ResetService
		user      *auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }

		repo = NewMockRepository()
		hasher = auth.NewBcryptHasher(bcrypt.MinCost)
		tokens = auth.NewJWTTokenGenerator("test-secret", time.Hour, time.Hour)
		tokens.Now = clock
		notifier = &recordingNotifier{}
		publisher = &recordingPublisher{}

		service = auth.NewResetService(repo, hasher, tokens, notifier, publisher, auth.ResetConfig{
			FrontendURL: "http://localhost:7777",
			SignOff:     "Sick Fits",
		}, quietLogger()).WithClock(clock)

		hash, err := hasher.Hash("old-password")
		Expect(err).NotTo(HaveOccurred())
		user = &auth.User{
			Email:        "wes@example.com",
			Name:         "Wes",
			PasswordHash: hash,
			Permissions:  []permission.Permission{permission.User},
		}
		Expect(repo.Create(ctx, user)).To(Succeed())
	})

	storedToken := func() string {
		stored := repo.stored(user.ID)
		Expect(stored.ResetToken).NotTo(BeNil())
		return *stored.ResetToken
	}

	complete := func(token, password, confirm string) (*auth.User, string, error) {
		return service.CompleteReset(ctx, auth.ResetPasswordDTO{
			ResetToken:      token,
			Password:        password,
			ConfirmPassword: confirm,
		})
	}

	Describe("RequestReset", func() {
		It("should store a token valid for one hour and mail the link", func() {
			resp, err := service.RequestReset(ctx, auth.RequestResetDTO{Email: "Wes@Example.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(Equal("Thanks!"))

			stored := repo.stored(user.ID)
			Expect(*stored.ResetToken).To(MatchRegexp(`^[0-9a-f]{56}$`))
			Expect(*stored.ResetTokenExpiry).To(Equal(now.Add(time.Hour)))

			sent := notifier.Sent()
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].To).To(Equal("wes@example.com"))
			Expect(sent[0].Subject).To(Equal(mailer.ResetSubject))
			Expect(sent[0].HTMLBody).To(ContainSubstring("http://localhost:7777/reset?resetToken=" + *stored.ResetToken))
			Expect(publisher.Types()).To(ContainElement(events.EventTypePasswordResetRequested))
		})

		It("should report an unknown email", func() {
			_, err := service.RequestReset(ctx, auth.RequestResetDTO{Email: "nobody@example.com"})
			Expect(err).To(MatchError(errs.ErrUserNotFound))
			Expect(notifier.Sent()).To(BeEmpty())
		})

		It("should keep the token when the email cannot be sent", func() {
			notifier.err = mailer.ErrQueueFull
			failures := 0
			service.OnNotifyFailure = func() { failures++ }

			resp, err := service.RequestReset(ctx, auth.RequestResetDTO{Email: "wes@example.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(Equal("Thanks!"))
			Expect(failures).To(Equal(1))
			Expect(repo.stored(user.ID).ResetToken).NotTo(BeNil())
		})

		It("should replace an earlier token", func() {
			_, err := service.RequestReset(ctx, auth.RequestResetDTO{Email: "wes@example.com"})
			Expect(err).NotTo(HaveOccurred())
			first := storedToken()

			_, err = service.RequestReset(ctx, auth.RequestResetDTO{Email: "wes@example.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(storedToken()).NotTo(Equal(first))

			_, _, err = complete(first, "new-password", "new-password")
			Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))
		})
	})

	Describe("CompleteReset", func() {
		var token string

		BeforeEach(func() {
			_, err := service.RequestReset(ctx, auth.RequestResetDTO{Email: "wes@example.com"})
			Expect(err).NotTo(HaveOccurred())
			token = storedToken()
		})

		It("should set the new password, clear the token and sign in", func() {
			got, session, err := complete(token, "new-password", "new-password")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))

			id, err := tokens.VerifySession(session)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(user.ID))

			stored := repo.stored(user.ID)
			Expect(stored.ResetToken).To(BeNil())
			Expect(stored.ResetTokenExpiry).To(BeNil())
			ok, err := hasher.Verify("new-password", stored.PasswordHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(publisher.Types()).To(ContainElement(events.EventTypePasswordResetCompleted))
		})

		It("should reject mismatched passwords without touching storage", func() {
			_, _, err := complete(token, "new-password", "other-password")
			Expect(err).To(MatchError(errs.ErrPasswordMismatch))
			Expect(repo.ConsumeCalls()).To(Equal(0))
			Expect(repo.stored(user.ID).ResetToken).NotTo(BeNil())
		})

		It("should reject a token used twice", func() {
			_, _, err := complete(token, "new-password", "new-password")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = complete(token, "another-password", "another-password")
			Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))
		})

		It("should reject an unknown token", func() {
			_, _, err := complete(strings.Repeat("0", 56), "new-password", "new-password")
			Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))
		})

		It("should not hash the password for a dead token", func() {
			counting := &countingHasher{PasswordHasher: hasher}
			service = auth.NewResetService(repo, counting, tokens, notifier, publisher, auth.ResetConfig{
				FrontendURL: "http://localhost:7777",
			}, quietLogger()).WithClock(func() time.Time { return now })

			_, _, err := complete(strings.Repeat("0", 56), "new-password", "new-password")
			Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))

			now = now.Add(2 * time.Hour)
			_, _, err = complete(token, "new-password", "new-password")
			Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))

			Expect(counting.Hashes()).To(Equal(0))
			Expect(repo.ConsumeCalls()).To(Equal(0))

			now = now.Add(-2 * time.Hour)
			_, _, err = complete(token, "new-password", "new-password")
			Expect(err).NotTo(HaveOccurred())
			Expect(counting.Hashes()).To(Equal(1))
		})

		It("should reject an expired token and keep the old password", func() {
			now = now.Add(time.Hour + time.Second)

			_, _, err := complete(token, "new-password", "new-password")
			Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))

			ok, err := hasher.Verify("old-password", repo.stored(user.ID).PasswordHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("should accept a token exactly at its expiry", func() {
			now = now.Add(time.Hour)

			_, _, err := complete(token, "new-password", "new-password")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report storage failures as upstream errors", func() {
			repo.SetShouldFail(true, errStorageDown)

			_, _, err := complete(token, "new-password", "new-password")
			Expect(errs.IsType(err, errs.ErrorTypeUpstream)).To(BeTrue())
			Expect(errors.Is(err, errStorageDown)).To(BeTrue())
		})

		It("should let exactly one of two concurrent completions succeed", func() {
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				results []error
			)
			for _, pw := range []string{"password-one", "password-two"} {
				wg.Add(1)
				go func(pw string) {
					defer GinkgoRecover()
					defer wg.Done()
					_, _, err := complete(token, pw, pw)
					mu.Lock()
					results = append(results, err)
					mu.Unlock()
				}(pw)
			}
			wg.Wait()

			var succeeded, rejected int
			for _, err := range results {
				if err == nil {
					succeeded++
				} else {
					Expect(err).To(MatchError(errs.ErrInvalidOrExpiredToken))
					rejected++
				}
			}
			Expect(succeeded).To(Equal(1))
			Expect(rejected).To(Equal(1))
		})
	})

	Describe("with a grace period", func() {
		It("should accept a token slightly past its expiry", func() {
			service = auth.NewResetService(repo, hasher, tokens, notifier, publisher, auth.ResetConfig{
				FrontendURL: "http://localhost:7777",
				Grace:       10 * time.Minute,
			}, quietLogger()).WithClock(func() time.Time { return now })

			_, err := service.RequestReset(ctx, auth.RequestResetDTO{Email: "wes@example.com"})
			Expect(err).NotTo(HaveOccurred())
			token := storedToken()

			now = now.Add(time.Hour + 5*time.Minute)
			_, _, err = complete(token, "new-password", "new-password")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
