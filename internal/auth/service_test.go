package auth_test

import (
	"context"
	"time"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/internal/core/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Session Service", func() {
	var (
		ctx       context.Context
		repo      *MockRepository
		tokens    *auth.JWTTokenGenerator
		publisher *recordingPublisher
		service   *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		tokens = auth.NewJWTTokenGenerator("test-secret", time.Hour, time.Hour)
		publisher = &recordingPublisher{}
		service = auth.NewService(repo, auth.NewBcryptHasher(bcrypt.MinCost), tokens, publisher, quietLogger())
	})

	signup := func(email, password string) (*auth.User, string, error) {
		return service.Signup(ctx, auth.SignupDTO{Email: email, Name: "Wes", Password: password})
	}

	Describe("Signup", func() {
		It("should create a USER principal with a lowercased email", func() {
			user, token, err := signup("  Wes@Example.COM ", "dogs-are-neat")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("wes@example.com"))
			Expect(user.Permissions).To(Equal([]permission.Permission{permission.User}))
			Expect(user.PasswordHash).NotTo(Equal("dogs-are-neat"))

			id, err := tokens.VerifySession(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(user.ID))
			Expect(publisher.Types()).To(ContainElement(events.EventTypeUserSignedUp))
		})

		It("should reject an email taken in another case", func() {
			_, _, err := signup("wes@example.com", "dogs-are-neat")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = signup("WES@example.com", "other-password")
			Expect(err).To(MatchError(errs.ErrEmailTaken))
			Expect(errs.IsType(err, errs.ErrorTypeValidation)).To(BeTrue())
		})

		It("should reject invalid input before touching storage", func() {
			repo.SetShouldFail(true, errStorageDown)

			_, _, err := signup("not-an-email", "dogs-are-neat")
			Expect(errs.IsType(err, errs.ErrorTypeValidation)).To(BeTrue())

			_, _, err = signup("wes@example.com", "short")
			Expect(errs.IsType(err, errs.ErrorTypeValidation)).To(BeTrue())
		})

		It("should report storage failures as upstream errors", func() {
			repo.SetShouldFail(true, errStorageDown)

			_, _, err := signup("wes@example.com", "dogs-are-neat")
			Expect(errs.IsType(err, errs.ErrorTypeUpstream)).To(BeTrue())
		})
	})

	Describe("Signin", func() {
		BeforeEach(func() {
			_, _, err := signup("wes@example.com", "dogs-are-neat")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should issue a session for valid credentials", func() {
			user, token, err := service.Signin(ctx, auth.SigninDTO{Email: "Wes@example.com", Password: "dogs-are-neat"})
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(user.Email).To(Equal("wes@example.com"))
			Expect(publisher.Types()).To(ContainElement(events.EventTypeUserSignedIn))
		})

		It("should distinguish an unknown email", func() {
			_, _, err := service.Signin(ctx, auth.SigninDTO{Email: "nobody@example.com", Password: "dogs-are-neat"})
			Expect(err).To(MatchError(errs.ErrUserNotFound))
		})

		It("should reject a wrong password", func() {
			_, _, err := service.Signin(ctx, auth.SigninDTO{Email: "wes@example.com", Password: "cats-are-neat"})
			Expect(err).To(MatchError(errs.ErrInvalidCredentials))
		})
	})

	Describe("Signout", func() {
		It("should be a no-op for anonymous callers", func() {
			service.Signout(ctx)
			Expect(publisher.Types()).To(BeEmpty())
		})

		It("should record the signed-in principal", func() {
			user, _, err := signup("wes@example.com", "dogs-are-neat")
			Expect(err).NotTo(HaveOccurred())

			service.Signout(auth.ContextWithUser(ctx, user))
			Expect(publisher.Types()).To(ContainElement(events.EventTypeUserSignedOut))
		})
	})

	Describe("CurrentPrincipal", func() {
		It("should return nil without a token", func() {
			user, err := service.CurrentPrincipal(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(user).To(BeNil())
		})

		It("should resolve a valid token", func() {
			created, token, err := signup("wes@example.com", "dogs-are-neat")
			Expect(err).NotTo(HaveOccurred())

			user, err := service.CurrentPrincipal(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(created.ID))
		})

		It("should return nil for a principal that no longer exists", func() {
			token, err := tokens.SignSession("deleted-user")
			Expect(err).NotTo(HaveOccurred())

			user, err := service.CurrentPrincipal(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(user).To(BeNil())
		})

		It("should reject a forged token", func() {
			_, err := service.CurrentPrincipal(ctx, "forged")
			Expect(err).To(MatchError(errs.ErrInvalidToken))
		})
	})
})
