package auth_test

import (
	"github.com/frahmantamala/storefront/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("BcryptHasher", func() {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	It("should verify the original password", func() {
		hash, err := hasher.Hash("dogs-are-neat")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(Equal("dogs-are-neat"))

		ok, err := hasher.Verify("dogs-are-neat", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("should report a mismatch without an error", func() {
		hash, err := hasher.Hash("dogs-are-neat")
		Expect(err).NotTo(HaveOccurred())

		ok, err := hasher.Verify("cats-are-neat", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should salt every hash", func() {
		a, _ := hasher.Hash("same")
		b, _ := hasher.Hash("same")
		Expect(a).NotTo(Equal(b))
	})

	It("should error on a malformed stored hash", func() {
		_, err := hasher.Verify("whatever", "not-a-bcrypt-hash")
		Expect(err).To(HaveOccurred())
	})

	It("should fall back to the default cost when out of range", func() {
		hash, err := auth.NewBcryptHasher(99).Hash("x")
		Expect(err).NotTo(HaveOccurred())
		cost, err := bcrypt.Cost([]byte(hash))
		Expect(err).NotTo(HaveOccurred())
		Expect(cost).To(Equal(bcrypt.DefaultCost))
	})
})
