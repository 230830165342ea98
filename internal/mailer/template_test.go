package mailer_test

import (
	"github.com/frahmantamala/storefront/internal/mailer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reset email", func() {
	It("should build the frontend reset link", func() {
		link, err := mailer.ResetLink("https://shop.example.com/", "abc123")
		Expect(err).NotTo(HaveOccurred())
		Expect(link).To(Equal("https://shop.example.com/reset?resetToken=abc123"))
	})

	It("should keep a frontend base path", func() {
		link, err := mailer.ResetLink("https://example.com/store", "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(link).To(Equal("https://example.com/store/reset?resetToken=t"))
	})

	It("should embed the link and sign-off in the HTML body", func() {
		body, err := mailer.RenderResetEmail("https://shop.example.com/reset?resetToken=abc123", "The Storefront Team")
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(ContainSubstring(`href="https://shop.example.com/reset?resetToken=abc123"`))
		Expect(body).To(ContainSubstring("Hello There!"))
		Expect(body).To(ContainSubstring("The Storefront Team"))
	})
})
