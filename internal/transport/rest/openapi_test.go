package rest_test

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/cart"
	"github.com/frahmantamala/storefront/internal/item"
	"github.com/frahmantamala/storefront/internal/transport/rest"
	"github.com/frahmantamala/storefront/internal/user"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const apiDocPath = "../../../api/openapi.yml"

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromFile(apiDocPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should be a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("should describe every mounted API route", func() {
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Dependencies{
			Auth:  &auth.Handler{},
			Items: &item.Handler{},
			Cart:  &cart.Handler{},
			Users: &user.Handler{},
		})

		var missing []string
		err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/v1/") {
				return nil
			}
			path := strings.TrimPrefix(route, "/api/v1")
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}
			pathItem := doc.Paths.Find(path)
			if pathItem == nil || pathItem.GetOperation(method) == nil {
				missing = append(missing, method+" "+route)
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(missing).To(BeEmpty())
	})
})
