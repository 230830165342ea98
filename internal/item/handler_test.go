package item_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	cartDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/cart"
	itemDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/item"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/internal/item"
	itemPostgres "github.com/frahmantamala/storefront/internal/item/postgres"
	"github.com/frahmantamala/storefront/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Item Handler Integration", func() {
	var (
		router *chi.Mux
		caller *auth.User
	)

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&itemDatamodel.Item{}, &cartDatamodel.CartItem{})).To(Succeed())

		service := item.NewService(itemPostgres.NewItemRepository(db), auth.NewGate(quietLogger()), quietLogger())
		handler := item.NewHandler(service)
		handler.BaseHandler = transport.NewBaseHandler(quietLogger())

		caller = nil
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if caller != nil {
					r = r.WithContext(auth.ContextWithUser(r.Context(), caller))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/items", handler.ListItems)
		router.Get("/items/{id}", handler.GetItem)
		router.Post("/items", handler.CreateItem)
		router.Patch("/items/{id}", handler.UpdateItem)
		router.Delete("/items/{id}", handler.DeleteItem)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf).WithContext(context.Background())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	createAs := func(user *auth.User) *item.Item {
		caller = user
		w := do(http.MethodPost, "/items", map[string]interface{}{"title": "Hoodie", "description": "Warm", "price": 5000})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var it item.Item
		Expect(json.NewDecoder(w.Body).Decode(&it)).To(Succeed())
		return &it
	}

	owner := &auth.User{ID: "owner", Permissions: []permission.Permission{permission.User}}
	stranger := &auth.User{ID: "stranger", Permissions: []permission.Permission{permission.User}}
	admin := &auth.User{ID: "admin", Permissions: []permission.Permission{permission.User, permission.Admin}}

	It("should reject anonymous item creation with 401", func() {
		w := do(http.MethodPost, "/items", map[string]interface{}{"title": "Hoodie", "description": "Warm", "price": 5000})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should list created items publicly", func() {
		createAs(owner)
		caller = nil

		w := do(http.MethodGet, "/items?limit=10", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp item.ItemsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Total).To(Equal(int64(1)))
		Expect(resp.Items[0].Title).To(Equal("Hoodie"))
	})

	It("should return 404 for a missing item", func() {
		w := do(http.MethodGet, "/items/missing", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should forbid a stranger from deleting and leave the item in place", func() {
		it := createAs(owner)

		caller = stranger
		w := do(http.MethodDelete, "/items/"+it.ID, nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal(string(errs.ErrCodeNotOwner)))

		Expect(do(http.MethodGet, "/items/"+it.ID, nil).Code).To(Equal(http.StatusOK))
	})

	It("should let an admin delete another user's item", func() {
		it := createAs(owner)

		caller = admin
		w := do(http.MethodDelete, "/items/"+it.ID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/items/"+it.ID, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("should let the owner patch the price", func() {
		it := createAs(owner)

		w := do(http.MethodPatch, "/items/"+it.ID, map[string]interface{}{"price": 4200})
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated item.Item
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Price).To(Equal(int64(4200)))
	})
})
