package auth_test

import (
	"context"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/core/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HasPermission", func() {
	It("should pass when any required permission is held", func() {
		u := &auth.User{Permissions: []permission.Permission{permission.User, permission.ItemDelete}}
		Expect(auth.HasPermission(u, permission.Admin, permission.ItemDelete)).To(Succeed())
	})

	It("should fail closed for an empty permission set", func() {
		u := &auth.User{}
		Expect(auth.HasPermission(u, permission.Admin)).To(MatchError(errs.ErrForbidden))
	})

	It("should fail for a nil principal", func() {
		Expect(auth.HasPermission(nil, permission.User)).To(MatchError(errs.ErrForbidden))
	})

	It("should pass an empty requirement", func() {
		Expect(auth.HasPermission(&auth.User{})).To(Succeed())
	})

	It("should not treat ADMIN as implying other permissions", func() {
		u := &auth.User{Permissions: []permission.Permission{permission.Admin}}
		Expect(auth.HasPermission(u, permission.ItemDelete)).To(MatchError(errs.ErrForbidden))
	})
})

var _ = Describe("Gate", func() {
	var (
		gate  *auth.Gate
		owner *auth.User
		admin *auth.User
		other *auth.User
	)

	BeforeEach(func() {
		gate = auth.NewGate(quietLogger())
		owner = &auth.User{ID: "owner", Permissions: []permission.Permission{permission.User}}
		admin = &auth.User{ID: "admin", Permissions: []permission.Permission{permission.User, permission.Admin}}
		other = &auth.User{ID: "other", Permissions: []permission.Permission{permission.User}}
	})

	ownedBy := func(id string) auth.OwnerFunc {
		return func(context.Context) (string, error) { return id, nil }
	}

	deleteItem := func(ctx context.Context, mutated *bool) error {
		_, err := auth.Guarded(ctx, gate, auth.Requirement{
			Action: "deleteItem",
			AnyOf:  []permission.Permission{permission.Admin, permission.ItemDelete},
			Owner:  ownedBy("owner"),
		}, func(ctx context.Context, _ *auth.User) (struct{}, error) {
			*mutated = true
			return struct{}{}, nil
		})
		return err
	}

	It("should reject anonymous callers before mutating", func() {
		mutated := false
		err := deleteItem(context.Background(), &mutated)
		Expect(err).To(MatchError(errs.ErrUnauthenticated))
		Expect(mutated).To(BeFalse())
	})

	It("should let the owner through", func() {
		mutated := false
		Expect(deleteItem(auth.ContextWithUser(context.Background(), owner), &mutated)).To(Succeed())
		Expect(mutated).To(BeTrue())
	})

	It("should let an override permission through", func() {
		mutated := false
		Expect(deleteItem(auth.ContextWithUser(context.Background(), admin), &mutated)).To(Succeed())
		Expect(mutated).To(BeTrue())
	})

	It("should reject a non-owner without an override", func() {
		mutated := false
		err := deleteItem(auth.ContextWithUser(context.Background(), other), &mutated)
		Expect(err).To(MatchError(errs.ErrNotOwner))
		Expect(errs.IsType(err, errs.ErrorTypeForbidden)).To(BeTrue())
		Expect(mutated).To(BeFalse())
	})

	It("should surface owner lookup failures unchanged", func() {
		_, err := gate.Authorize(auth.ContextWithUser(context.Background(), admin), auth.Requirement{
			Action: "deleteItem",
			AnyOf:  []permission.Permission{permission.Admin},
			Owner: func(context.Context) (string, error) {
				return "", errs.ErrItemNotFound
			},
		})
		Expect(err).To(MatchError(errs.ErrItemNotFound))
	})

	It("should treat an empty override list as owner only", func() {
		_, err := gate.Authorize(auth.ContextWithUser(context.Background(), admin), auth.Requirement{
			Action: "removeFromCart",
			Owner:  ownedBy("owner"),
		})
		Expect(err).To(MatchError(errs.ErrNotOwner))
	})

	It("should require a permission when there is no owner", func() {
		req := auth.Requirement{
			Action: "updatePermissions",
			AnyOf:  []permission.Permission{permission.Admin, permission.PermissionUpdate},
		}

		_, err := gate.Authorize(auth.ContextWithUser(context.Background(), other), req)
		Expect(err).To(MatchError(errs.ErrForbidden))

		principal, err := gate.Authorize(auth.ContextWithUser(context.Background(), admin), req)
		Expect(err).NotTo(HaveOccurred())
		Expect(principal.ID).To(Equal("admin"))
	})

	It("should only require sign-in for an empty requirement", func() {
		principal, err := gate.Authorize(auth.ContextWithUser(context.Background(), other), auth.Requirement{Action: "createItem"})
		Expect(err).NotTo(HaveOccurred())
		Expect(principal).To(Equal(other))
	})
})
