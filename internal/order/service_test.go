package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]*Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) FindByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) MarkPaid(ctx context.Context, id string, result PaymentResult, at time.Time) (bool, error) {
	args := m.Called(ctx, id, result, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetByID(ctx context.Context, id string) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type stubVerifier struct {
	capture *payment.Capture
	err     error
	calls   int
}

func (s *stubVerifier) Verify(ctx context.Context, r payment.Receipt) (*payment.Capture, error) {
	s.calls++
	return s.capture, s.err
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *MockRepository
	catalog  *MockCatalog
	users    *MockDirectory
	verifier *stubVerifier
	svc      *service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		catalog:  new(MockCatalog),
		users:    new(MockDirectory),
		verifier: &stubVerifier{},
	}
	policy := Policy{TaxRate: 0.15, FreeShippingThreshold: 100, ShippingPrice: 100, Currency: "USD"}
	f.svc = NewService(f.repo, f.catalog, f.users, f.verifier, policy).(*service)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

var (
	owner    = auth.Identity{UserID: "u1", Name: "Alice"}
	stranger = auth.Identity{UserID: "u2", Name: "Bob"}
	admin    = auth.Identity{UserID: "admin", Name: "Admin", IsAdmin: true}

	validAddress = ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("SnapshotsCatalogAndPrices", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("GetByID", ctx, "p1").Return(&product.Product{ID: "p1", Name: "Airpods", Image: "/a.jpg", Price: 89.99}, nil)
		f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { args.Get(1).(*Order).ID = "o1" }).
			Return(nil)

		o, err := f.svc.Create(ctx, owner, CreateParams{
			OrderItems:      []ItemInput{{Product: "p1", Qty: 1}},
			ShippingAddress: validAddress,
			PaymentMethod:   "PayPal",
		})
		require.NoError(t, err)

		assert.Equal(t, "o1", o.ID)
		assert.Equal(t, "u1", o.User)
		require.Len(t, o.OrderItems, 1)
		assert.Equal(t, OrderItem{Name: "Airpods", Qty: 1, Image: "/a.jpg", Price: 89.99, Product: "p1"}, o.OrderItems[0])
		assert.Equal(t, 89.99, o.ItemsPrice)
		assert.Equal(t, 100.0, o.ShippingPrice)
		assert.Equal(t, 13.5, o.TaxPrice)
		assert.Equal(t, 203.49, o.TotalPrice)
		assert.False(t, o.IsPaid)
		assert.Nil(t, o.PaidAt)
		assert.False(t, o.IsDelivered)
	})

	t.Run("Empty", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, owner, CreateParams{ShippingAddress: validAddress, PaymentMethod: "PayPal"})
		assert.ErrorIs(t, err, ErrEmptyOrder)
		assert.Equal(t, apperr.KindEmptyOrder, apperr.KindOf(err))
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		f := newFixture()
		cases := map[string]CreateParams{
			"ZeroQty":       {OrderItems: []ItemInput{{Product: "p1", Qty: 0}}, ShippingAddress: validAddress, PaymentMethod: "PayPal"},
			"NoProduct":     {OrderItems: []ItemInput{{Qty: 1}}, ShippingAddress: validAddress, PaymentMethod: "PayPal"},
			"NoAddress":     {OrderItems: []ItemInput{{Product: "p1", Qty: 1}}, PaymentMethod: "PayPal"},
			"NoPaymentKind": {OrderItems: []ItemInput{{Product: "p1", Qty: 1}}, ShippingAddress: validAddress},
		}
		for name, params := range cases {
			_, err := f.svc.Create(ctx, owner, params)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), name)
		}
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("GetByID", ctx, "gone").Return(nil, product.ErrProductNotFound)

		_, err := f.svc.Create(ctx, owner, CreateParams{
			OrderItems:      []ItemInput{{Product: "gone", Qty: 1}},
			ShippingAddress: validAddress,
			PaymentMethod:   "PayPal",
		})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()
	order := &Order{ID: "o1", User: "u1"}

	t.Run("Owner", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(order, nil)
		f.users.On("GetByID", ctx, "u1").Return(&user.User{ID: "u1", Name: "Alice", Email: "a@x.com"}, nil)

		v, err := f.svc.GetByID(ctx, owner, "o1")
		require.NoError(t, err)
		assert.Equal(t, Customer{ID: "u1", Name: "Alice", Email: "a@x.com"}, v.User)
		assert.Equal(t, "o1", v.ID)
	})

	t.Run("Admin", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(order, nil)
		f.users.On("GetByID", ctx, "u1").Return(nil, user.ErrUserNotFound)

		v, err := f.svc.GetByID(ctx, admin, "o1")
		require.NoError(t, err)
		assert.Equal(t, Customer{ID: "u1"}, v.User)
	})

	t.Run("Stranger", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(order, nil)

		_, err := f.svc.GetByID(ctx, stranger, "o1")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o9").Return(nil, ErrOrderNotFound)

		_, err := f.svc.GetByID(ctx, owner, "o9")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestService_ListAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.repo.On("ListAll", ctx).Return([]*Order{{ID: "o2", User: "u1"}, {ID: "o1", User: "u1"}}, nil)
	f.users.On("GetByID", ctx, "u1").Return(&user.User{ID: "u1", Name: "Alice", Email: "a@x.com"}, nil).Once()

	views, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, Customer{ID: "u1", Name: "Alice"}, views[1].User)
	f.users.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestService_ListMine(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("ListByUser", ctx, "u1").Return([]*Order{{ID: "o2"}, {ID: "o1"}}, nil)

	orders, err := f.svc.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "o2", orders[0].ID)
}

func completedCapture(amount string) *payment.Capture {
	return &payment.Capture{
		ID:           "PAY-1",
		Status:       payment.StatusCompleted,
		UpdateTime:   "2024-05-01T12:00:00Z",
		EmailAddress: "buyer@example.com",
		Amount:       decimal.RequireFromString(amount),
		Currency:     "USD",
		HasAmount:    true,
	}
}

func TestService_Pay(t *testing.T) {
	ctx := context.Background()
	receipt := payment.Receipt{ID: "PAY-1", Status: payment.StatusCompleted}
	unpaid := func() *Order { return &Order{ID: "o1", User: "u1", TotalPrice: 203.49} }

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = completedCapture("203.49")
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)
		f.repo.On("FindByPaymentID", ctx, "PAY-1").Return(nil, ErrOrderNotFound)
		f.repo.On("MarkPaid", ctx, "o1", PaymentResult{
			ID:           "PAY-1",
			Status:       "COMPLETED",
			UpdateTime:   "2024-05-01T12:00:00Z",
			EmailAddress: "buyer@example.com",
		}, fixedNow).Return(true, nil)

		o, err := f.svc.Pay(ctx, owner, "o1", receipt)
		require.NoError(t, err)
		assert.True(t, o.IsPaid)
		require.NotNil(t, o.PaidAt)
		assert.Equal(t, fixedNow, *o.PaidAt)
		assert.Equal(t, "PAY-1", o.PaymentResult.ID)
		assert.False(t, o.IsDelivered)
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		f := newFixture()
		paidAt := fixedNow.Add(-time.Hour)
		f.repo.On("FindByID", ctx, "o1").Return(&Order{ID: "o1", User: "u1", IsPaid: true, PaidAt: &paidAt}, nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
		assert.Zero(t, f.verifier.calls)
	})

	t.Run("LostRace", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = completedCapture("203.49")
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)
		f.repo.On("FindByPaymentID", ctx, "PAY-1").Return(nil, ErrOrderNotFound)
		f.repo.On("MarkPaid", ctx, "o1", mock.Anything, fixedNow).Return(false, nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
	})

	t.Run("Stranger", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)

		_, err := f.svc.Pay(ctx, stranger, "o1", receipt)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("AmountMismatch", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = completedCapture("1.00")
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrAmountMismatch)
		f.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AmountMissing", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = &payment.Capture{ID: "PAY-1", Status: payment.StatusCompleted}
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrPaymentAmountMissing)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = &payment.Capture{ID: "PAY-1", Status: "APPROVED"}
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = completedCapture("203.49")
		f.verifier.capture.Currency = "JPY"
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
		f.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReceiptAlreadyUsedByAnotherOrder", func(t *testing.T) {
		f := newFixture()
		f.svc.verifier = payment.NewVerifier("client", "", "sandbox")
		shared := payment.Receipt{
			ID:            "PAY-ONCE",
			Status:        payment.StatusCompleted,
			PurchaseUnits: []payment.PurchaseUnit{{Amount: payment.Amount{CurrencyCode: "USD", Value: "115"}}},
		}
		f.repo.On("FindByID", ctx, "o1").Return(&Order{ID: "o1", User: "u1", TotalPrice: 115}, nil)
		f.repo.On("FindByID", ctx, "o2").Return(&Order{ID: "o2", User: "u1", TotalPrice: 115}, nil)
		f.repo.On("FindByPaymentID", ctx, "PAY-ONCE").Return(nil, ErrOrderNotFound).Once()
		f.repo.On("MarkPaid", ctx, "o1", mock.Anything, fixedNow).Return(true, nil).Once()

		_, err := f.svc.Pay(ctx, owner, "o1", shared)
		require.NoError(t, err)

		f.repo.On("FindByPaymentID", ctx, "PAY-ONCE").Return(&Order{ID: "o1", User: "u1", IsPaid: true}, nil).Once()

		_, err = f.svc.Pay(ctx, owner, "o2", shared)
		assert.ErrorIs(t, err, ErrPaymentReused)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		f.repo.AssertNumberOfCalls(t, "MarkPaid", 1)
	})

	t.Run("ReceiptClaimedConcurrently", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = completedCapture("203.49")
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)
		f.repo.On("FindByPaymentID", ctx, "PAY-1").Return(nil, ErrOrderNotFound)
		f.repo.On("MarkPaid", ctx, "o1", mock.Anything, fixedNow).Return(false, ErrPaymentReused)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.ErrorIs(t, err, ErrPaymentReused)
	})

	t.Run("PaymentLookupFails", func(t *testing.T) {
		f := newFixture()
		f.verifier.capture = completedCapture("203.49")
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)
		f.repo.On("FindByPaymentID", ctx, "PAY-1").Return(nil, errors.New("db down"))

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		f.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("VerifierError", func(t *testing.T) {
		f := newFixture()
		f.verifier.err = errors.New("paypal down")
		f.repo.On("FindByID", ctx, "o1").Return(unpaid(), nil)

		_, err := f.svc.Pay(ctx, owner, "o1", receipt)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}

func TestService_Deliver(t *testing.T) {
	ctx := context.Background()
	paidAt := fixedNow.Add(-time.Hour)

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(&Order{ID: "o1", IsPaid: true, PaidAt: &paidAt}, nil)
		f.repo.On("MarkDelivered", ctx, "o1", fixedNow).Return(true, nil)

		o, err := f.svc.Deliver(ctx, "o1")
		require.NoError(t, err)
		assert.True(t, o.IsDelivered)
		assert.Equal(t, fixedNow, *o.DeliveredAt)
	})

	t.Run("Unpaid", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(&Order{ID: "o1"}, nil)

		_, err := f.svc.Deliver(ctx, "o1")
		assert.ErrorIs(t, err, ErrOrderNotPaid)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("AlreadyDelivered", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(&Order{ID: "o1", IsPaid: true, IsDelivered: true}, nil)

		_, err := f.svc.Deliver(ctx, "o1")
		assert.ErrorIs(t, err, ErrOrderAlreadyDelivered)
	})

	t.Run("DeletedMidway", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, "o1").Return(&Order{ID: "o1", IsPaid: true}, nil).Once()
		f.repo.On("MarkDelivered", ctx, "o1", fixedNow).Return(false, nil)
		f.repo.On("FindByID", ctx, "o1").Return(nil, ErrOrderNotFound).Once()

		_, err := f.svc.Deliver(ctx, "o1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestView_JSONShadowsOwnerID(t *testing.T) {
	v := View{Order: &Order{ID: "o1", User: "u1"}, User: Customer{ID: "u1", Name: "Alice"}}
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"user":{"_id":"u1","name":"Alice"}`)
}
