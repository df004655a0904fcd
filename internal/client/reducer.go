package client

// Action is anything the store can apply. The concrete types are the only
// way state changes.
type Action interface {
	isAction()
}

type Phase int

const (
	PhaseRequest Phase = iota
	PhaseSuccess
	PhaseFail
	PhaseReset
)

// Slice names one AsyncState field of State.
type Slice int

const (
	SliceUserLogin Slice = iota
	SliceUserRegister
	SliceUserDetails
	SliceUserUpdateProfile
	SliceUserList
	SliceUserDelete
	SliceUserUpdate
	SliceProductList
	SliceProductDetails
	SliceProductTop
	SliceProductCreate
	SliceProductUpdate
	SliceProductDelete
	SliceProductReview
	SliceOrderCreate
	SliceOrderDetails
	SliceOrderPay
	SliceOrderDeliver
	SliceOrderListMy
	SliceOrderList
)

// AsyncAction moves one slice through the request lifecycle. Payload must be
// of the slice's data type on PhaseSuccess; Err is used on PhaseFail.
type AsyncAction struct {
	Slice   Slice
	Phase   Phase
	Payload any
	Err     string
}

func (AsyncAction) isAction() {}

func Request(slice Slice) AsyncAction { return AsyncAction{Slice: slice, Phase: PhaseRequest} }

func Success(slice Slice, payload any) AsyncAction {
	return AsyncAction{Slice: slice, Phase: PhaseSuccess, Payload: payload}
}

func Fail(slice Slice, err error) AsyncAction {
	return AsyncAction{Slice: slice, Phase: PhaseFail, Err: ErrorMessage(err)}
}

func Reset(slice Slice) AsyncAction { return AsyncAction{Slice: slice, Phase: PhaseReset} }

// LoggedOut signs the user out locally and drops every slice tied to them.
type LoggedOut struct{}

func (LoggedOut) isAction() {}

func reduceAsync[T any](s AsyncState[T], a AsyncAction) AsyncState[T] {
	switch a.Phase {
	case PhaseRequest:
		return AsyncState[T]{Loading: true, Data: s.Data}
	case PhaseSuccess:
		data, _ := a.Payload.(T)
		return AsyncState[T]{Success: true, Data: data}
	case PhaseFail:
		return AsyncState[T]{Error: a.Err}
	default:
		return AsyncState[T]{}
	}
}

// Reduce returns the state after a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AsyncAction:
		return reduceSlice(s, a)
	case LoggedOut:
		s.UserLogin = reduceAsync(s.UserLogin, Reset(SliceUserLogin))
		s.UserDetails = reduceAsync(s.UserDetails, Reset(SliceUserDetails))
		s.OrderListMy = reduceAsync(s.OrderListMy, Reset(SliceOrderListMy))
		s.UserList = reduceAsync(s.UserList, Reset(SliceUserList))
		return s
	default:
		s.Cart = reduceCart(s.Cart, a)
		return s
	}
}

func reduceSlice(s State, a AsyncAction) State {
	switch a.Slice {
	case SliceUserLogin:
		s.UserLogin = reduceAsync(s.UserLogin, a)
	case SliceUserRegister:
		s.UserRegister = reduceAsync(s.UserRegister, a)
	case SliceUserDetails:
		s.UserDetails = reduceAsync(s.UserDetails, a)
	case SliceUserUpdateProfile:
		s.UserUpdateProfile = reduceAsync(s.UserUpdateProfile, a)
	case SliceUserList:
		s.UserList = reduceAsync(s.UserList, a)
	case SliceUserDelete:
		s.UserDelete = reduceAsync(s.UserDelete, a)
	case SliceUserUpdate:
		s.UserUpdate = reduceAsync(s.UserUpdate, a)
	case SliceProductList:
		s.ProductList = reduceAsync(s.ProductList, a)
	case SliceProductDetails:
		s.ProductDetails = reduceAsync(s.ProductDetails, a)
	case SliceProductTop:
		s.ProductTop = reduceAsync(s.ProductTop, a)
	case SliceProductCreate:
		s.ProductCreate = reduceAsync(s.ProductCreate, a)
	case SliceProductUpdate:
		s.ProductUpdate = reduceAsync(s.ProductUpdate, a)
	case SliceProductDelete:
		s.ProductDelete = reduceAsync(s.ProductDelete, a)
	case SliceProductReview:
		s.ProductReview = reduceAsync(s.ProductReview, a)
	case SliceOrderCreate:
		s.OrderCreate = reduceAsync(s.OrderCreate, a)
	case SliceOrderDetails:
		s.OrderDetails = reduceAsync(s.OrderDetails, a)
	case SliceOrderPay:
		s.OrderPay = reduceAsync(s.OrderPay, a)
	case SliceOrderDeliver:
		s.OrderDeliver = reduceAsync(s.OrderDeliver, a)
	case SliceOrderListMy:
		s.OrderListMy = reduceAsync(s.OrderListMy, a)
	case SliceOrderList:
		s.OrderList = reduceAsync(s.OrderList, a)
	}
	return s
}
