package model

// Owner identifies whoever a cart or order belongs to: a signed-in user, a
// guest session, or both while a guest is logging in.
type Owner struct {
	UserID    string
	SessionID string
}

func (o Owner) Empty() bool {
	return o.UserID == "" && o.SessionID == ""
}

// OrderOwner returns the (user, guest session) pair stored on an order.
// Exactly one is non-nil; the user wins when both are known.
func (o Owner) OrderOwner() (*string, *string) {
	if o.UserID != "" {
		userID := o.UserID
		return &userID, nil
	}
	if o.SessionID != "" {
		sessionID := o.SessionID
		return nil, &sessionID
	}
	return nil, nil
}

type OrderEvent struct {
	OrderID     string      `json:"order_id"`
	OrderNo     string      `json:"order_no"`
	FoodCourtID string      `json:"food_court_id"`
	Status      OrderStatus `json:"status"`
	At          string      `json:"at"`
}

// Actor is the caller of an order operation.
type Actor struct {
	Owner
	Admin bool
}

// CanAccess folds ownership and the admin override into one check.
func (a Actor) CanAccess(o *Order) bool {
	return a.Admin || o.OwnedBy(a.UserID, a.SessionID)
}
