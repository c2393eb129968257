package service

import (
	"context"
	"testing"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/model"
	"foodcourt-ordering/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_MergesIdenticalSelections(t *testing.T) {
	env := newTestEnv(t)
	dish := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00")
	ctx := context.Background()

	spicy := model.Customization{Group: "spice", Option: "hot", PriceModifier: dec("0.50")}
	large := model.Customization{Group: "size", Option: "large", PriceModifier: dec("1.00")}

	first, err := env.carts.AddItem(ctx, guest, "en", item(dish.ID, 2, spicy, large))
	require.NoError(t, err)
	merged, err := env.carts.AddItem(ctx, guest, "en", item(dish.ID, 1, large, spicy))
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)

	plain, err := env.carts.AddItem(ctx, guest, "en", item(dish.ID, 1))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, plain.ID)

	cart, err := env.carts.Get(ctx, guest, "en")
	require.NoError(t, err)
	assert.Equal(t, 4, cart.ItemCount)
	// 3 x 6.50 + 5.00
	assert.Equal(t, "24.50", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "24.50", cart.Total.StringFixed(2))
	require.Len(t, cart.Groups, 1)
	assert.Equal(t, env.catalog.Stall.Name, cart.Groups[0].StallName)
	assert.Len(t, cart.Groups[0].Items, 2)
}

func TestCart_GroupsByStall(t *testing.T) {
	env := newTestEnv(t)
	noodles := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00")
	rice := testutil.AddDish(t, env.db, env.catalog.OtherStall.ID, "3.00")
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, guest, "en", item(noodles.ID, 1))
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, guest, "en", item(rice.ID, 2))
	require.NoError(t, err)

	cart, err := env.carts.Get(ctx, guest, "en")
	require.NoError(t, err)
	require.Len(t, cart.Groups, 2)

	subtotals := map[string]string{}
	for _, g := range cart.Groups {
		subtotals[g.StallID] = g.Subtotal.StringFixed(2)
	}
	assert.Equal(t, "5.00", subtotals[env.catalog.Stall.ID])
	assert.Equal(t, "6.00", subtotals[env.catalog.OtherStall.ID])
	assert.Equal(t, "11.00", cart.Subtotal.StringFixed(2))

	// another session sees nothing
	other, err := env.carts.Get(ctx, stranger, "en")
	require.NoError(t, err)
	assert.Zero(t, other.ItemCount)
	assert.Empty(t, other.Groups)
}

func TestCart_Limits(t *testing.T) {
	env := newTestEnv(t)
	limited := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00", testutil.MaxPerOrder(2))
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, guest, "en", item(limited.ID, 3))
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeLimitExceeded)

	_, err = env.carts.AddItem(ctx, guest, "en", item(limited.ID, 2))
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, guest, "en", item(limited.ID, 1))
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeLimitExceeded)

	unlimited := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "1.00")
	_, err = env.carts.AddItem(ctx, guest, "en", item(unlimited.ID, defaultLineLimit+1))
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeLimitExceeded)

	// the test cart holds three lines
	for i := 0; i < 2; i++ {
		d := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "1.00")
		_, err = env.carts.AddItem(ctx, guest, "en", item(d.ID, 1))
		require.NoError(t, err)
	}
	extra := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "1.00")
	_, err = env.carts.AddItem(ctx, guest, "en", item(extra.ID, 1))
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeLimitExceeded)
}

func TestCart_AddRejections(t *testing.T) {
	env := newTestEnv(t)
	soldOut := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00", testutil.SoldOut)
	unavailable := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00", testutil.Unavailable)
	dish := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00")
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, guest, "en", item(soldOut.ID, 1))
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeSoldOut)
	_, err = env.carts.AddItem(ctx, guest, "en", item(unavailable.ID, 1))
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeSoldOut)
	_, err = env.carts.AddItem(ctx, guest, "en", item(uuid.NewString(), 1))
	requireAppErr(t, err, apperr.KindNotFound, apperr.CodeNotFound)
	_, err = env.carts.AddItem(ctx, guest, "en", item(dish.ID, 0))
	requireAppErr(t, err, apperr.KindValidation, apperr.CodeValidation)
	_, err = env.carts.AddItem(ctx, model.Owner{}, "en", item(dish.ID, 1))
	requireAppErr(t, err, apperr.KindUnauthorized, apperr.CodeUnauthenticated)
}

func TestCart_AddBatchReportsPerItem(t *testing.T) {
	env := newTestEnv(t)
	dish := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00")
	soldOut := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00", testutil.SoldOut)
	unknown := uuid.NewString()

	resp := env.carts.AddBatch(context.Background(), guest, "en", []*dto.Item{
		item(dish.ID, 1),
		item(soldOut.ID, 1),
		item(unknown, 1),
	})

	assert.Equal(t, 1, resp.TotalAdded)
	require.Len(t, resp.Added, 1)
	assert.Equal(t, dish.ID, resp.Added[0].DishID)

	require.Len(t, resp.Errors, 2)
	assert.Equal(t, &dto.BatchAddError{Index: 1, DishID: soldOut.ID, Code: apperr.CodeSoldOut, Message: "dish sold out or unavailable"}, resp.Errors[0])
	assert.Equal(t, 2, resp.Errors[1].Index)
	assert.Equal(t, apperr.CodeNotFound, resp.Errors[1].Code)
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	env := newTestEnv(t)
	dish := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00", testutil.MaxPerOrder(5))
	other := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "2.00")
	ctx := context.Background()

	line, err := env.carts.AddItem(ctx, guest, "en", item(dish.ID, 1))
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, guest, "en", item(other.ID, 1))
	require.NoError(t, err)

	updated, err := env.carts.UpdateQuantity(ctx, guest, line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = env.carts.UpdateQuantity(ctx, guest, line.ID, 6)
	requireAppErr(t, err, apperr.KindConflict, apperr.CodeLimitExceeded)
	_, err = env.carts.UpdateQuantity(ctx, guest, line.ID, 0)
	requireAppErr(t, err, apperr.KindValidation, apperr.CodeValidation)
	_, err = env.carts.UpdateQuantity(ctx, stranger, line.ID, 2)
	requireAppErr(t, err, apperr.KindNotFound, apperr.CodeNotFound)

	err = env.carts.RemoveItem(ctx, stranger, line.ID)
	requireAppErr(t, err, apperr.KindNotFound, apperr.CodeNotFound)
	require.NoError(t, env.carts.RemoveItem(ctx, guest, line.ID))
	err = env.carts.RemoveItem(ctx, guest, line.ID)
	requireAppErr(t, err, apperr.KindNotFound, apperr.CodeNotFound)

	cart, err := env.carts.Get(ctx, guest, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.ItemCount)

	require.NoError(t, env.carts.Clear(ctx, guest))
	cart, err = env.carts.Get(ctx, guest, "en")
	require.NoError(t, err)
	assert.Zero(t, cart.ItemCount)
	assert.EqualValues(t, 2, testutil.Count(t, env.db, &model.CartLine{}, "status = ?", model.CartDeleted))
}

func TestCart_LoginSeesGuestLines(t *testing.T) {
	env := newTestEnv(t)
	dish := testutil.AddDish(t, env.db, env.catalog.Stall.ID, "5.00")
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, guest, "en", item(dish.ID, 1))
	require.NoError(t, err)

	loggedIn := model.Owner{UserID: "user-7", SessionID: guest.SessionID}
	cart, err := env.carts.Get(ctx, loggedIn, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.ItemCount)

	userOnly, err := env.carts.Get(ctx, model.Owner{UserID: "user-7"}, "en")
	require.NoError(t, err)
	assert.Zero(t, userOnly.ItemCount)
}

func TestCustomizationKey(t *testing.T) {
	a := model.Customization{Group: "size", Option: "large", PriceModifier: dec("1")}
	b := model.Customization{Group: "spice", Option: "mild"}

	assert.Empty(t, customizationKey(nil))
	assert.Equal(t, customizationKey([]model.Customization{a, b}), customizationKey([]model.Customization{b, a}))
	assert.NotEqual(t, customizationKey([]model.Customization{a}), customizationKey([]model.Customization{b}))
}
