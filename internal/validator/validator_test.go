package validator

import (
	"strings"
	"testing"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSnapshot() model.ProductSnapshot {
	return model.ProductSnapshot{
		ID:    "p1",
		Name:  "Apple",
		Price: model.NewPrice(decimal.RequireFromString("1.25")),
	}
}

func TestCheckSnapshot(t *testing.T) {
	require.NoError(t, CheckSnapshot(validSnapshot()))

	noID := validSnapshot()
	noID.ID = ""
	err := CheckSnapshot(noID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID is a required field")

	longName := validSnapshot()
	longName.Name = strings.Repeat("a", 256)
	assert.Error(t, CheckSnapshot(longName))

	negative := validSnapshot()
	negative.Price = model.NewPrice(decimal.RequireFromString("-0.01"))
	assert.Error(t, CheckSnapshot(negative))

	negOrig := validSnapshot()
	op := model.NewPrice(decimal.RequireFromString("-1"))
	negOrig.OriginalPrice = &op
	assert.Error(t, CheckSnapshot(negOrig))

	badPack := validSnapshot()
	badPack.Quantity = model.PackSize{Amount: -1}
	assert.Error(t, CheckSnapshot(badPack))
}

func TestCheckOwnerKey(t *testing.T) {
	ok := []string{"a@x.com", "guest_0f8e", model.GuestOwnerKey}
	for _, k := range ok {
		assert.NoError(t, CheckOwnerKey(k), k)
	}

	bad := []string{"", "   ", "not-an-email", "a@x", strings.Repeat("a", 315) + "@x.com"}
	for _, k := range bad {
		assert.ErrorIs(t, CheckOwnerKey(k), ErrInvalidOwnerKey, k)
	}
}

func TestCheck_TranslatesFirstError(t *testing.T) {
	addr := model.ShippingAddress{City: "Chiyoda", State: "Tokyo", ZipCode: "100"}
	err := Check(addr)
	require.Error(t, err)
	assert.Equal(t, "Street is a required field", err.Error())

	addr.Street = "1-2-3"
	addr.Email = "nope"
	err = Check(addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email")
}
