package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_SetAndGet(t *testing.T) {
	tx := New("ORDER-1")

	for i, f := range Fields {
		if f == FieldTID {
			continue
		}
		err := tx.Set(f, string(rune('a'+i)))
		assert.NoError(t, err)
	}

	for i, f := range Fields {
		if f == FieldTID {
			continue
		}
		v, err := tx.Get(f)
		assert.NoError(t, err)
		assert.Equal(t, string(rune('a'+i)), v)
	}

	assert.Equal(t, "ORDER-1", tx.TID())
}

func TestTransaction_UnknownField(t *testing.T) {
	tx := New("ORDER-1")

	err := tx.Set(Field("SHOE_SIZE"), "42")
	var unknown *UnknownFieldError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, Field("SHOE_SIZE"), unknown.Field)

	_, err = tx.Get(Field("SHOE_SIZE"))
	assert.ErrorAs(t, err, &unknown)
}

func TestTransaction_AbsentValueIsEmpty(t *testing.T) {
	tx := New("ORDER-1")

	v, err := tx.Get(FieldStatus)
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestTransaction_Price(t *testing.T) {
	tx := New("ORDER-1")

	_, ok := tx.Price()
	assert.False(t, ok)

	tx.Set(FieldPrice, "1050")
	price, ok := tx.Price()
	assert.True(t, ok)
	assert.Equal(t, int64(1050), price)

	tx.Set(FieldPrice, "ten euros")
	_, ok = tx.Price()
	assert.False(t, ok)
}

func TestTransaction_ValuesIsACopy(t *testing.T) {
	tx := New("ORDER-1")
	tx.Set(FieldCurrency, "EUR")

	values := tx.Values()
	values[FieldCurrency] = "USD"

	v, _ := tx.Get(FieldCurrency)
	assert.Equal(t, "EUR", v)
}
