package errors_test

import (
	"fmt"
	"testing"

	"github.com/featurebasedb/stratum/errors"
	"github.com/stretchr/testify/assert"
)

const (
	errThingNotFound errors.Code = "ThingNotFound"
	errThingBusy     errors.Code = "ThingBusy"
)

func TestErrors(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		uncoded := errors.Errorf("plain error")
		nf := errors.New(errThingNotFound, "thing not found")
		busy := errors.New(errThingBusy, "thing busy")

		tests := []struct {
			err    error
			target errors.Code
			exp    bool
		}{
			{err: uncoded, target: errors.ErrUncoded, exp: false},
			{err: uncoded, target: errThingNotFound, exp: false},
			{err: nf, target: errThingNotFound, exp: true},
			{err: nf, target: errThingBusy, exp: false},
			{err: busy, target: errThingBusy, exp: true},
		}
		for i, test := range tests {
			t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
				assert.Equal(t, test.exp, errors.Is(test.err, test.target))
			})
		}
	})

	t.Run("IsAfterWrap", func(t *testing.T) {
		nf := errors.New(errThingNotFound, "thing not found")

		wrapped := errors.Wrapf(nf, "while opening %s", "thing")
		assert.True(t, errors.Is(wrapped, errThingNotFound))

		recoded := errors.Wrap(nf, errThingBusy, "retry later")
		assert.True(t, errors.Is(recoded, errThingBusy))
		assert.True(t, errors.Is(recoded, errThingNotFound))
	})

	t.Run("CodeOf", func(t *testing.T) {
		assert.Equal(t, errors.ErrUncoded, errors.CodeOf(errors.Errorf("nope")))
		assert.Equal(t, errThingBusy, errors.CodeOf(errors.New(errThingBusy, "busy")))

		wrapped := errors.Wrapf(errors.New(errThingBusy, "busy"), "outer")
		assert.Equal(t, errThingBusy, errors.CodeOf(wrapped))
	})

	t.Run("WrapNil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errThingBusy, "never happened"))
	})

	t.Run("Message", func(t *testing.T) {
		cause := errors.Errorf("disk on fire")
		err := errors.Wrap(cause, errThingBusy, "writing page")
		assert.Equal(t, "writing page: disk on fire", err.Error())
	})
}
