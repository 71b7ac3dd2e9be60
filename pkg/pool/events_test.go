package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversToListeners(t *testing.T) {
	var e emitter
	var got []error
	e.on(EventFactoryCreateError, func(err error) { got = append(got, err) })

	cause := errors.New("create refused")
	e.emit(EventFactoryCreateError, cause)
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0], cause)

	// Other kinds do not cross-deliver.
	e.emit(EventFactoryDestroyError, errors.New("other"))
	require.Len(t, got, 1)
}

func TestEmitterOff(t *testing.T) {
	var e emitter
	var calls int
	off := e.on(EventFactoryDestroyError, func(error) { calls++ })

	e.emit(EventFactoryDestroyError, errors.New("one"))
	off()
	e.emit(EventFactoryDestroyError, errors.New("two"))
	require.Equal(t, 1, calls)
}

func TestEmitterNilListenerIgnored(t *testing.T) {
	var e emitter
	off := e.on(EventFactoryCreateError, nil)
	off()
	e.emit(EventFactoryCreateError, errors.New("no listeners"))
}

func TestEmitterMultipleListeners(t *testing.T) {
	var e emitter
	var a, b int
	e.on(EventFactoryCreateError, func(error) { a++ })
	e.on(EventFactoryCreateError, func(error) { b++ })

	e.emit(EventFactoryCreateError, errors.New("x"))
	require.Equal(t, 1, a)
	require.Equal(t, 1, b)
}
