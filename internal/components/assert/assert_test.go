package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var nilFunc func()
	var nilPointer *int
	var nilMap map[string]int

	for _, value := range []any{nil, nilFunc, nilPointer, nilMap} {
		require.Panics(t, func() { NotNil(value) }, "%#v", value)
	}
	for _, value := range []any{0, "", func() {}, new(int), map[string]int{}, struct{}{}} {
		require.NotPanics(t, func() { NotNil(value) })
	}
}
