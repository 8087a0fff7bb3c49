package hprose

import (
	"bytes"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type badMember struct {
	A int `hprose:"a,order=x"`
}

func TestRegister(t *testing.T) {
	reg := NewRegistry(nil)

	require.NoError(t, reg.Register(point{}, ""))
	assert.Equal(t, "point", reg.ClassName(reflect.TypeFor[point]()))

	require.NoError(t, reg.Register(&point{}, "geo.Point"))
	assert.Equal(t, "geo.Point", reg.ClassName(reflect.TypeFor[point]()))
	typ, ok := reg.ClassType("geo.Point")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[point](), typ)

	_, ok = reg.ClassType("point")
	assert.False(t, ok, "re-registering replaces the old alias")

	assert.Equal(t, "user", reg.ClassName(reflect.TypeFor[user]()))
}

func TestRegisterErrors(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(point{}, "Point"))

	tests := []struct {
		name  string
		value any
		alias string
	}{
		{"nil", nil, "X"},
		{"not a struct", 3, "Three"},
		{"anonymous without alias", struct{ A int }{}, ""},
		{"alias taken", user{}, "Point"},
		{"invalid members", badMember{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.value, tt.alias)
			assert.True(t, IsConfigurationError(err), "%v", err)
		})
	}
}

func TestCodecsAreMemoized(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := NewRegistry(logger)

	var wg sync.WaitGroup
	codecs := make([]*codec, 8)
	for i := range codecs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codecs[i] = reg.codecOf(reflect.TypeFor[[]user]())
		}()
	}
	wg.Wait()
	for _, c := range codecs {
		assert.Same(t, codecs[0], c)
	}
	assert.Equal(t, strategyList, codecs[0].strategy)
	assert.Contains(t, logs.String(), "built codec")
}

func TestStrategyOf(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want strategy
	}{
		{reflect.TypeFor[bool](), strategyBool},
		{reflect.TypeFor[uintptr](), strategyUint},
		{reflect.TypeFor[[]byte](), strategyBytes},
		{reflect.TypeFor[[16]uint8](), strategyBytes},
		{reflect.TypeFor[[]string](), strategyList},
		{reflect.TypeFor[map[int]int](), strategyMap},
		{reflect.TypeFor[user](), strategyRecord},
		{reflect.TypeFor[struct{ A int }](), strategyAnonymousRecord},
		{reflect.TypeFor[*user](), strategyPointer},
		{reflect.TypeFor[any](), strategyInterface},
		{reflect.TypeFor[func(func(int) bool)](), strategyListEnumerable},
		{reflect.TypeFor[func(func(string, int) bool)](), strategyMapEnumerable},
		{reflect.TypeFor[func(func(any) bool)](), strategyEnumerableMixed},
		{reflect.TypeFor[func(func(int))](), strategyUnsupported},
		{reflect.TypeFor[chan int](), strategyUnsupported},
		{guidType, strategyGUID},
		{timeType, strategyTime},
		{bigIntPtrType, strategyBigInt},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, strategyOf(tt.typ), "%s", tt.typ)
	}
	assert.Equal(t, "enumerable-mixed", strategyEnumerableMixed.String())
}
