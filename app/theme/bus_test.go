package theme

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishOrder(t *testing.T) {
	var got []string
	bus := NewBus(
		func(e string) { got = append(got, "a:"+e) },
		nil,
		func(e string) { got = append(got, "b:"+e) },
	)
	bus.Subscribe(func(e string) { got = append(got, "c:"+e) })
	assert.Equal(t, 3, bus.Len())

	bus.Publish("themeChange")
	assert.Equal(t, []string{"a:themeChange", "b:themeChange", "c:themeChange"}, got)
}

func TestBus_PublishNoListeners(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() { bus.Publish("themeChange") })
	assert.Equal(t, 0, bus.Len())
}

func TestBus_SubscribeFromListener(t *testing.T) {
	bus := NewBus()
	var late int
	bus.Subscribe(func(string) { bus.Subscribe(func(string) { late++ }) })

	bus.Publish("x")
	assert.Equal(t, 0, late, "listener added during publish is not called in the same round")
	bus.Publish("x")
	assert.Equal(t, 1, late)
}

func TestBus_ConcurrentSubscribe(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe(func(string) {})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, bus.Len())
}
