package app

import (
	"testing"

	"github.com/dkeye/Talk/internal/core"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EmitToBoundSession(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)
	sig := &fakeSignal{}
	reg.Bind("a", "user-1", sig, nil)

	reg.Emit("a", core.Frame(`{"type":"pong"}`))

	req.Len(sig.frames, 1)
	user, ok := reg.UserOf("a")
	req.True(ok)
	req.EqualValues("user-1", user)
	req.Equal(1, reg.Len())
}

func TestRegistry_EmitToUnknownIsDropped(t *testing.T) {
	reg := NewRegistry(nil)
	require.NotPanics(t, func() { reg.Emit("ghost", core.Frame(`{}`)) })
}

func TestRegistry_AnonymousSessionHasNoUser(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Bind("a", "", &fakeSignal{}, nil)
	_, ok := reg.UserOf("a")
	require.False(t, ok)
}

func TestRegistry_BackpressurePolicy(t *testing.T) {
	t.Run("disconnect cancels the session", func(t *testing.T) {
		req := require.New(t)
		reg := NewRegistry(SimplePolicy{Action: Disconnect})
		canceled := false
		reg.Bind("a", "", &fakeSignal{full: true}, func() { canceled = true })

		reg.Emit("a", core.Frame(`{}`))
		req.True(canceled)
	})

	t.Run("drop keeps the session", func(t *testing.T) {
		req := require.New(t)
		reg := NewRegistry(SimplePolicy{Action: DropEvent})
		canceled := false
		reg.Bind("a", "", &fakeSignal{full: true}, func() { canceled = true })

		reg.Emit("a", core.Frame(`{}`))
		req.False(canceled)
		req.True(reg.Has("a"))
	})
}

func TestRegistry_EmitToClosingConnectionIsQuiet(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(SimplePolicy{Action: Disconnect})
	sig := &fakeSignal{}
	canceled := 0
	reg.Bind("a", "", sig, func() { canceled++ })
	sig.Close()

	reg.Emit("a", core.Frame(`{}`))
	req.Zero(canceled)
	req.Empty(sig.frames)
	req.True(reg.Has("a"))
}

func TestRegistry_Unbind(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)
	reg.Bind("a", "", &fakeSignal{}, nil)

	req.True(reg.Unbind("a"))
	req.False(reg.Unbind("a"))
	req.False(reg.Has("a"))
	req.False(reg.Cancel("a"))
}

func TestParseBackpressure(t *testing.T) {
	req := require.New(t)
	req.Equal(DropEvent, ParseBackpressure(" Drop "))
	req.Equal(Disconnect, ParseBackpressure("disconnect"))
	req.Equal(Disconnect, ParseBackpressure(""))
}
