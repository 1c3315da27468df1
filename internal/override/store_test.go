package override

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prism/internal/pubsub"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := NewInMemory()
	defer s.Close()

	_, ok := s.Get("size/md")
	require.False(t, ok)

	s.Set("size/md", "24")
	v, ok := s.Get("size/md")
	require.True(t, ok)
	require.Equal(t, "24", v)

	s.Delete("size/md")
	_, ok = s.Get("size/md")
	require.False(t, ok)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism", "overrides.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	s.Set("size/md", "24")
	s.Set("color/gray/900", "#111111")
	s.Close()

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, map[string]string{
		"size/md":        "24",
		"color/gray/900": "#111111",
	}, reopened.All())
}

func TestStore_RoundTrip(t *testing.T) {
	// Serializing to the persisted form and reloading reproduces the map.
	path := filepath.Join(t.TempDir(), "overrides.json")
	s, err := NewStore(path)
	require.NoError(t, err)

	want := map[string]string{
		"size/md":    "24",
		"opacity/40": "0.4",
		"font/body":  "Inter",
	}
	s.ReplaceAll(want)
	s.Close()

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	defer reloaded.Close()
	require.Equal(t, want, reloaded.All())
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	defer s.Close()
	require.Zero(t, s.Len())
}

func TestStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	require.NoError(t, writeFile(path, "{not json"))

	_, err := NewStore(path)
	require.Error(t, err)
}

func TestStore_ChangeNotifications(t *testing.T) {
	s := NewInMemory()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	s.Set("size/md", "24")
	ev := recv(t, ch)
	require.Equal(t, pubsub.OverrideSetEvent, ev.Type)
	require.Equal(t, "size/md", ev.Payload.Token)

	s.Delete("size/md")
	ev = recv(t, ch)
	require.Equal(t, pubsub.OverrideClearedEvent, ev.Type)
	require.Equal(t, "size/md", ev.Payload.Token)

	s.ReplaceAll(map[string]string{"size/lg": "32"})
	ev = recv(t, ch)
	require.Equal(t, pubsub.OverrideReplacedEvent, ev.Type)
	require.Equal(t, Wildcard, ev.Payload.Token)

	s.Clear()
	ev = recv(t, ch)
	require.Equal(t, pubsub.OverrideClearedEvent, ev.Type)
	require.Equal(t, Wildcard, ev.Payload.Token)
}

func TestStore_DeleteAbsentIsSilent(t *testing.T) {
	s := NewInMemory()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	s.Delete("never/set")

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func recv(t *testing.T, ch <-chan pubsub.Event[Change]) pubsub.Event[Change] {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change event")
		return pubsub.Event[Change]{}
	}
}
