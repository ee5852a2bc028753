package notify_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/go-storefront/notify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleNotifier(&buf, false, zerolog.Nop())

	n.Notify(notify.LevelSuccess, "Added to cart")
	n.Notify(notify.LevelError, "Unauthorized")

	require.Equal(t, "[success] Added to cart\n[error  ] Unauthorized\n", buf.String())
}

func TestConsoleNotifier_Colour(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleNotifier(&buf, true, zerolog.Nop())

	n.Notify(notify.LevelInfo, "Logged out")

	require.Contains(t, buf.String(), notify.Cyan)
	require.Contains(t, buf.String(), notify.ResetColor)
}

func TestLocation(t *testing.T) {
	var moved []string
	l := notify.NewLocation("/", func(path string) { moved = append(moved, path) })

	l.Navigate("/login")
	require.Equal(t, "/login", l.Current())
	require.Equal(t, []string{"/login"}, moved)
}

func TestRecorder(t *testing.T) {
	r := notify.NewRecorder()
	require.Equal(t, notify.Note{}, r.Last())

	r.Notify(notify.LevelInfo, "a")
	r.Navigate("/login")
	require.Equal(t, notify.Note{Level: notify.LevelInfo, Message: "a"}, r.Last())
	require.Equal(t, []string{"/login"}, r.Paths())

	r.Reset()
	require.Empty(t, r.Notes())
	require.Empty(t, r.Paths())
}
