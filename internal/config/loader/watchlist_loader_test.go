package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWatchlist(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadNormalizesAndDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	writeWatchlist(t, path, `
pairs:
  - btc/usdt
  - "BTC-USDT"
  - eth_usdt
  - ""
`)
	l, err := NewWatchlistLoader(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT"}, l.Pairs())
	snap := l.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
}

func TestHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	writeWatchlist(t, path, "pairs: [\"BTC-USDT\"]\n")
	l, err := NewWatchlistLoader(path)
	require.NoError(t, err)

	changed := make(chan Snapshot, 4)
	l.Subscribe(func(s Snapshot) { changed <- s })

	// Initial snapshot arrives on subscribe.
	select {
	case s := <-changed:
		assert.Equal(t, []string{"BTC-USDT"}, s.Pairs)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	writeWatchlist(t, path, "pairs: [\"BTC-USDT\", \"SOL-USDT\"]\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-changed:
			if len(s.Pairs) == 2 {
				assert.Equal(t, []string{"BTC-USDT", "SOL-USDT"}, s.Pairs)
				assert.Equal(t, s.Pairs, l.Pairs())
				return
			}
		case <-deadline:
			t.Fatal("reload never observed")
		}
	}
}

func TestStaticLoader(t *testing.T) {
	l := NewStaticLoader([]string{"sol/usdt", "SOL-USDT", "xrp-usdt"})
	assert.Equal(t, []string{"SOL-USDT", "XRP-USDT"}, l.Pairs())
	assert.Equal(t, int64(1), l.Snapshot().Version)
}

func TestRejectsEmptyWatchlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	writeWatchlist(t, path, "pairs: []\n")
	_, err := NewWatchlistLoader(path)
	assert.Error(t, err)

	_, err = NewWatchlistLoader("")
	assert.Error(t, err)
}
