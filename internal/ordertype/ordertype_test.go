package ordertype_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/ordertype"
)

func TestResolveMappingTable(t *testing.T) {
	cases := map[string]ordertype.Key{
		"Dining":       ordertype.Dining,
		"Takeaway":     ordertype.Takeaway,
		"Online Order": ordertype.OnlineOrder,
		"Online":       ordertype.OnlineOrder,
		"OnlineOrder":  ordertype.OnlineOrder,
	}
	for label, want := range cases {
		require.Equal(t, want, ordertype.Resolve(label), label)
	}
}

func TestResolveFallsBackToDining(t *testing.T) {
	for _, label := range []string{"Dine-in", "", "TAKEAWAY", "online order", " Dining", "takeaway", "onlineorder", "online"} {
		if got := ordertype.Resolve(label); got != ordertype.Dining {
			t.Fatalf("expected %q to resolve to dining, got %q", label, got)
		}
	}
}

func TestParseReportsUnrecognised(t *testing.T) {
	_, ok := ordertype.Parse("Dine-in")
	require.False(t, ok)

	key, ok := ordertype.Parse("Online")
	require.True(t, ok)
	require.Equal(t, ordertype.OnlineOrder, key)
}

func TestDecodeAcceptsCanonicalKeys(t *testing.T) {
	for _, key := range ordertype.All() {
		got, ok := ordertype.Decode(string(key))
		require.True(t, ok)
		require.Equal(t, key, got)

		_, ok = ordertype.Parse(string(key))
		require.False(t, ok, "Parse must stay limited to display labels")
	}
	got, ok := ordertype.Decode("Online Order")
	require.True(t, ok)
	require.Equal(t, ordertype.OnlineOrder, got)

	_, ok = ordertype.Decode("TAKEAWAY")
	require.False(t, ok)
}

func TestKeyDecodesLabels(t *testing.T) {
	var payload struct {
		Known   ordertype.Key `json:"known"`
		Unknown ordertype.Key `json:"unknown"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"known":"Online Order","unknown":"Dine-in"}`), &payload))
	require.Equal(t, ordertype.OnlineOrder, payload.Known)
	require.False(t, payload.Unknown.Valid())
	require.Equal(t, "Online Order", payload.Known.Label())
}

func TestKeyDecodesAsMapKey(t *testing.T) {
	var cfg map[ordertype.Key]float64
	require.NoError(t, json.Unmarshal([]byte(`{"Dining":5,"Online Order":18}`), &cfg))
	require.Equal(t, 5.0, cfg[ordertype.Dining])
	require.Equal(t, 18.0, cfg[ordertype.OnlineOrder])

	var stored map[ordertype.Key]float64
	require.NoError(t, json.Unmarshal([]byte(`{"dining":5,"takeaway":12,"onlineorder":18}`), &stored))
	require.Equal(t, 12.0, stored[ordertype.Takeaway])
	require.Equal(t, 18.0, stored[ordertype.OnlineOrder])
}
