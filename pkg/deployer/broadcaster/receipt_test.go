package broadcaster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindAttribute(t *testing.T) {
	rcpt := &Receipt{
		TxHash: "AA",
		Logs: []MessageLog{{Events: []Event{
			{Type: "message", Attributes: []Attribute{{Key: "sender", Value: "osmo1sender"}}},
			{Type: "instantiate", Attributes: []Attribute{
				{Key: "code_id", Value: "3"},
				{Key: "_contract_address", Value: "osmo1first"},
				{Key: "_contract_address", Value: "osmo1shadowed"},
			}},
			{Type: "instantiate", Attributes: []Attribute{
				{Key: "_contract_address", Value: "osmo1second"},
				{Key: "admin", Value: "osmo1admin"},
			}},
		}}},
	}

	tests := []struct {
		name      string
		eventType string
		key       string
		want      string
		wantErr   error
	}{
		{
			name:      "first attribute of first event",
			eventType: "instantiate",
			key:       "_contract_address",
			want:      "osmo1first",
		},
		{
			name:      "later events of the same type are ignored",
			eventType: "instantiate",
			key:       "admin",
			wantErr:   ErrAttributeNotFound,
		},
		{
			name:      "missing event",
			eventType: "store_code",
			key:       "code_id",
			wantErr:   ErrEventNotFound,
		},
		{
			name:      "other event",
			eventType: "message",
			key:       "sender",
			want:      "osmo1sender",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rcpt.FindAttribute(tt.eventType, tt.key)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	addr, err := rcpt.ContractAddress()
	require.NoError(t, err)
	require.Equal(t, "osmo1first", addr)

	_, err = rcpt.CodeID()
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestParseReceipt(t *testing.T) {
	t.Run("message logs", func(t *testing.T) {
		rcpt, err := ParseReceipt([]byte(storeReceipt))
		require.NoError(t, err)
		require.Equal(t, "42", rcpt.Height.String())
		id, err := rcpt.CodeID()
		require.NoError(t, err)
		require.EqualValues(t, 12, id)
	})

	t.Run("flattened events", func(t *testing.T) {
		rcpt, err := ParseReceipt([]byte(`{
			"txhash": "BB",
			"height": 7,
			"logs": [],
			"events": [{"type": "instantiate", "attributes": [{"key": "_contract_address", "value": "osmo1flat"}]}]
		}`))
		require.NoError(t, err)
		addr, err := rcpt.ContractAddress()
		require.NoError(t, err)
		require.Equal(t, "osmo1flat", addr)
	})

	t.Run("bad code id", func(t *testing.T) {
		rcpt, err := ParseReceipt([]byte(`{"txhash": "CC", "events": [{"type": "store_code", "attributes": [{"key": "code_id", "value": "x"}]}]}`))
		require.NoError(t, err)
		_, err = rcpt.CodeID()
		require.Error(t, err)
	})

	for _, in := range []string{"", "not json", `["txhash"]`, `{"code": 0}`} {
		_, err := ParseReceipt([]byte(in))
		require.ErrorIs(t, err, ErrMalformedReceipt, in)
	}
}
