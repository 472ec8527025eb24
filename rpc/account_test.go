package rpc

import (
	"context"
	"encoding/json"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/jarcoal/httpmock"
	"net/http"
	"reflect"
	"testing"
)

func TestClient_AccountOperationRequests(t *testing.T) {
	client := mockClient()
	defer httpmock.DeactivateAndReset()

	var lastRequest map[string]string
	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			lastRequest = make(map[string]string)
			if err := json.NewDecoder(req.Body).Decode(&lastRequest); err != nil {
				t.Fatal(err)
			}
			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		},
	)

	ctx := context.Background()
	tests := []struct {
		name     string
		call     func() error
		expected map[string]string
	}{
		{
			name: "wallet_locked",
			call: func() error {
				_, err := client.WalletLocked(ctx, "W")
				return err
			},
			expected: map[string]string{"action": "wallet_locked", "wallet": "W"},
		},
		{
			name: "password_enter",
			call: func() error {
				_, err := client.PasswordEnter(ctx, "W", "secret")
				return err
			},
			expected: map[string]string{"action": "password_enter", "wallet": "W", "password": "secret"},
		},
		{
			name: "lock with empty password",
			call: func() error {
				_, err := client.PasswordEnter(ctx, "W", "")
				return err
			},
			expected: map[string]string{"action": "password_enter", "wallet": "W", "password": ""},
		},
		{
			name: "account_history",
			call: func() error {
				_, err := client.AccountHistory(ctx, "A", 10)
				return err
			},
			expected: map[string]string{"action": "account_history", "account": "A", "count": "10"},
		},
		{
			name: "pending without threshold",
			call: func() error {
				_, err := client.Pending(ctx, "A", 1, iwallet.NewAmount(0))
				return err
			},
			expected: map[string]string{"action": "pending", "account": "A", "count": "1", "source": "true"},
		},
		{
			name: "pending with threshold",
			call: func() error {
				_, err := client.Pending(ctx, "A", 1, iwallet.NewAmount("1000000000000000000000000"))
				return err
			},
			expected: map[string]string{"action": "pending", "account": "A", "count": "1", "source": "true", "threshold": "1000000000000000000000000"},
		},
		{
			name: "receive",
			call: func() error {
				_, err := client.Receive(ctx, "W", "A", "B")
				return err
			},
			expected: map[string]string{"action": "receive", "wallet": "W", "account": "A", "block": "B"},
		},
		{
			name: "send",
			call: func() error {
				_, err := client.Send(ctx, "W", "S", "D", iwallet.NewAmount("123456789012345678901234567890"), "")
				return err
			},
			expected: map[string]string{"action": "send", "wallet": "W", "source": "S", "destination": "D", "amount": "123456789012345678901234567890"},
		},
		{
			name: "send with id",
			call: func() error {
				_, err := client.Send(ctx, "W", "S", "D", iwallet.NewAmount(5), "abc")
				return err
			},
			expected: map[string]string{"action": "send", "wallet": "W", "source": "S", "destination": "D", "amount": "5", "id": "abc"},
		},
		{
			name: "account_balance",
			call: func() error {
				_, err := client.AccountBalance(ctx, "A")
				return err
			},
			expected: map[string]string{"action": "account_balance", "account": "A"},
		},
	}

	for _, test := range tests {
		if err := test.call(); err != nil {
			t.Errorf("%s: %s", test.name, err)
			continue
		}
		if !reflect.DeepEqual(lastRequest, test.expected) {
			t.Errorf("%s: expected request %v, got %v", test.name, test.expected, lastRequest)
		}
	}
}

func TestClient_Pending(t *testing.T) {
	client := mockClient()
	defer httpmock.DeactivateAndReset()

	reply := `{
		"blocks": {
			"000D1BAEC8EC208142C99059B393051BAC8380F9B5A2E6B2489A277D81789F3F": {
				"amount": "6000000000000000000000000000000",
				"source": "xrb_3dcfozsmekr1tr9skf1oa5wbgmxt81qepfdnt7zicq5x3hk65fg4fqj58mbr"
			},
			"EE5286AB32F580AB65FD84A69E107C69FBEB571DEC4D99297E19E3FA5529547B": {
				"amount": "1",
				"source": "xrb_1111111111111111111111111111111111111111111111111111hifc8npp"
			}
		}
	}`
	httpmock.RegisterResponder(http.MethodPost, testEndpoint, httpmock.NewStringResponder(http.StatusOK, reply))

	resp, err := client.Pending(context.Background(), "A", 2, iwallet.NewAmount(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(resp.Blocks))
	}
	if resp.Blocks[0].Hash != "000D1BAEC8EC208142C99059B393051BAC8380F9B5A2E6B2489A277D81789F3F" {
		t.Errorf("Node ordering not preserved, first block is %s", resp.Blocks[0].Hash)
	}
	if resp.Blocks[0].Amount != "6000000000000000000000000000000" {
		t.Errorf("Incorrect amount %s", resp.Blocks[0].Amount)
	}
	if resp.Blocks[1].Source != "xrb_1111111111111111111111111111111111111111111111111111hifc8npp" {
		t.Errorf("Incorrect source %s", resp.Blocks[1].Source)
	}
}

func TestPendingBlocks_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected PendingBlocks
		err      bool
	}{
		{
			name:     "nothing pending",
			data:     `""`,
			expected: nil,
		},
		{
			name:     "empty object",
			data:     `{}`,
			expected: nil,
		},
		{
			name: "amounts only",
			data: `{"AB": "10", "CD": "20"}`,
			expected: PendingBlocks{
				{Hash: "AB", Amount: "10"},
				{Hash: "CD", Amount: "20"},
			},
		},
		{
			name: "with source",
			data: `{"AB": {"amount": "10", "source": "xrb_1"}}`,
			expected: PendingBlocks{
				{Hash: "AB", Amount: "10", Source: "xrb_1"},
			},
		},
		{
			name: "array",
			data: `["AB"]`,
			err:  true,
		},
		{
			name: "mistyped amount",
			data: `{"AB": {"amount": 10}}`,
			err:  true,
		},
	}

	for _, test := range tests {
		var blocks PendingBlocks
		err := json.Unmarshal([]byte(test.data), &blocks)
		if test.err {
			if err == nil {
				t.Errorf("%s: expected error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %s", test.name, err)
			continue
		}
		if !reflect.DeepEqual(blocks, test.expected) {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, blocks)
		}
	}
}
