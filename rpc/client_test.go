package rpc

import (
	"context"
	"encoding/json"
	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"net/http"
	"testing"
)

const testEndpoint = "http://localhost:7076"

func mockClient() *Client {
	mockedHTTPClient := &http.Client{}
	httpmock.ActivateNonDefault(mockedHTTPClient)
	return NewClientWithHTTPClient(testEndpoint, mockedHTTPClient)
}

func TestEndpoint(t *testing.T) {
	if e := Endpoint("http", "[::1]", "7076"); e != "http://[::1]:7076" {
		t.Errorf("Expected http://[::1]:7076, got %s", e)
	}
	if e := Endpoint("https", "node.example.com", "443"); e != "https://node.example.com:443" {
		t.Errorf("Expected https://node.example.com:443, got %s", e)
	}
}

func TestClient_Call(t *testing.T) {
	client := mockClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["action"] != ActionWalletLocked {
				t.Errorf("Expected action %s, got %s", ActionWalletLocked, body["action"])
			}
			if body["wallet"] != "ABCD" {
				t.Errorf("Expected wallet ABCD, got %s", body["wallet"])
			}
			if req.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Incorrect content type %s", req.Header.Get("Content-Type"))
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"locked": "1"})
		},
	)

	var resp WalletLockedResponse
	err := client.Call(context.Background(), WalletLockedRequest{
		action: action{ActionWalletLocked},
		Wallet: "ABCD",
	}, &resp)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Locked != "1" {
		t.Errorf("Expected locked 1, got %s", resp.Locked)
	}
	if resp.Err() != nil {
		t.Errorf("Unexpected node error %s", resp.Err())
	}
}

func TestClient_CallNodeError(t *testing.T) {
	client := mockClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"error": "Wallet not found"}`))

	resp, err := client.WalletLocked(context.Background(), "ABCD")
	if err != nil {
		t.Fatalf("Node errors must not be transport errors: %s", err)
	}

	var nodeErr *NodeError
	if !errors.As(resp.Err(), &nodeErr) {
		t.Fatalf("Expected NodeError, got %v", resp.Err())
	}
	if nodeErr.Message != "Wallet not found" {
		t.Errorf("Expected message 'Wallet not found', got %s", nodeErr.Message)
	}
}

func TestClient_CallTransportErrors(t *testing.T) {
	client := mockClient()
	defer httpmock.DeactivateAndReset()

	// No responder registered.
	_, err := client.AccountBalance(context.Background(), "xrb_1")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if transportErr.Action != ActionAccountBalance {
		t.Errorf("Expected action %s, got %s", ActionAccountBalance, transportErr.Action)
	}

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusInternalServerError, `<html>oops</html>`))

	_, err = client.AccountBalance(context.Background(), "xrb_1")
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError for malformed reply, got %v", err)
	}

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"balance": 10, "pending": "0"}`))

	_, err = client.AccountBalance(context.Background(), "xrb_1")
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError for mistyped field, got %v", err)
	}
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(errors.New("boom")) {
		t.Error("Plain error reported as timeout")
	}
	if !IsTimeout(&TransportError{Action: ActionSend, Err: context.DeadlineExceeded}) {
		t.Error("Wrapped deadline not reported as timeout")
	}
}
