package api

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
)

type apiTests []apiTest

// apiTest is one request against the v1 router backed by a mockNode.
type apiTest struct {
	name             string
	path             string
	method           string
	body             []byte
	setNodeMethods   func(n *mockNode)
	statusCode       int
	expectedResponse func() ([]byte, error)
}

func runAPITests(t *testing.T, tests apiTests) {
	node := &mockNode{}
	gateway := &Gateway{
		node:   node,
		config: &GatewayConfig{},
	}

	ts := httptest.NewServer(gateway.newV1Router())
	defer ts.Close()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			*node = mockNode{}
			if test.setNodeMethods != nil {
				test.setNodeMethods(node)
			}
			req, err := http.NewRequest(test.method, ts.URL+test.path, bytes.NewReader(test.body))
			if err != nil {
				t.Fatal(err)
			}
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer res.Body.Close()

			if res.StatusCode != test.statusCode {
				t.Fatalf("Expected status code %d, got %d", test.statusCode, res.StatusCode)
			}
			response, err := ioutil.ReadAll(res.Body)
			if err != nil {
				t.Fatal(err)
			}
			if test.expectedResponse == nil {
				return
			}
			expected, err := test.expectedResponse()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(response, expected) {
				t.Errorf("Expected response %s, got %s", string(expected), string(response))
			}
		})
	}
}
