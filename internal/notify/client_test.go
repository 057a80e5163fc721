package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestClientSendPostsPortugueseFieldNames(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	err := c.Send(context.Background(), "", Payload{
		Building: "Residencial Aurora",
		Resident: "Maria Santos",
		Message:  "olá",
		Phone:    "5511999998888",
		Code:     "12345",
	})
	require.NoError(t, err)

	assert.Equal(t, "Residencial Aurora", got["condominio"])
	assert.Equal(t, "Maria Santos", got["morador"])
	assert.Equal(t, "5511999998888", got["telefone"])
	assert.Equal(t, "12345", got["codigo_retirada"])
	_, hasService := got["servico"]
	assert.False(t, hasService, "empty servico must be omitted")
}

func TestClientSendPrefersExplicitURL(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("http://127.0.0.1:1/default-unreachable", time.Second, testLogger())
	err := c.Send(context.Background(), srv.URL, Payload{Resident: "Maria"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestClientSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	err := c.Send(context.Background(), "", Payload{Resident: "Maria"})
	assert.Error(t, err)
}
