package mockprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jogardn/order-bridge/internal/upward"
	"github.com/jogardn/order-bridge/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Store, *upward.Client, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := NewStore()
	srv := httptest.NewServer(New(store, "key", logger).Router("/v1"))
	t.Cleanup(srv.Close)

	return store, upward.NewClient(srv.URL+"/v1/", "key", nil, logger), srv
}

func TestCreateGetDelete(t *testing.T) {
	store, client, _ := setup(t)
	ctx := context.Background()

	resp, err := client.CreateOrder(ctx, &models.OutboundOrder{OrderNumber: 42, CustomerID: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, store.CreateCalls())

	resp, err = client.GetOrder(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), `"customerID":"a@b.c"`)

	resp, err = client.DeleteOrder(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.GetOrder(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDuplicateCreateKeepsBothSubmissions(t *testing.T) {
	store, client, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.CreateOrder(ctx, &models.OutboundOrder{OrderNumber: 7})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Submissions(7))
	assert.Equal(t, 2, store.CreateCalls())
}

func TestDeleteInProgressIsForbidden(t *testing.T) {
	store, client, _ := setup(t)
	ctx := context.Background()

	_, err := client.CreateOrder(ctx, &models.OutboundOrder{OrderNumber: 9})
	require.NoError(t, err)
	require.True(t, store.MarkInProgress(9))

	resp, err := client.DeleteOrder(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, store.Submissions(9))
}

func TestDeleteUnknownOrder(t *testing.T) {
	_, client, _ := setup(t)
	resp, err := client.DeleteOrder(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartRoute(t *testing.T) {
	store, client, srv := setup(t)
	_, err := client.CreateOrder(context.Background(), &models.OutboundOrder{OrderNumber: 5})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/Orders/5/start", nil)
	require.NoError(t, err)
	req.Header[upward.APIKeyHeader] = []string{"key"}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	stored, ok := store.Get(5)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, stored.Status)
}

func TestRejectsWrongAPIKey(t *testing.T) {
	store, _, srv := setup(t)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	client := upward.NewClient(srv.URL+"/v1/", "wrong", nil, logger)

	resp, err := client.CreateOrder(context.Background(), &models.OutboundOrder{OrderNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, store.CreateCalls())
}
