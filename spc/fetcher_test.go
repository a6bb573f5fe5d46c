package spc

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T, rawURL string, timeout time.Duration, wrapped ...Resource) *Fetcher {
	u, err := url.Parse(rawURL + "/")
	require.NoError(t, err)

	return NewFetcher(nil, u, timeout, wrapped)
}

func TestFetcher_Collection(t *testing.T) {
	t.Run("returns each item of the resource collection", func(t *testing.T) {
		_, server := newFakeWebGateway(map[string]string{"GET /spc/zone": zonesPayload})
		defer server.Close()

		f := newTestFetcher(t, server.URL, 0)

		zones, ok := f.Collection(context.Background(), ResourceZone)
		assert.True(t, ok)
		require.Len(t, zones, 4)
		assert.Equal(t, "Entrance", zones[0].Get("zone_name").String())
	})

	t.Run("returns absent if the gateway responds with an error status", func(t *testing.T) {
		_, server := newFakeWebGateway(map[string]string{})
		defer server.Close()

		f := newTestFetcher(t, server.URL, 0)

		zones, ok := f.Collection(context.Background(), ResourceZone)
		assert.False(t, ok)
		assert.Nil(t, zones)
	})

	t.Run("returns absent if the gateway responds with invalid json", func(t *testing.T) {
		_, server := newFakeWebGateway(map[string]string{"GET /spc/zone": `{"data":`})
		defer server.Close()

		f := newTestFetcher(t, server.URL, 0)

		_, ok := f.Collection(context.Background(), ResourceZone)
		assert.False(t, ok)
	})

	t.Run("returns absent if the gateway can not be reached", func(t *testing.T) {
		_, server := newFakeWebGateway(map[string]string{})
		serverURL := server.URL
		server.Close()

		f := newTestFetcher(t, serverURL, 0)

		_, ok := f.Collection(context.Background(), ResourceArea)
		assert.False(t, ok)
	})

	t.Run("returns absent if the request exceeds the timeout", func(t *testing.T) {
		fake, server := newFakeWebGateway(map[string]string{"GET /spc/area": areasPayload})
		defer server.Close()
		fake.delay = 200 * time.Millisecond

		f := newTestFetcher(t, server.URL, 20*time.Millisecond)

		_, ok := f.Collection(context.Background(), ResourceArea)
		assert.False(t, ok)
	})
}

func TestFetcher_Resource(t *testing.T) {
	t.Run("single element array and bare object area responses unwrap identically", func(t *testing.T) {
		_, wrappedServer := newFakeWebGateway(map[string]string{"GET /spc/area/1": singleAreaWrappedPayload})
		defer wrappedServer.Close()

		_, bareServer := newFakeWebGateway(map[string]string{"GET /spc/area/1": singleAreaBarePayload})
		defer bareServer.Close()

		wrapped, ok := newTestFetcher(t, wrappedServer.URL, 0, ResourceArea).Resource(context.Background(), ResourceArea, "1")
		require.True(t, ok)

		bare, ok := newTestFetcher(t, bareServer.URL, 0, ResourceArea).Resource(context.Background(), ResourceArea, "1")
		require.True(t, ok)

		assert.True(t, wrapped.IsObject())
		assert.JSONEq(t, bare.Raw, wrapped.Raw)
	})

	t.Run("does not unwrap arrays for resource kinds not configured as wrapped", func(t *testing.T) {
		_, server := newFakeWebGateway(map[string]string{"GET /spc/area/1": singleAreaWrappedPayload})
		defer server.Close()

		result, ok := newTestFetcher(t, server.URL, 0).Resource(context.Background(), ResourceArea, "1")
		require.True(t, ok)

		assert.True(t, result.IsArray())
	})

	t.Run("returns a bare zone object", func(t *testing.T) {
		fake, server := newFakeWebGateway(map[string]string{"GET /spc/zone/3": singleZonePayload})
		defer server.Close()

		result, ok := newTestFetcher(t, server.URL, 0, ResourceArea).Resource(context.Background(), ResourceZone, "3")
		require.True(t, ok)

		assert.Equal(t, "Smoke sensor", result.Get("zone_name").String())
		assert.Equal(t, []string{"GET /spc/zone/3"}, fake.Requests())
	})

	t.Run("returns absent when the envelope does not contain the resource", func(t *testing.T) {
		_, server := newFakeWebGateway(map[string]string{"GET /spc/zone/3": `{"data":{}}`})
		defer server.Close()

		_, ok := newTestFetcher(t, server.URL, 0).Resource(context.Background(), ResourceZone, "3")
		assert.False(t, ok)
	})
}

func TestFetcher_Request(t *testing.T) {
	t.Run("issues the requested method", func(t *testing.T) {
		fake, server := newFakeWebGateway(map[string]string{"PUT /spc/area/1/set": `{"status":"success"}`})
		defer server.Close()

		f := newTestFetcher(t, server.URL, 0)

		result, ok := f.Request(context.Background(), http.MethodPut, f.resolve("spc/area/1/set"))
		assert.True(t, ok)
		assert.Equal(t, "success", result.Get("status").String())
		assert.Equal(t, []string{"PUT /spc/area/1/set"}, fake.Requests())
	})
}
