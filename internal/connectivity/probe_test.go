package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbe_CheckInternetConnection(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "no content", status: http.StatusNoContent, want: true},
		{name: "redirect", status: http.StatusFound, want: true},
		{name: "server error", status: http.StatusServiceUnavailable, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				if tt.status == http.StatusFound {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			probe := NewProbe(server.URL, time.Second, time.Second)
			assert.Equal(t, tt.want, probe.CheckInternetConnection(context.Background()))
		})
	}
}

func TestProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	probe := NewProbe(url, 200*time.Millisecond, time.Second)
	assert.False(t, probe.CheckInternetConnection(context.Background()))
}

func TestProbe_ListenerFiresOnceWhenRestored(t *testing.T) {
	var online atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if online.Load() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	probe := NewProbe(server.URL, time.Second, 10*time.Millisecond)
	defer probe.Stop()

	var calls atomic.Int32
	probe.SetupConnectivityListener(func() { calls.Add(1) })
	assert.True(t, probe.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())

	online.Store(true)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, probe.Pending())
}

func TestProbe_ReRegisterReplacesListener(t *testing.T) {
	var online atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if online.Load() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	probe := NewProbe(server.URL, time.Second, 10*time.Millisecond)
	defer probe.Stop()

	var first, second atomic.Int32
	probe.SetupConnectivityListener(func() { first.Add(1) })
	probe.SetupConnectivityListener(func() { second.Add(1) })

	online.Store(true)
	assert.Eventually(t, func() bool { return second.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestProbe_StopCancelsListener(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	probe := NewProbe(server.URL, time.Second, 10*time.Millisecond)
	probe.SetupConnectivityListener(func() { t.Error("listener must not fire after Stop") })
	probe.Stop()
	assert.False(t, probe.Pending())
}
