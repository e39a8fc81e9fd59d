package sensor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pulseServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSource(url string) *PulseSource {
	logger := zap.NewNop()
	return NewPulseSource(NewPulseClient(url, 0, logger), logger)
}

func TestPulseRate_Valid(t *testing.T) {
	srv := pulseServer(t, http.StatusOK, `{"pulse_rate_bpm": 84}`)

	bpm, err := newSource(srv.URL).PulseRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 84, bpm)
}

func TestPulseRate_NoBeatYet(t *testing.T) {
	srv := pulseServer(t, http.StatusOK, `{"pulse_rate_bpm": 0}`)

	_, err := newSource(srv.URL).PulseRate(context.Background())
	assert.ErrorIs(t, err, ErrNoReading)
}

func TestPulseRate_OutOfRange(t *testing.T) {
	for _, body := range []string{`{"pulse_rate_bpm": 12}`, `{"pulse_rate_bpm": 260}`} {
		srv := pulseServer(t, http.StatusOK, body)
		_, err := newSource(srv.URL).PulseRate(context.Background())
		assert.ErrorIs(t, err, ErrOutOfRange, body)
	}
}

func TestPulseRate_ServerError(t *testing.T) {
	srv := pulseServer(t, http.StatusInternalServerError, `oops`)

	_, err := newSource(srv.URL).PulseRate(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoReading)
}

func TestPulseRate_Unreachable(t *testing.T) {
	srv := pulseServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	_, err := newSource(url).PulseRate(context.Background())
	assert.Error(t, err)
}
