package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_RecordsMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordTrade("BUY", OutcomeExecuted)
	c.RecordTrade("BUY", OutcomeExecuted)
	c.RecordTrade("SELL", OutcomeRejected)
	c.RecordPriceFetch(150*time.Millisecond, nil)
	c.RecordPriceFetch(time.Second, errors.New("timeout"))
	c.RecordAccountOperation("register", nil)
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()

	body := scrape(t, c)
	assert.Contains(t, body, `papertrade_trades_total{outcome="executed",side="BUY"} 2`)
	assert.Contains(t, body, `papertrade_trades_total{outcome="rejected",side="SELL"} 1`)
	assert.Contains(t, body, `papertrade_price_fetches_total{result="error"} 1`)
	assert.Contains(t, body, `papertrade_price_fetch_duration_seconds_count 2`)
	assert.Contains(t, body, `papertrade_account_operations_total{operation="register",outcome="ok"} 1`)
	assert.Contains(t, body, `papertrade_active_sessions 1`)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordTrade("BUY", OutcomeExecuted)
		c.RecordPriceFetch(time.Second, nil)
		c.RecordAccountOperation("login", nil)
		c.SessionOpened()
		c.SessionClosed()
	})
}

func TestCollector_RegistriesAreIndependent(t *testing.T) {
	a := NewCollector(nil)
	b := NewCollector(nil)
	a.RecordTrade("BUY", OutcomeExecuted)

	assert.NotContains(t, scrape(t, b), `side="BUY"`)
}
