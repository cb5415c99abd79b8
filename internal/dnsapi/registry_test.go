package dnsapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.LevelError)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(testLogger(), Options{Timeout: time.Second})

	t.Run("built-in backends are registered", func(t *testing.T) {
		assert.Equal(t, []string{"fail", "froxlor", "null", "rfc2136", "route53"}, r.Names())
	})

	t.Run("resolve known backend", func(t *testing.T) {
		p, err := r.Resolve("froxlor")
		require.NoError(t, err)
		assert.Equal(t, "froxlor", p.Name())
	})

	t.Run("unknown backend is an explicit error", func(t *testing.T) {
		_, err := r.Resolve("cloudflare")
		assert.Error(t, err)
	})

	t.Run("null accessor", func(t *testing.T) {
		assert.Equal(t, datafile.NullAPI, r.Null().Name())
	})
}

func TestNullProvider(t *testing.T) {
	p := NewNullProvider(testLogger())
	fixed := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	key := KeyData{Domain: "example.com", Selector: "202608"}
	res := p.Add(context.Background(), nil, nil, key)
	assert.True(t, res.OK)
	assert.Equal(t, "example.com", res.Domain)
	assert.Equal(t, "202608", res.Selector)
	assert.Equal(t, fixed, res.CreatedAt)

	out := p.Delete(context.Background(), nil, nil, datafile.UpdateRecord{Domain: "example.com"})
	assert.Equal(t, DeleteUnsupported, out)
}

func TestFailProvider(t *testing.T) {
	p := NewFailProvider(testLogger())

	res := p.Add(context.Background(), nil, nil, KeyData{Domain: "example.com", Selector: "202608"})
	assert.False(t, res.OK)
	assert.Equal(t, DeleteFailed, p.Delete(context.Background(), nil, nil, datafile.UpdateRecord{}))
}

func TestKeyDataRecordName(t *testing.T) {
	key := KeyData{Domain: "example.com", Selector: "202608A"}
	assert.Equal(t, "202608A._domainkey.example.com", key.RecordName())
}

func TestDeleteOutcomeString(t *testing.T) {
	assert.Equal(t, "succeeded", DeleteSucceeded.String())
	assert.Equal(t, "failed", DeleteFailed.String())
	assert.Equal(t, "unsupported", DeleteUnsupported.String())
}
