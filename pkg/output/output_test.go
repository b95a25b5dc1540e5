package output

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinkhole/internal/testutil"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newOutput(t *testing.T, c *Config) *Output {
	t.Helper()

	o, err := New(c)
	require.NoError(t, err)

	return o
}

// produce activates o, writes domains, finalizes, commits and returns the
// artifact split into its first line and the rest.
func produce(t *testing.T, o *Output, domains ...string) (first, body string) {
	t.Helper()

	a, err := Activate(o, testNow)
	require.NoError(t, err)

	for _, d := range domains {
		require.NoError(t, a.Write(d))
	}
	require.NoError(t, a.Finalize())
	require.NoError(t, a.Commit())

	data, err := os.ReadFile(o.Destination())
	require.NoError(t, err)

	first, body, _ = strings.Cut(string(data), "\n")
	return first, body
}

func TestNewValidation(t *testing.T) {
	testCases := []struct {
		name    string
		conf    *Config
		wantErr error
	}{{
		name:    "empty_destination",
		conf:    &Config{Kind: Hosts{}},
		wantErr: ErrEmptyDestination,
	}, {
		name:    "empty_metric_name",
		conf:    &Config{Kind: PdnsLua{OutputMetric: true}, Destination: "out.lua"},
		wantErr: ErrEmptyMetricName,
	}, {
		name:    "no_kind",
		conf:    &Config{Destination: "out.txt"},
		wantErr: ErrNoKind,
	}, {
		name:    "metric_off_without_name",
		conf:    &Config{Kind: PdnsLua{}, Destination: "out.lua"},
		wantErr: nil,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.conf)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	o := newOutput(t, &Config{Kind: Hosts{}, Destination: "out.txt"})

	assert.Equal(t, netip.MustParseAddr("0.0.0.0"), o.Blackhole())
	assert.False(t, o.Deduplicate())
	assert.Equal(t, "hosts", o.Kind().Name())
}

func TestParseBlackhole(t *testing.T) {
	addr, err := ParseBlackhole("::")
	require.NoError(t, err)
	assert.True(t, addr.Is6())

	_, err = ParseBlackhole("not-an-ip")
	assert.True(t, errors.Is(err, ErrInvalidIPAddress))
}

func TestHostsOutput(t *testing.T) {
	dir := t.TempDir()
	include1 := testutil.WriteTempFile(t, dir, "local1", "127.0.0.1 router.lan\n")
	include2 := testutil.WriteTempFile(t, dir, "local2", "10.0.0.2 nas.lan")

	o := newOutput(t, &Config{
		Kind:        Hosts{Include: []string{include1, include2}},
		Destination: filepath.Join(dir, "hosts"),
	})

	first, body := produce(t, o, "example.com", "google.com")

	assert.True(t, strings.HasPrefix(first, "# Generated at 2024-05-01T12:00:00Z with sinkhole v"))
	assert.Equal(t, "0.0.0.0 example.com\n"+
		"0.0.0.0 google.com\n"+
		"\n# hosts included from "+include1+"\n\n"+
		"127.0.0.1 router.lan\n"+
		"\n# hosts included from "+include2+"\n\n"+
		"10.0.0.2 nas.lan", body)
}

func TestHostsOutputMissingInclude(t *testing.T) {
	dir := t.TempDir()
	o := newOutput(t, &Config{
		Kind:        Hosts{Include: []string{filepath.Join(dir, "missing")}},
		Destination: filepath.Join(dir, "hosts"),
	})

	a, err := Activate(o, testNow)
	require.NoError(t, err)

	err = a.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, a.Cleanup())

	_, err = os.Stat(o.Destination())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPdnsLuaOutput(t *testing.T) {
	testCases := []struct {
		name      string
		kind      PdnsLua
		blackhole string
		domains   []string
		want      string
	}{{
		name:      "metric",
		kind:      PdnsLua{OutputMetric: true, MetricName: "blocked-queries"},
		blackhole: "0.0.0.0",
		domains:   []string{"example.com"},
		want: `b=newDS() b:add{"example.com",} function preresolve(q) if b:check(q.qname) then ` +
			`if q.qtype==pdns.A then q:addAnswer(pdns.A,"0.0.0.0") m=getMetric("blocked-queries") m:inc() ` +
			"return true end end return false end\n",
	}, {
		name:      "ipv6_without_metric",
		kind:      PdnsLua{},
		blackhole: "::",
		domains:   []string{"example.com", "ads.example # tracker"},
		want: `b=newDS() b:add{"example.com","ads.example",} function preresolve(q) if b:check(q.qname) then ` +
			`if q.qtype==pdns.AAAA then q:addAnswer(pdns.AAAA,"::") ` +
			"return true end end return false end\n",
	}, {
		name:      "empty",
		kind:      PdnsLua{},
		blackhole: "0.0.0.0",
		want: `b=newDS() b:add{} function preresolve(q) if b:check(q.qname) then ` +
			`if q.qtype==pdns.A then q:addAnswer(pdns.A,"0.0.0.0") ` +
			"return true end end return false end\n",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOutput(t, &Config{
				Kind:        tc.kind,
				Destination: filepath.Join(t.TempDir(), "blocklist.lua"),
				Blackhole:   netip.MustParseAddr(tc.blackhole),
			})

			first, body := produce(t, o, tc.domains...)

			assert.True(t, strings.HasPrefix(first, "-- Generated at "))
			assert.Equal(t, tc.want, body)
		})
	}
}

func TestDeduplicate(t *testing.T) {
	for _, dedup := range []bool{true, false} {
		o := newOutput(t, &Config{
			Kind:        Hosts{},
			Destination: filepath.Join(t.TempDir(), "hosts"),
			Deduplicate: dedup,
		})

		_, body := produce(t, o, "example.com", "example.org", "example.com")

		want := 2
		if dedup {
			want = 1
		}
		assert.Equal(t, want, strings.Count(body, "0.0.0.0 example.com\n"), "dedup=%t", dedup)
	}
}

func TestDeduplicateRecordedForm(t *testing.T) {
	lua := newOutput(t, &Config{
		Kind:        PdnsLua{},
		Destination: filepath.Join(t.TempDir(), "blocklist.lua"),
		Deduplicate: true,
	})
	_, body := produce(t, lua, "ads.example", "ads.example # tracker", "ads.example\t#")
	assert.Equal(t, 1, strings.Count(body, `"ads.example",`))

	rpz := newOutput(t, &Config{
		Kind:        RPZ{Zone: "rpz.example"},
		Destination: filepath.Join(t.TempDir(), "db.rpz"),
		Deduplicate: true,
	})
	_, body = produce(t, rpz, "ads.example", "ads.example.")
	assert.Equal(t, 1, strings.Count(body, "ads.example.rpz.example.\t"))
}

func TestCleanupKeepsPreviousArtifact(t *testing.T) {
	dir := t.TempDir()
	dest := testutil.WriteTempFile(t, dir, "hosts", "previous run\n")

	o := newOutput(t, &Config{Kind: Hosts{}, Destination: dest})
	a, err := Activate(o, testNow)
	require.NoError(t, err)
	require.NoError(t, a.Write("example.com"))
	require.NoError(t, a.Cleanup())
	require.NoError(t, a.Cleanup())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestActivateFails(t *testing.T) {
	o := newOutput(t, &Config{
		Kind:        Hosts{},
		Destination: filepath.Join(t.TempDir(), "missing-dir", "hosts"),
	})

	_, err := Activate(o, testNow)
	assert.Error(t, err)
}

func TestRPZOutput(t *testing.T) {
	o := newOutput(t, &Config{
		Kind:        RPZ{Zone: "rpz.example", TTL: 60},
		Destination: filepath.Join(t.TempDir(), "db.rpz"),
	})

	first, body := produce(t, o, "ads.example.com", "bad..name")

	assert.True(t, strings.HasPrefix(first, "; Generated at "))
	assert.Contains(t, body, "$TTL 60\n")
	assert.Contains(t, body, "rpz.example.\t60\tIN\tSOA\tlocalhost. hostmaster.localhost. ")
	assert.Contains(t, body, "ads.example.com.rpz.example.\t60\tIN\tA\t0.0.0.0\n")
	assert.NotContains(t, body, "bad..name")

	_, err := New(&Config{Kind: RPZ{Zone: "bad..zone"}, Destination: "db.rpz"})
	assert.Error(t, err)
}
