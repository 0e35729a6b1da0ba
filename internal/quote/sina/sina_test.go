package sina

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "golang.org/x/text/encoding/simplifiedchinese"
    "golang.org/x/text/transform"

    "tickerquote/internal/httpx"
    "tickerquote/internal/quote"
)

func gbk(t *testing.T, s string) []byte {
    t.Helper()
    b, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(s))
    require.NoError(t, err)
    return b
}

func TestFetch_AShare(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/list=sh600519", r.URL.Path)
        require.Equal(t, "https://finance.sina.com.cn", r.Header.Get("Referer"))
        w.Write(gbk(t, `var hq_str_sh600519="贵州茅台,1679.00,1675.00,1680.00,1685.00,1670.00";`))
    }))
    defer srv.Close()

    p := New(Config{URL: srv.URL + "/list="}, httpx.New(2*time.Second))
    q, err := p.Fetch(context.Background(), "600519.SH")
    require.NoError(t, err)
    require.Equal(t, "1680.00", q.Price)
    require.Equal(t, "¥", q.Currency)
    require.Equal(t, "sina", q.Source)
}

func TestFetch_HKUsesRealtimeRow(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/list=rt_hk00700", r.URL.Path)
        w.Write(gbk(t, `var hq_str_rt_hk00700="TENCENT,腾讯控股,322.00,318.00,324.00,317.20,320.40,2.40";`))
    }))
    defer srv.Close()

    p := New(Config{URL: srv.URL + "/list="}, httpx.New(2*time.Second))
    q, err := p.Fetch(context.Background(), "0700.HK")
    require.NoError(t, err)
    require.Equal(t, "320.40", q.Price)
    require.Equal(t, "HK$", q.Currency)
}

func TestFetch_USUnsupported(t *testing.T) {
    p := New(Config{URL: "http://unused/list="}, httpx.New(2*time.Second))
    _, err := p.Fetch(context.Background(), "AAPL")
    require.ErrorIs(t, err, quote.ErrNotFound)
}

func TestFetch_UnknownSymbolEmptyRow(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write(gbk(t, `var hq_str_sh600519="";`))
    }))
    defer srv.Close()

    p := New(Config{URL: srv.URL + "/list="}, httpx.New(2*time.Second))
    _, err := p.Fetch(context.Background(), "600519.SH")
    require.ErrorIs(t, err, quote.ErrNotFound)
}

func TestSymbol(t *testing.T) {
    cases := map[string]string{
        "600519.SH": "sh600519",
        "000001.SZ": "sz000001",
        "0700.HK":   "rt_hk00700",
    }
    for ticker, want := range cases {
        got, err := symbol(ticker)
        require.NoError(t, err)
        require.Equal(t, want, got)
    }
}
