// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lawbook/internal/httputil"
	"github.com/pdiddy/lawbook/pkg/types"
)

const listJSON = `{
  "code": 200,
  "result": {
    "data": [
      {"id": "ff8081", "title": "中华人民共和国民法典", "publish": "2020-05-28 00:00:00", "office": "全国人民代表大会"},
      {"id": "ff8082", "title": "中华人民共和国刑法", "publish": "2020-12-26 00:00:00"}
    ],
    "totalSizes": 2
  }
}`

const detailJSON = `{
  "code": 200,
  "result": {
    "title": "中华人民共和国民法典",
    "body": [
      {"type": "WORD", "path": "/2020/minfadian.docx"},
      {"type": "HTML", "path": "2020/minfadian.html"},
      {"type": "PDF", "url": "https://mirror.example/minfadian.pdf"}
    ]
  }
}`

// recorder keeps the requests a test server received.
type recorder struct {
	mu   sync.Mutex
	reqs []*http.Request
}

func (r *recorder) first() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[0]
}

func newTestServer(t *testing.T) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, r)
		rec.mu.Unlock()
		switch r.URL.Path {
		case listPath:
			if r.URL.Query().Get("page") == "1" {
				w.Write([]byte(listJSON))
				return
			}
			w.Write([]byte(`{"code":200,"result":{"data":[]}}`))
		case detailPath:
			w.Write([]byte(detailJSON))
		case "/files/2020/minfadian.docx":
			w.Write([]byte("docx-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts, rec
}

func TestListPage(t *testing.T) {
	ts, reqs := newTestServer(t)
	c := New(ts.Client(), types.CatalogConfig{
		BaseURL:    ts.URL + "/",
		SearchType: "1,3",
		Params:     []types.QueryParam{{Key: "xlwj", Values: []string{"02", "03"}}},
	})

	got, err := c.ListPage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ff8081", got[0].ID)
	assert.Equal(t, "中华人民共和国民法典", got[0].Title)
	assert.Equal(t, "2020-05-28 00:00:00", got[0].Publish)
	assert.Equal(t, "全国人民代表大会", got[0].Office)

	first := reqs.first()
	q := first.URL.Query()
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "10", q.Get("size"))
	assert.Equal(t, "1,3", q.Get("searchType"))
	assert.Equal(t, []string{"02", "03"}, q["xlwj"])
	assert.Equal(t, defaultUserAgent, first.Header.Get("User-Agent"))

	empty, err := c.ListPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDetailResolvesFileURLs(t *testing.T) {
	ts, _ := newTestServer(t)
	c := New(ts.Client(), types.CatalogConfig{BaseURL: ts.URL, FileBaseURL: ts.URL + "/files/"})

	d, err := c.Detail(context.Background(), "ff8081")
	require.NoError(t, err)

	assert.Equal(t, "ff8081", d.ID)
	require.Len(t, d.Body, 3)
	assert.Equal(t, types.FormatWord, d.Body[0].Type)
	assert.Equal(t, ts.URL+"/files/2020/minfadian.docx", d.Body[0].URL)
	assert.Equal(t, ts.URL+"/files/2020/minfadian.html", d.Body[1].URL)
	assert.Equal(t, "https://mirror.example/minfadian.pdf", d.Body[2].URL)

	data, err := c.Fetch(context.Background(), d.Body[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "docx-bytes", string(data))
}

func TestErrorsWrapStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()
	c := New(ts.Client(), types.CatalogConfig{BaseURL: ts.URL, HTTPConfig: types.HTTPConfig{MaxRetries: 1}})

	_, err := c.ListPage(context.Background(), 1)
	assert.ErrorIs(t, err, httputil.ErrStatus)

	_, err = c.Detail(context.Background(), "x")
	assert.ErrorIs(t, err, httputil.ErrStatus)
}

func TestMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer ts.Close()
	c := New(ts.Client(), types.CatalogConfig{BaseURL: ts.URL})

	_, err := c.ListPage(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestPublishDate(t *testing.T) {
	assert.Equal(t, "2020-05-28", PublishDate("2020-05-28 00:00:00"))
	assert.Equal(t, "2020-05-28", PublishDate("2020-05-28"))
	assert.Equal(t, "", PublishDate(""))
}
