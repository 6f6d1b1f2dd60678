package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventwatch/pkg/logx"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: url, Cookie: "session=abc"}, logx.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchRecordsOK(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resources":[
			{"title":"A","fields":[{"validationKey":"event_code","value":"E1"}]},
			{"title":"B","fields":[{"validationKey":"event_code","value":"E2"}]}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	records, err := c.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if len(records) != 2 || records[0].Title != "A" || records[1].Title != "B" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if gotCookie != "session=abc" {
		t.Fatalf("cookie header not sent, got %q", gotCookie)
	}
	if gotUA == "" {
		t.Fatalf("user-agent header not sent")
	}
}

func TestFetchRecordsNonSuccessIsExpired(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := newTestClient(t, srv.URL)
		_, err := c.FetchRecords(context.Background())
		srv.Close()
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("status %d: expected ErrSessionExpired, got %v", code, err)
		}
		if ClassifySession(err) != SessionExpired {
			t.Fatalf("status %d: expected SessionExpired classification", code)
		}
	}
}

func TestFetchRecordsTransportFailureIsNotExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, srv.URL)
	_, err := c.FetchRecords(context.Background())
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Fatalf("transport failure must not classify as expiry: %v", err)
	}
	if ClassifySession(err) != FeedUnreachable {
		t.Fatalf("expected FeedUnreachable classification")
	}
}

func TestFetchRecordsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resources": [broken`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchRecords(context.Background())
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Fatalf("decode failure must not classify as expiry")
	}
}

func TestSetCookie(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(`{"resources":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.SetCookie("session=rotated")
	if _, err := c.FetchRecords(context.Background()); err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if gotCookie != "session=rotated" {
		t.Fatalf("expected rotated cookie, got %q", gotCookie)
	}
}

func TestClassifySessionValid(t *testing.T) {
	if ClassifySession(nil) != SessionValid {
		t.Fatalf("nil error must classify as valid")
	}
}
