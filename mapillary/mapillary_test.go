package mapillary

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientRequiresToken(t *testing.T) {

	_, err := NewClient("")

	if err == nil {
		t.Fatal("Expected error for missing token")
	}
}

func TestThumbURL(t *testing.T) {

	ctx := context.Background()

	var seen_path string
	var seen_query string
	var seen_auth string

	s := httptest.NewServer(http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {
		seen_path = req.URL.Path
		seen_query = req.URL.RawQuery
		seen_auth = req.Header.Get("Authorization")
		fmt.Fprint(rsp, `{"thumb_original_url":"https://cdn.example.com/thumb.jpg","id":"123"}`)
	}))

	defer s.Close()

	c, err := NewClient("s3kr3t", WithEndpoint(s.URL))

	if err != nil {
		t.Fatalf("Failed to create client, %v", err)
	}

	url, err := c.ThumbURL(ctx, "123")

	if err != nil {
		t.Fatalf("Failed to resolve thumb URL, %v", err)
	}

	if url != "https://cdn.example.com/thumb.jpg" {
		t.Fatalf("Unexpected URL %s", url)
	}

	if seen_path != "/123" {
		t.Fatalf("Unexpected request path %s", seen_path)
	}

	if seen_query != "fields=thumb_original_url" {
		t.Fatalf("Unexpected query %s", seen_query)
	}

	if seen_auth != "OAuth s3kr3t" {
		t.Fatalf("Unexpected Authorization header %s", seen_auth)
	}
}

func TestThumbURLErrors(t *testing.T) {

	ctx := context.Background()

	s := httptest.NewServer(http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {

		switch req.URL.Path {
		case "/missing":
			fmt.Fprint(rsp, `{"id":"missing"}`)
		default:
			http.Error(rsp, "forbidden", http.StatusForbidden)
		}
	}))

	defer s.Close()

	c, _ := NewClient("s3kr3t", WithEndpoint(s.URL))

	_, err := c.ThumbURL(ctx, "missing")

	if err == nil {
		t.Fatal("Expected error for response missing thumb_original_url")
	}

	_, err = c.ThumbURL(ctx, "nope")

	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
}

func TestDownload(t *testing.T) {

	ctx := context.Background()

	s := httptest.NewServer(http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {
		rsp.Write([]byte("jpeg bytes"))
	}))

	defer s.Close()

	c, _ := NewClient("s3kr3t")

	var buf bytes.Buffer

	n, err := c.Download(ctx, s.URL, &buf)

	if err != nil {
		t.Fatalf("Failed to download, %v", err)
	}

	if n != int64(len("jpeg bytes")) {
		t.Fatalf("Unexpected byte count %d", n)
	}

	if buf.String() != "jpeg bytes" {
		t.Fatalf("Unexpected body %s", buf.String())
	}
}
