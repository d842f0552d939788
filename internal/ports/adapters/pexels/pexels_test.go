package pexels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/scenereel/internal/ports"
)

func newTestAdapter(baseURL string) *Adapter {
	return New("test-key", Options{BaseURL: baseURL})
}

func TestSearch_SendsQueryAndDecodesVideos(t *testing.T) {
	var gotAuth, gotQuery, gotPerPage, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		gotPerPage = r.URL.Query().Get("per_page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"videos":[{"id":7,"url":"https://pexels.test/v/7","duration":12,"width":1920,"height":1080,
			"video_files":[{"link":"https://cdn.test/7.mp4","quality":"hd","file_type":"video/mp4","width":1280,"height":720},
			{"link":"https://cdn.test/7-sd.mp4","quality":"sd"}]}]}`)
	}))
	defer srv.Close()

	got, err := newTestAdapter(srv.URL).Search(context.Background(), "ocean waves at sunset")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/videos/search" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "test-key" {
		t.Fatalf("authorization = %q, want %q", gotAuth, "test-key")
	}
	if gotQuery != "ocean waves at sunset" || gotPerPage != "1" {
		t.Fatalf("unexpected params query=%q per_page=%q", gotQuery, gotPerPage)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(got))
	}
	if got[0].MediaLink() != "https://cdn.test/7.mp4" {
		t.Fatalf("expected first file link, got %q", got[0].MediaLink())
	}
	if got[0].Duration.Seconds() != 12 {
		t.Fatalf("unexpected duration %v", got[0].Duration)
	}
}

func TestSearch_NoResultsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"videos":[],"total_results":0}`)
	}))
	defer srv.Close()

	got, err := newTestAdapter(srv.URL).Search(context.Background(), "nothing matches")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no descriptors, got %d", len(got))
	}
}

func TestSearch_DropsVideosWithoutFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"videos":[{"id":1,"video_files":[]}]}`)
	}))
	defer srv.Close()

	got, err := newTestAdapter(srv.URL).Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected video without files to be dropped, got %d", len(got))
	}
}

func TestSearch_ServiceErrorIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key test-key"}`)
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL).Search(context.Background(), "x")
	var se *ports.SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ports.SearchError, got %T %v", err, err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", se.StatusCode)
	}
	if strings.Contains(se.Body, "test-key") {
		t.Fatalf("expected api key to be redacted, got %q", se.Body)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := newTestAdapter("http://127.0.0.1:1").Search(context.Background(), "   ")
	var se *ports.SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ports.SearchError, got %v", err)
	}
}

func TestDownload_WritesFile(t *testing.T) {
	payload := strings.Repeat("v", 100_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "scene_001.mp4")
	n, err := newTestAdapter(srv.URL).Download(context.Background(), srv.URL+"/clip.mp4", dest)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("wrote %d bytes, want %d", n, len(payload))
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(b) != payload {
		t.Fatalf("content mismatch")
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected .part file to be gone, stat err=%v", err)
	}
}

func TestDownload_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "scene_001.mp4")
	_, err := newTestAdapter(srv.URL).Download(context.Background(), srv.URL+"/missing.mp4", dest)
	var te *ports.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ports.TransportError, got %T %v", err, err)
	}
	if te.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", te.StatusCode)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("expected no dest file, stat err=%v", err)
	}
}

func TestDownload_TruncatedBodyLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Errorf("server does not support hijacking")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: video/mp4\r\nContent-Length: 1000\r\n\r\nshort")
		buf.Flush()
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "scene_002.mp4")
	_, err := newTestAdapter(srv.URL).Download(context.Background(), srv.URL+"/clip.mp4", dest)
	var te *ports.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ports.TransportError, got %T %v", err, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after truncated download, found %d", len(entries))
	}
}

func TestDownload_LocalWriteFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("clip-bytes"))
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)

	// Parent directory does not exist, so the .part file cannot be created.
	missing := filepath.Join(t.TempDir(), "gone", "scene_003.mp4")
	_, err := a.Download(context.Background(), srv.URL+"/clip.mp4", missing)
	var te *ports.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("create failure: expected *ports.TransportError, got %T %v", err, err)
	}
	if te.URL != srv.URL+"/clip.mp4" {
		t.Fatalf("url = %q", te.URL)
	}

	// dest is an existing non-empty directory, so the final rename fails.
	dir := t.TempDir()
	dest := filepath.Join(dir, "scene_004.mp4")
	if err := os.MkdirAll(filepath.Join(dest, "occupied"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err = a.Download(context.Background(), srv.URL+"/clip.mp4", dest)
	if !errors.As(err, &te) {
		t.Fatalf("rename failure: expected *ports.TransportError, got %T %v", err, err)
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected .part removed, stat err=%v", err)
	}
}
