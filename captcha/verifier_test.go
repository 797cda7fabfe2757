package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form failed: %v", err)
		}
		if r.PostFormValue("secret") != "s3cret" || r.PostFormValue("response") != "tok" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := New("s3cret", srv.URL, time.Second)
	ok, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("expected verification to pass")
	}
}

func TestVerifyRejectedChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := New("s3cret", srv.URL, time.Second)
	ok, _ := v.Verify(context.Background(), "bad")
	if ok {
		t.Fatal("expected rejected challenge to fail")
	}
}

func TestVerifyFailsClosedOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := New("s3cret", srv.URL, time.Second)
	ok, _ := v.Verify(context.Background(), "tok")
	if ok {
		t.Fatal("server error must not verify")
	}
}

func TestVerifyFailsClosedOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := New("s3cret", srv.URL, 20*time.Millisecond)
	ok, err := v.Verify(context.Background(), "tok")
	if ok {
		t.Fatal("timeout must not verify")
	}
	if err == nil {
		t.Fatal("expected a transport error for logging")
	}
}

func TestVerifyFailsClosedOnUnreachableEndpoint(t *testing.T) {
	v := New("s3cret", "http://127.0.0.1:1", time.Second)
	ok, _ := v.Verify(context.Background(), "tok")
	if ok {
		t.Fatal("unreachable endpoint must not verify")
	}
}

func TestEmptyTokenNeverVerifies(t *testing.T) {
	v := New("s3cret", "http://example.invalid", time.Second)
	ok, err := v.Verify(context.Background(), "")
	if ok || err != nil {
		t.Fatalf("empty token: ok=%v err=%v, want false nil without a network call", ok, err)
	}
}
