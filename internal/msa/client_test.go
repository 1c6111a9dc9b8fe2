package msa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hexbound/craftauth/internal/httpx"
)

func TestRequestDeviceCode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     *DeviceAuthorization
		wantErr  error
		wantHTTP bool // expect a *httpx.StatusError
	}{
		{
			name:   "valid response",
			status: http.StatusOK,
			body:   `{"user_code":"ABCD-1234","device_code":"dcode","verification_uri":"https://www.microsoft.com/link","expires_in":900,"interval":5,"message":"visit the link"}`,
			want: &DeviceAuthorization{
				UserCode:        "ABCD-1234",
				DeviceCode:      "dcode",
				VerificationURI: "https://www.microsoft.com/link",
				ExpiresIn:       900,
				Interval:        5,
				Message:         "visit the link",
			},
		},
		{
			name:    "missing device code",
			status:  http.StatusOK,
			body:    `{"user_code":"ABCD-1234","verification_uri":"https://www.microsoft.com/link"}`,
			wantErr: httpx.ErrMalformedResponse,
		},
		{
			name:    "missing user code",
			status:  http.StatusOK,
			body:    `{"device_code":"dcode"}`,
			wantErr: httpx.ErrMalformedResponse,
		},
		{
			name:     "provider failure",
			status:   http.StatusBadRequest,
			body:     `{"error":"invalid_client"}`,
			wantHTTP: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				w.WriteHeader(tt.status)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Fatalf("writing response: %v", err)
				}
			}))
			defer srv.Close()

			client, err := NewClient("client-1", WithEndpoints(srv.URL, srv.URL+"/token"))
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			got, err := client.RequestDeviceCode(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantHTTP {
				var statusErr *httpx.StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("error = %v, want *httpx.StatusError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestDeviceCode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("authorization mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewClientRequiresClientID(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("NewClient with empty client ID succeeded, want error")
	}
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %q, want refresh-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh-2","token_type":"Bearer","expires_in":3600}`)); err != nil {
			t.Fatalf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	client, err := NewClient("client-1", WithEndpoints(srv.URL+"/devicecode", srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	token, err := client.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if token.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "fresh")
	}
	if token.RefreshToken != "refresh-2" {
		t.Errorf("RefreshToken = %q, want %q", token.RefreshToken, "refresh-2")
	}
	if token.ExpiresIn <= 0 || token.ExpiresIn > 3600 {
		t.Errorf("ExpiresIn = %d, want within (0, 3600]", token.ExpiresIn)
	}
}

func TestRefreshProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		if _, err := w.Write([]byte(`{"error":"invalid_grant"}`)); err != nil {
			t.Fatalf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	client, err := NewClient("client-1", WithEndpoints(srv.URL+"/devicecode", srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Refresh(context.Background(), "stale")
	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *httpx.StatusError", err)
	}
	if statusErr.OAuthCode != "invalid_grant" {
		t.Errorf("OAuthCode = %q, want invalid_grant", statusErr.OAuthCode)
	}
}
