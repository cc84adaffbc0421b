package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockintel/pkg/stockintel"
)

func newServer(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"companies":[{"symbol":"TCS","name":"Tata Consultancy Services","sector":"IT"}],"count":1}`))
	})
	mux.HandleFunc("GET /data/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("symbol") != "TCS" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Symbol not found"}`))
			return
		}
		w.Write([]byte(`{"symbol":"TCS","data":[{"date":"2024-01-02","close":3510.5},{"date":"2024-01-01","close":null}],"count":2}`))
	})
	mux.HandleFunc("GET /insights/gainers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"gainers":[{"symbol":"INFY","avg_return":1.25}],"count":1}`))
	})
	mux.HandleFunc("GET /insights/losers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"losers":[{"symbol":"WIPRO","avg_return":-0.8}],"count":1}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// execute runs the command tree against api and returns its output.
func execute(api string, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd("http://unused.invalid", time.Second)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api", api}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	api := newServer(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"version"}, "stockintel-cli " + version},
		{[]string{"--version"}, version},
		{[]string{"companies"}, "Tata Consultancy Services"},
		{[]string{"series", "TCS"}, "2024-01-02     3510.50"},
		{[]string{"series", "TCS", "7"}, "2024-01-02     3510.50"},
		{[]string{"gainers", "3"}, "1. INFY         +1.25%"},
		{[]string{"losers"}, "1. WIPRO        -0.80%"},
		{[]string{"--timeout", "2s", "losers", "1"}, "1. WIPRO        -0.80%"},
	}
	for _, tt := range tests {
		out, err := execute(api, tt.args...)
		if err != nil {
			t.Errorf("%v: %v", tt.args, err)
			continue
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%v output = %q, want it to contain %q", tt.args, out, tt.want)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	api := newServer(t)

	if _, err := execute(api, "series", "NOPE"); !errors.Is(err, stockintel.ErrNotFound) {
		t.Errorf("series NOPE err = %v, want ErrNotFound", err)
	}
	for _, args := range [][]string{
		{"summary"},
		{"series"},
		{"series", "TCS", "30", "extra"},
		{"compare", "TCS"},
		{"gainers", "1", "2"},
		{"gainers", "x"},
		{"losers", "0"},
		{"bogus"},
		{"--timeout", "soon", "companies"},
	} {
		if _, err := execute(api, args...); err == nil {
			t.Errorf("%v: want error", args)
		}
	}
}
