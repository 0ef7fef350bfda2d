package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// ErrConsentDenied is returned when the user declines the consent screen.
var ErrConsentDenied = errors.New("oauth consent denied")

// Consent runs the installed-app authorization code flow against a loopback
// redirect on port. The consent URL is handed to show; the function returns
// once the browser has been redirected back or ctx is done.
func Consent(ctx context.Context, cfg *oauth2.Config, port string, show func(url string)) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:"+port)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}
	cfg.RedirectURL = "http://localhost:" + port + "/callback"

	codes := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(codes),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	show(cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case res := <-codes:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type callbackResult struct {
	code string
	err  error
}

func callbackHandler(out chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrConsentDenied, q.Get("error"))
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
		case q.Get("state") != "state-token" || q.Get("code") == "":
			http.Error(w, "invalid OAuth callback", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		}
		select {
		case out <- res:
		default:
		}
	})
	return mux
}

// SaveToken writes tok as JSON readable only by the owner. The file path is
// what saldo expects as a Drive credential.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}
