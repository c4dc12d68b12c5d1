// Command mint-token prints a bearer token for an account id, signed with
// the server's JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"campus-events/internal/auth"
	"campus-events/internal/config"
)

func main() {
	uid := flag.String("uid", "", "account id the token identifies")
	ttl := flag.Duration("ttl", auth.DefaultTTL, "token lifetime")
	flag.Parse()

	if *uid == "" {
		fmt.Fprintln(os.Stderr, "usage: mint-token -uid <account id> [-ttl 15m]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	tok, err := auth.MakeTokenTTL(*uid, cfg.JWTSecret, *ttl)
	if err != nil {
		slog.Error("sign token", "err", err)
		os.Exit(1)
	}
	fmt.Println(tok)
	slog.Info("token issued", "uid", *uid, "expires", time.Now().Add(*ttl).Format(time.RFC3339))
}
