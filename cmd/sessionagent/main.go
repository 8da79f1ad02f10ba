// Package main runs a session lifecycle agent against a fleetgate server:
// keepalive refreshes, idle timeout, and best-effort logout, driven from
// stdin so the timers can be observed interactively.
//
// Lines on stdin count as user activity. Two words are special:
//
//	hide  - mark the tab hidden (keepalive pauses)
//	show  - mark it visible again (immediate refresh)
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"fleetgate/internal/platform/logger"
	"fleetgate/internal/session"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "fleetgate server base URL")
	cookie := flag.String("cookie", "", "session cookie value (required)")
	keepalive := flag.Duration("keepalive", 5*time.Minute, "keepalive refresh interval")
	idle := flag.Duration("idle", 30*time.Minute, "idle timeout window")
	userAgent := flag.String("user-agent", "fleetgate-sessionagent/1.0", "User-Agent for device fingerprinting")
	flag.Parse()

	if *cookie == "" {
		fmt.Fprintln(os.Stderr, "usage: sessionagent -cookie <session> [-server URL] [-keepalive D] [-idle D]")
		os.Exit(2)
	}

	log := logger.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := &http.Client{Timeout: 15 * time.Second}

	refresh := func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, *serverURL+"/api/csrf", nil)
		if err != nil {
			return "", err
		}
		req.AddCookie(&http.Cookie{Name: "fg_session", Value: *cookie})
		req.Header.Set("User-Agent", *userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("token refresh returned %d", resp.StatusCode)
		}

		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", err
		}
		return body.Token, nil
	}

	logout := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, *serverURL+"/api/auth/logout", nil)
		if err != nil {
			return err
		}
		req.AddCookie(&http.Cookie{Name: "fg_session", Value: *cookie})
		req.Header.Set("User-Agent", *userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("logout returned %d", resp.StatusCode)
		}
		return nil
	}

	nav := session.NavigatorFunc(func(target string) {
		fmt.Printf("session ended, navigate to %s\n", target)
		cancel()
	})

	mgr := session.NewManager(session.Config{
		KeepaliveInterval: *keepalive,
		IdleTimeout:       *idle,
		UserAgent:         *userAgent,
	}, refresh, logout, nav, log, nil)

	// Seed the cache so the idle timer arms immediately.
	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	token, err := refresh(initCtx)
	initCancel()
	if err != nil {
		log.Error("initial token refresh failed", "error", err)
		os.Exit(1)
	}
	mgr.Cache().Set(token, time.Now())

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch scanner.Text() {
			case "hide":
				mgr.SetVisible(false)
				fmt.Println("tab hidden")
			case "show":
				mgr.SetVisible(true)
				fmt.Println("tab visible")
			default:
				mgr.Touch()
			}
		}
	}()

	fmt.Printf("session agent running (device %s), type to stay active\n", mgr.Fingerprint())
	if err := mgr.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("session manager stopped", "error", err)
		os.Exit(1)
	}
}
