// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	webhook := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (admin routes will 403).")
	}
	if pub == "" {
		fail("PUBLIC_API_KEYS is empty (read routes will 401).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	for _, name := range []string{"CPU_THRESHOLD", "MEMORY_THRESHOLD", "DISK_THRESHOLD"} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue // default applies
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail(name + "=" + v + " is not a number.")
		}
		if f > 100 {
			fail(name + "=" + v + " is above 100%.")
		}
		if f <= 0 {
			warn(name + "=" + v + " disables evaluation for that metric.")
		}
	}

	if v := strings.TrimSpace(os.Getenv("CHECK_INTERVAL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			fail("CHECK_INTERVAL_SEC=" + v + " must be a positive integer.")
		}
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; default in your app may be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if db == "" {
		warn("DATABASE_URL empty — API will use in-memory stores; alert history is lost on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if webhook == "" {
		warn("SLACK_WEBHOOK_URL empty — alerts will be evaluated but never delivered.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	ok("preflight passed")
}
