package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	cmd := "alerts"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "alerts":
		get(api+"/api/alerts?status=open", key)
	case "history":
		get(api+"/api/metrics/history?minutes=60", key)
	case "test-notification":
		post(api+"/api/test-notification", key)
	default:
		fmt.Fprintln(os.Stderr, "usage: cli [alerts|history|test-notification]")
		os.Exit(2)
	}
}

func get(url, key string) {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	send(req, key)
}

func post(url, key string) {
	req, _ := http.NewRequest(http.MethodPost, url, nil)
	send(req, key)
}

func send(req *http.Request, key string) {
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Println("API returned status:", resp.Status)
		return
	}
	pretty, _ := json.MarshalIndent(body, "", "  ")
	fmt.Println(string(pretty))
	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}
