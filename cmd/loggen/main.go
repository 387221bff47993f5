// loggen posts synthetic log traffic at a fixed rate, for manual testing.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var logSources = []string{"web-server", "database", "auth-service", "payment-gateway", "user-service"}

var errorMessages = []string{
	"Connection timeout",
	"Database query failed",
	"Authentication failed",
	"Invalid input received",
	"Memory allocation error",
	"Segmentation fault detected",
	"Deadlock detected in transaction",
	"File not found",
	"Permission denied",
	"Service unavailable",
}

var infoMessages = []string{
	"User login successful",
	"Transaction completed",
	"Data backup completed",
	"Service started successfully",
	"Configuration loaded",
	"Cache refreshed",
	"Task scheduled",
	"Message sent successfully",
	"File uploaded successfully",
	"API request completed",
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Message   string `json:"message"`
	User      string `json:"user"`
	RequestID string `json:"requestId"`
}

func generate(rng *rand.Rand) logEntry {
	var msg string
	if rng.Intn(3) == 0 {
		msg = errorMessages[rng.Intn(len(errorMessages))]
	} else {
		msg = infoMessages[rng.Intn(len(infoMessages))]
	}
	msg = fmt.Sprintf("%s (ID: %d)", msg, rng.Intn(1000))

	return logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Source:    logSources[rng.Intn(len(logSources))],
		Message:   msg,
		User:      fmt.Sprintf("user-%d", rng.Intn(100)),
		RequestID: uuid.NewString(),
	}
}

func main() {
	addr := flag.String("addr", "http://localhost:3000", "Server base URL")
	rate := flag.Int("rate", 10, "Logs per second")
	count := flag.Int("count", 100, "Total logs to send (0 = run forever)")
	batch := flag.Int("batch", 1, "Logs per request; >1 uses the batch endpoint")
	flag.Parse()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	client := &http.Client{Timeout: 5 * time.Second}
	interval := time.Second / time.Duration(*rate)

	sent := 0
	for *count == 0 || sent < *count {
		var (
			url  string
			body any
			n    int
		)
		if *batch > 1 {
			entries := make([]logEntry, 0, *batch)
			for i := 0; i < *batch; i++ {
				entries = append(entries, generate(rng))
			}
			url = *addr + "/api/ingest/batch"
			body = map[string]any{"logs": entries}
			n = len(entries)
		} else {
			url = *addr + "/api/ingest/log"
			body = generate(rng)
			n = 1
		}

		data, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal: %v", err)
		}
		resp, err := client.Post(url, "application/json", bytes.NewReader(data))
		if err != nil {
			log.Printf("post failed: %v", err)
		} else {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				log.Printf("server returned %d", resp.StatusCode)
			}
		}

		sent += n
		time.Sleep(interval * time.Duration(n))
	}
	log.Printf("sent %d logs", sent)
}
