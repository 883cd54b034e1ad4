package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ciciliostudio/revisit/internal/logging"
)

// DebuggerTarget represents a Chrome DevTools target
type DebuggerTarget struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	Description          string `json:"description"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// DebuggerScanResult contains the targets found on one debugger port
type DebuggerScanResult struct {
	Port    int
	Targets []DebuggerTarget
}

// commonDebuggerPorts are probed in order; 9222 is Chrome's conventional
// default and comes first.
var commonDebuggerPorts = []int{9222, 9223, 9224, 9225, 9229}

// ScanForDebugger probes common Chrome debugger ports for running instances
func ScanForDebugger() ([]DebuggerScanResult, error) {
	var results []DebuggerScanResult
	var lastError error

	for _, port := range commonDebuggerPorts {
		for _, host := range []string{"localhost", "127.0.0.1"} {
			targets, err := targetsFromHost(host, port)
			if err == nil && len(targets) > 0 {
				results = append(results, DebuggerScanResult{
					Port:    port,
					Targets: targets,
				})
				break
			} else if err != nil {
				lastError = err
			}
		}
	}

	if len(results) == 0 && lastError != nil {
		return results, fmt.Errorf("no debugger instances found, last error: %w", lastError)
	}
	return results, nil
}

// targetsFromHost fetches the target list from one debugger endpoint
func targetsFromHost(host string, port int) ([]DebuggerTarget, error) {
	url := fmt.Sprintf("http://%s:%d/json/list", host, port)

	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var targets []DebuggerTarget
	if err := json.Unmarshal(body, &targets); err != nil {
		return nil, err
	}

	logging.Debug("Got %d debugger targets from %s:%d", len(targets), host, port)
	return targets, nil
}

// ProbeTarget dials a target's debugger websocket to confirm it is still
// alive. Target lists can be stale; a tab closed after the /json/list fetch
// still appears in the list but refuses the upgrade.
func ProbeTarget(target DebuggerTarget) error {
	if target.WebSocketDebuggerURL == "" {
		return fmt.Errorf("target %s has no websocket debugger URL", target.ID)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}
	conn, _, err := dialer.Dial(target.WebSocketDebuggerURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial debugger websocket: %w", err)
	}
	return conn.Close()
}

// FindAttachableTarget scans debugger ports and returns the websocket URL of
// the first live page target, for use as Options.RemoteURL
func FindAttachableTarget() (string, error) {
	results, err := ScanForDebugger()
	if err != nil {
		return "", err
	}

	for _, result := range results {
		for _, target := range result.Targets {
			if target.Type != "" && target.Type != "page" {
				continue
			}
			if err := ProbeTarget(target); err != nil {
				logging.Debug("Skipping stale target %s: %v", target.ID, err)
				continue
			}
			logging.Info("Attaching to %s (port %d): %s", target.Title, result.Port, target.URL)
			return target.WebSocketDebuggerURL, nil
		}
	}
	return "", fmt.Errorf("no attachable Chrome debugger targets found")
}
