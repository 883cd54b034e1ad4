package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ciciliostudio/revisit/internal/actions"
	"github.com/ciciliostudio/revisit/internal/engine"
	"github.com/ciciliostudio/revisit/internal/journal"
	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/readiness"
	"github.com/ciciliostudio/revisit/internal/session"
	"github.com/ciciliostudio/revisit/internal/state"
	"github.com/ciciliostudio/revisit/internal/wait"
)

// browserStack bundles the running browser with the components layered on it
type browserStack struct {
	Browser   *engine.Chrome
	Bridge    *wait.Bridge
	Ready     *readiness.Engine
	Extractor *state.Extractor
	Restorer  *state.Restorer
	Replayer  *actions.Replayer
	Recorder  func(rec *session.Record) *actions.Recorder
}

// sessionStore opens the session store for the current project
func sessionStore() *session.Store {
	dir := revisitConfig.Sessions.Dir
	if dir == "" {
		dir = filepath.Join(".revisit", "sessions")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectDir(), dir)
	}
	return session.NewStore(dir)
}

// openJournal opens the run-history journal, or returns nil when disabled
func openJournal() *journal.Journal {
	if !revisitConfig.Journal.Enabled {
		return nil
	}

	path := revisitConfig.Journal.Path
	if path == "" {
		path = filepath.Join(".revisit", "journal.db")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir(), path)
	}

	j, err := journal.Open(path)
	if err != nil {
		logging.Warn("Journal unavailable: %v", err)
		return nil
	}
	return j
}

// recordRun writes one run to the journal when it is enabled
func recordRun(j *journal.Journal, sessionName, kind string, ok bool, detail string, started time.Time) {
	if j == nil {
		return
	}
	if _, err := j.RecordRun(sessionName, kind, ok, detail, time.Since(started)); err != nil {
		logging.Warn("Failed to record run: %v", err)
	}
}

// startBrowser launches Chrome (or attaches to a running instance) and wires
// its events into a fresh readiness engine
func startBrowser(remoteURL string) (*browserStack, error) {
	cfg := revisitConfig

	bridge := wait.NewBridge(cfg.Wait.PollInterval())

	// The readiness engine needs the browser as its script evaluator, and
	// the browser needs callbacks into the engine. Chrome can emit events
	// before NewEngine returns, so the callbacks guard against that window.
	var ready *readiness.Engine

	callbacks := engine.Callbacks{
		OnNavigated: func(url string) {
			if ready != nil {
				ready.NotifyNavigation(url)
			}
		},
		OnLoad: func() {
			if ready != nil {
				ready.NotifyLoad()
			}
		},
		OnDOMMutate: func() {
			if ready != nil {
				ready.NotifyDOMMutation()
			}
		},
		OnNetwork: func(delta int) {
			if ready != nil {
				ready.NotifyNetwork(delta)
			}
		},
		OnCustom: func(payload string) {
			if ready != nil {
				ready.NotifyCustom(payload)
			}
		},
	}

	browser, err := engine.NewChrome(engine.Options{
		Headless:   cfg.Browser.Headless,
		ChromePath: cfg.Browser.ChromePath,
		UserAgent:  cfg.Browser.UserAgent,
		WindowW:    cfg.Browser.WindowW,
		WindowH:    cfg.Browser.WindowH,
		DebugPort:  cfg.Browser.DebugPort,
		RemoteURL:  remoteURL,
	}, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	ready = readiness.NewEngine(bridge, browser, readiness.Options{
		LoadTimeout:      cfg.Wait.LoadTimeout(),
		DOMQuiet:         cfg.Wait.DOMQuiet(),
		NetworkIdle:      cfg.Wait.NetworkIdle(),
		SettleDelay:      cfg.Wait.SettleDelay(),
		ConditionTimeout: cfg.Wait.ConditionTimeout(),
	})

	actionTimeout := cfg.Wait.ActionTimeout()

	return &browserStack{
		Browser:   browser,
		Bridge:    bridge,
		Ready:     ready,
		Extractor: state.NewExtractor(browser, ready, 0),
		Restorer:  state.NewRestorer(browser, ready),
		Replayer:  actions.NewReplayer(browser, actionTimeout),
		Recorder: func(rec *session.Record) *actions.Recorder {
			return actions.NewRecorder(rec, browser, actionTimeout)
		},
	}, nil
}

// Close shuts the browser down
func (b *browserStack) Close() {
	if err := b.Browser.Close(); err != nil {
		logging.Warn("Failed to close browser: %v", err)
	}
}
