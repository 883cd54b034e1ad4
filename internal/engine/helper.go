package engine

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ciciliostudio/revisit/internal/logging"
)

// FindChrome attempts to find a Chrome executable
func FindChrome() (string, error) {
	var paths []string

	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
		}
	case "linux":
		paths = []string{
			"google-chrome",
			"google-chrome-stable",
			"chromium",
			"chromium-browser",
		}
	case "windows":
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chrome.exe`,
		}
	}

	for _, path := range paths {
		// On macOS the app bundles are plain paths; elsewhere search PATH
		if runtime.GOOS == "darwin" {
			if _, err := os.Stat(path); err == nil {
				logging.Debug("Found Chrome at: %s", path)
				return path, nil
			}
		} else {
			if found, err := exec.LookPath(path); err == nil {
				logging.Debug("Found Chrome at: %s", found)
				return found, nil
			}
		}
	}

	if path, err := exec.LookPath("chrome"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("Chrome browser not found. Please install Chrome, Chromium, or Brave")
}
