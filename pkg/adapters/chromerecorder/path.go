package chromerecorder

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ChromePathEnv names the environment variable consulted by FindChrome.
const ChromePathEnv = "CHROME_PATH"

// FindChrome resolves the browser executable: explicit path, then
// CHROME_PATH, then platform defaults with Chromium ahead of Chrome.
// It returns "" when nothing is found.
func FindChrome(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ChromePathEnv); env != "" {
		return env
	}
	for _, candidate := range chromeCandidates() {
		if path := lookExecutable(candidate); path != "" {
			return path
		}
	}
	return ""
}

func chromeCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	case "windows":
		var out []string
		for _, root := range []string{os.Getenv("PROGRAMFILES"), os.Getenv("PROGRAMFILES(X86)"), os.Getenv("LOCALAPPDATA")} {
			if root == "" {
				continue
			}
			out = append(out,
				filepath.Join(root, "Chromium", "Application", "chrome.exe"),
				filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"),
			)
		}
		return out
	default:
		return []string{"chromium", "chromium-browser", "google-chrome-stable", "google-chrome"}
	}
}

// lookExecutable stats absolute paths and searches PATH for bare names.
func lookExecutable(nameOrPath string) string {
	if filepath.IsAbs(nameOrPath) {
		if _, err := os.Stat(nameOrPath); err == nil {
			return nameOrPath
		}
		return ""
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
