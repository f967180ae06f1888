// Package browser opens URLs with the platform's default handler.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Command returns the program and arguments used to open url on goos
func Command(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// Open starts the default handler for url without waiting for it to exit
func Open(url string) error {
	name, args := Command(runtime.GOOS, url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}
