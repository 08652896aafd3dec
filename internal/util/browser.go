package util

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommands 各平台依次尝试的打开方式
func browserCommands(goos string) [][]string {
	switch goos {
	case "windows":
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler"},
			{"explorer"},
		}
	case "darwin":
		return [][]string{{"open"}}
	default:
		return [][]string{
			{"xdg-open"},
			{"sensible-browser"},
			{"google-chrome"},
			{"firefox"},
		}
	}
}

// OpenBrowser 用系统默认浏览器打开预览页，失败时依次尝试备选命令
func OpenBrowser(url string) error {
	var errs []error
	for _, argv := range browserCommands(runtime.GOOS) {
		args := append(argv[1:len(argv):len(argv)], url)
		if err := exec.Command(argv[0], args...).Start(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", argv[0], err))
			continue
		}
		return nil
	}
	return errors.Join(errs...)
}

// PreviewURL 组件预览地址
func PreviewURL(port int, datasetID string) string {
	if datasetID == "" {
		return fmt.Sprintf("http://localhost:%d/api/datasets", port)
	}
	return fmt.Sprintf("http://localhost:%d/api/datasets/%s/table", port, datasetID)
}
