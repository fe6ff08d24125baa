package ada

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/igorsilveira/ada/pkg/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose issues with the Ada installation",
	RunE:  runDoctor,
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	nameStyle = lipgloss.NewStyle().Width(18)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Printf("Ada Doctor v%s\n", version)
	fmt.Println(dimStyle.Render(fmt.Sprintf("Platform: %s/%s  Go: %s", runtime.GOOS, runtime.GOARCH, runtime.Version())))
	fmt.Println()

	cfg := config.Current()
	checks := []checkResult{
		checkDataDir(),
		checkConfig(),
		checkDatabase(cfg),
		checkAPIKey(cfg),
		checkCapabilities(cfg),
		checkGatewayHealth(cfg),
	}

	passed, failed := 0, 0
	for _, c := range checks {
		status := passStyle.Render("✓")
		if !c.ok {
			status = failStyle.Render("✗")
			failed++
		} else {
			passed++
		}
		fmt.Printf("  %s %s %s\n", status, nameStyle.Render(c.name), c.detail)
	}

	fmt.Printf("\n%d passed, %d failed\n", passed, failed)

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func checkDataDir() checkResult {
	dir := config.DataDir()
	info, err := os.Stat(dir)
	if err != nil {
		return checkResult{"Data directory", false, fmt.Sprintf("%s does not exist", dir)}
	}
	if !info.IsDir() {
		return checkResult{"Data directory", false, fmt.Sprintf("%s is not a directory", dir)}
	}
	return checkResult{"Data directory", true, dir}
}

func checkConfig() checkResult {
	path := configPath()
	if _, err := os.Stat(path); err != nil {
		return checkResult{"Config file", true, fmt.Sprintf("%s not found (using defaults)", path)}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return checkResult{"Config file", false, fmt.Sprintf("parse error: %s", err)}
	}
	return checkResult{"Config file", true, fmt.Sprintf("%s (port %d)", path, cfg.Gateway.Port)}
}

func checkDatabase(cfg *config.Config) checkResult {
	info, err := os.Stat(cfg.Store.DSN)
	if err != nil {
		return checkResult{"Database", true, fmt.Sprintf("%s not found (will be created on first start)", cfg.Store.DSN)}
	}
	return checkResult{"Database", true, fmt.Sprintf("%s (%d KB)", cfg.Store.DSN, info.Size()/1024)}
}

func checkAPIKey(cfg *config.Config) checkResult {
	key := cfg.Live.APIKey()
	if key == "" {
		return checkResult{"Gemini API key", false, fmt.Sprintf("%s not set", cfg.Live.APIKeyEnv)}
	}
	return checkResult{"Gemini API key", true, fmt.Sprintf("set (%d chars)", len(key))}
}

func checkCapabilities(cfg *config.Config) checkResult {
	if len(cfg.Live.Capabilities) == 0 {
		return checkResult{"Capabilities", false, "none enabled, every frame and audio chunk will be dropped"}
	}
	return checkResult{"Capabilities", true, fmt.Sprintf("%v on %s", cfg.Live.Capabilities, cfg.Live.Model)}
}

func checkGatewayHealth(cfg *config.Config) checkResult {
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Gateway.Port)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return checkResult{"Relay", false, "not running"}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return checkResult{"Relay", true, fmt.Sprintf("running at :%d", cfg.Gateway.Port)}
	}
	return checkResult{"Relay", false, fmt.Sprintf("unhealthy (status %d)", resp.StatusCode)}
}
