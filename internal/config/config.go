package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

const (
	maxActionItems = 12

	defaultAPIURL = "http://localhost:8080"
)

type Runtime struct {
	ConfigFile string

	APIURL          string
	Timeout         time.Duration
	Location        *time.Location
	DefaultView     planner.View
	MaxItems        int
	DeleteWithOwner bool
	Notify          bool

	LogLevel  string
	LogFormat string

	StateDir    string
	MenuDir     string
	MenuPath    string
	EventsPath  string
	DraftPath   string
	SessionPath string
	ExportDir   string
}

func Load() (Runtime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
	}

	xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	xdgState := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}

	defaultConfig := filepath.Join(xdgConfig, "waybar", "weekfitter.env")
	configFile := strings.TrimSpace(os.Getenv("WAYBAR_WEEKFITTER_CONFIG_FILE"))
	if configFile == "" {
		configFile = defaultConfig
	}

	if err := loadEnvFile(configFile); err != nil {
		return Runtime{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("WAYBAR_WEEKFITTER")
	v.AutomaticEnv()

	_ = v.BindEnv("api_url", "WAYBAR_WEEKFITTER_API_URL", "WEEKFITTER_API_URL")
	_ = v.BindEnv("timeout_seconds", "WAYBAR_WEEKFITTER_TIMEOUT_SECONDS")
	_ = v.BindEnv("timezone", "WAYBAR_WEEKFITTER_TIMEZONE", "TZ")
	_ = v.BindEnv("default_view", "WAYBAR_WEEKFITTER_DEFAULT_VIEW", "DEFAULT_VIEW")
	_ = v.BindEnv("max_items", "WAYBAR_WEEKFITTER_MAX_ITEMS", "MAX_ITEMS")
	_ = v.BindEnv("delete_with_owner", "WAYBAR_WEEKFITTER_DELETE_WITH_OWNER")
	_ = v.BindEnv("notify", "WAYBAR_WEEKFITTER_NOTIFY")
	_ = v.BindEnv("log_level", "WAYBAR_WEEKFITTER_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log_format", "WAYBAR_WEEKFITTER_LOG_FORMAT")
	_ = v.BindEnv("state_dir", "WAYBAR_WEEKFITTER_STATE_DIR")
	_ = v.BindEnv("menu_dir", "WAYBAR_WEEKFITTER_MENU_DIR")
	_ = v.BindEnv("export_dir", "WAYBAR_WEEKFITTER_EXPORT_DIR")

	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("timeout_seconds", 15)
	v.SetDefault("timezone", "")
	v.SetDefault("default_view", string(planner.ViewWeek))
	v.SetDefault("max_items", 8)
	v.SetDefault("delete_with_owner", false)
	v.SetDefault("notify", true)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("state_dir", filepath.Join(xdgState, "waybar", "weekfitter"))
	v.SetDefault("menu_dir", filepath.Join(xdgState, "waybar", "menus"))
	v.SetDefault("export_dir", documentsDir(home, xdgConfig))

	apiURL := strings.TrimRight(strings.TrimSpace(v.GetString("api_url")), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if parsed, err := url.Parse(apiURL); err != nil || parsed.Host == "" {
		return Runtime{}, fmt.Errorf("invalid api url %q", apiURL)
	}

	timeoutSeconds := v.GetInt("timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}

	maxItems := v.GetInt("max_items")
	if maxItems < 1 {
		maxItems = 1
	}
	if maxItems > maxActionItems {
		maxItems = maxActionItems
	}

	location := time.Local
	if name := strings.TrimSpace(v.GetString("timezone")); name != "" {
		loaded, err := time.LoadLocation(name)
		if err != nil {
			return Runtime{}, fmt.Errorf("load timezone %q: %w", name, err)
		}
		location = loaded
	}

	view, ok := planner.ParseView(v.GetString("default_view"))
	if !ok {
		view = planner.ViewWeek
	}

	stateDir := strings.TrimSpace(v.GetString("state_dir"))
	if stateDir == "" {
		stateDir = filepath.Join(xdgState, "waybar", "weekfitter")
	}

	menuDir := strings.TrimSpace(v.GetString("menu_dir"))
	if menuDir == "" {
		menuDir = filepath.Join(xdgState, "waybar", "menus")
	}

	exportDir := strings.TrimSpace(v.GetString("export_dir"))
	if exportDir == "" {
		exportDir = home
	}

	return Runtime{
		ConfigFile:      configFile,
		APIURL:          apiURL,
		Timeout:         time.Duration(timeoutSeconds) * time.Second,
		Location:        location,
		DefaultView:     view,
		MaxItems:        maxItems,
		DeleteWithOwner: v.GetBool("delete_with_owner"),
		Notify:          v.GetBool("notify"),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:       strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		StateDir:        stateDir,
		MenuDir:         menuDir,
		MenuPath:        filepath.Join(menuDir, "weekfitter.xml"),
		EventsPath:      filepath.Join(stateDir, "events.json"),
		DraftPath:       filepath.Join(stateDir, "draft.json"),
		SessionPath:     filepath.Join(stateDir, "session.json"),
		ExportDir:       exportDir,
	}, nil
}

// loadEnvFile exports the file's variables without overriding ones already
// set in the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
