package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabasePath string   `yaml:"database_path"`
	Blogs        []Blog   `yaml:"blogs"`
	Crawl        Crawl    `yaml:"crawl"`
	Research     Research `yaml:"research"`
	AI           AI       `yaml:"ai"`
	Generate     Generate `yaml:"generate"`
	Publish      Publish  `yaml:"publish"`
	Search       Search   `yaml:"search"`
	Schedule     Schedule `yaml:"schedule"`
	Server       Server   `yaml:"server"`
	Reports      Reports  `yaml:"reports"`
}

type Blog struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Platform string   `yaml:"platform"`
	APIBase  string   `yaml:"api_base"`
	Token    string   `yaml:"token"`
	Category string   `yaml:"category"`
	Sources  []string `yaml:"sources"`

	// OAuth2 refresh flow, used when the platform hands out short-lived
	// access tokens instead of a static one.
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

type Crawl struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxPerSource    int    `yaml:"max_per_source"`
	MaxWorkers      int    `yaml:"max_workers"`
	UserAgent       string `yaml:"user_agent"`
	MinContentChars int    `yaml:"min_content_chars"`
}

type Research struct {
	APIBase         string   `yaml:"api_base"`
	AccessKey       string   `yaml:"access_key"`
	SecretKey       string   `yaml:"secret_key"`
	CustomerID      string   `yaml:"customer_id"`
	MinScore        float64  `yaml:"min_score"`
	CompetitorFeeds []string `yaml:"competitor_feeds"`
}

type AI struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	// CostPerPost is the estimated API spend for one generated post,
	// used for report totals and the budget figure in stats.
	CostPerPost   float64 `yaml:"cost_per_post"`
	MonthlyBudget float64 `yaml:"monthly_budget"`
}

type Generate struct {
	MinChars      int     `yaml:"min_chars"`
	MaxChars      int     `yaml:"max_chars"`
	TitleCount    int     `yaml:"title_count"`
	MaxRetries    int     `yaml:"max_retries"`
	MinSEOScore   float64 `yaml:"min_seo_score"`
	HumanizeBelow float64 `yaml:"humanize_below"`
}

type Publish struct {
	MinIntervalHours int   `yaml:"min_interval_hours"`
	MaxPerDay        int   `yaml:"max_per_day"`
	MaxPerWeek       int   `yaml:"max_per_week"`
	PreferredHours   []int `yaml:"preferred_hours"`
	JitterMinutes    int   `yaml:"jitter_minutes"`
}

// Search configures the blog search API used for rank tracking.
type Search struct {
	APIBase      string `yaml:"api_base"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	MaxRank      int    `yaml:"max_rank"`
	DelayMillis  int    `yaml:"delay_millis"`
}

type Schedule struct {
	CrawlAt    string `yaml:"crawl_at"`
	PublishAt  string `yaml:"publish_at"`
	MonitorAt  string `yaml:"monitor_at"`
	ReportDay  string `yaml:"report_day"`
	IntervalMC int    `yaml:"check_interval_minutes"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Reports struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DatabasePath: filepath.Join(home, ".local", "share", "blogpilot", "blogpilot.db"),
		Blogs:        []Blog{},
		Crawl: Crawl{
			TimeoutSeconds:  30,
			MaxPerSource:    50,
			MaxWorkers:      5,
			UserAgent:       "blogpilot/0.1 (content research)",
			MinContentChars: 300,
		},
		Research: Research{
			MinScore: 40,
		},
		AI: AI{
			Model:         "gpt-4o-mini",
			Temperature:   0.7,
			CostPerPost:   0.05,
			MonthlyBudget: 10,
		},
		Generate: Generate{
			MinChars:      2000,
			MaxChars:      3000,
			TitleCount:    5,
			MaxRetries:    3,
			MinSEOScore:   70,
			HumanizeBelow: 80,
		},
		Publish: Publish{
			MinIntervalHours: 4,
			MaxPerDay:        2,
			MaxPerWeek:       5,
			PreferredHours:   []int{9, 15, 20},
			JitterMinutes:    30,
		},
		Search: Search{
			MaxRank:     100,
			DelayMillis: 500,
		},
		Schedule: Schedule{
			CrawlAt:    "08:00",
			PublishAt:  "09:00,15:00",
			MonitorAt:  "18:00",
			ReportDay:  "monday",
			IntervalMC: 1,
		},
		Server: Server{
			Addr: "localhost:8787",
		},
		Reports: Reports{
			Dir: filepath.Join(home, ".local", "share", "blogpilot", "reports"),
		},
	}
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "blogpilot", "config.yaml"), nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// LoadOrCreate reads the config at path, writing the default config there
// first if no file exists. An empty path means the default location.
func LoadOrCreate(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return Config{}, err
		}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := ensureDir(path); err != nil {
			return Config{}, err
		}
		if err := Save(cfg, path); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	return Load(path)
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	cfg.Reports.Dir = ExpandPath(cfg.Reports.Dir)
	return cfg, nil
}

func Save(cfg Config, path string) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Blog returns the blog entry with the given ID, or the first entry when
// id is empty and exactly one blog is configured.
func (c Config) Blog(id string) (Blog, error) {
	if strings.TrimSpace(id) == "" {
		if len(c.Blogs) == 1 {
			return c.Blogs[0], nil
		}
		return Blog{}, errors.New("blog id required when multiple blogs are configured")
	}
	for _, b := range c.Blogs {
		if b.ID == id {
			return b, nil
		}
	}
	return Blog{}, fmt.Errorf("unknown blog %q", id)
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
