package config

import (
	"time"

	"github.com/dopejs/staticenv/internal/envvar"
)

const (
	ConfigDir  = ".staticenv"
	ConfigFile = "staticenv.json"
	LogFile    = "staticenv.log"
	PidFile    = "serve.pid"

	DefaultWebPort = 19850

	// CurrentConfigVersion is the newest document version this build reads.
	CurrentConfigVersion = 1
)

// EnvironmentConfig is one environment as stored on disk.
type EnvironmentConfig struct {
	BuildID          string            `json:"build_id"`
	SourceBranch     string            `json:"source_branch,omitempty"`
	PullRequestTitle string            `json:"pull_request_title,omitempty"`
	Hostname         string            `json:"hostname,omitempty"`
	HasFunctions     bool              `json:"has_functions"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Variables        map[string]string `json:"variables"`
}

// Environment converts the stored form into the shared model.
func (e *EnvironmentConfig) Environment(id string) envvar.Environment {
	return envvar.Environment{
		ID:               id,
		BuildID:          e.BuildID,
		SourceBranch:     e.SourceBranch,
		PullRequestTitle: e.PullRequestTitle,
		Hostname:         e.Hostname,
		HasFunctions:     e.HasFunctions,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// Settings holds global options.
type Settings struct {
	WebPort  int  `json:"web_port,omitempty"`
	ReadOnly bool `json:"read_only,omitempty"`
}

// SiteConfig is the top-level document stored in staticenv.json.
type SiteConfig struct {
	Version      int                           `json:"version"`
	Settings     Settings                      `json:"settings"`
	Environments map[string]*EnvironmentConfig `json:"environments"`
}
