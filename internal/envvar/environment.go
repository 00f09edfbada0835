package envvar

import "time"

// ProductionBuildID is the build id of the production environment.
const ProductionBuildID = "default"

// Environment is a deployment target whose variables are edited independently.
type Environment struct {
	ID               string    `json:"id"`
	BuildID          string    `json:"build_id"`
	SourceBranch     string    `json:"source_branch,omitempty"`
	PullRequestTitle string    `json:"pull_request_title,omitempty"`
	Hostname         string    `json:"hostname,omitempty"`
	HasFunctions     bool      `json:"has_functions"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e.BuildID == ProductionBuildID
}

// DisplayName returns the name shown in selectors and messages.
func (e Environment) DisplayName() string {
	switch {
	case e.IsProduction():
		return "Production"
	case e.PullRequestTitle != "":
		return e.PullRequestTitle
	case e.SourceBranch != "":
		return e.SourceBranch
	}
	return e.BuildID
}
