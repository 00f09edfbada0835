package config

import "github.com/dopejs/staticenv/internal/envvar"

// --- Environment convenience functions (delegate to DefaultStore) ---

// ListEnvironments returns all environments, production first.
func ListEnvironments() []envvar.Environment {
	return DefaultStore().ListEnvironments()
}

// GetEnvironment returns the environment with the given id.
func GetEnvironment(id string) (envvar.Environment, error) {
	return DefaultStore().GetEnvironment(id)
}

// AddEnvironment registers a preview environment.
func AddEnvironment(env envvar.Environment) (envvar.Environment, error) {
	return DefaultStore().AddEnvironment(env)
}

// DeleteEnvironment removes a preview environment.
func DeleteEnvironment(id string) error {
	return DefaultStore().DeleteEnvironment(id)
}

// --- Variable convenience functions ---

// GetVariables returns an environment's variables.
func GetVariables(id string) (map[string]string, error) {
	return DefaultStore().GetVariables(id)
}

// SetVariables replaces an environment's variables.
func SetVariables(id string, vars map[string]string) error {
	return DefaultStore().SetVariables(id, vars)
}

// --- Settings ---

// GetWebPort returns the configured web API port.
func GetWebPort() int {
	return DefaultStore().GetWebPort()
}

// ReadOnly reports whether edits are disabled.
func ReadOnly() bool {
	return DefaultStore().ReadOnly()
}
