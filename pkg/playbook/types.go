package playbook

// Playbook is the root object that holds the entire configuration for a DeployKit run.
// It's populated by parsing the user's deploykit.yaml file.
type Playbook struct {
	APIVersion string   `yaml:"apiVersion" validate:"required"`
	Kind       string   `yaml:"kind" validate:"required,eq=Playbook"`
	Metadata   Metadata `yaml:"metadata" validate:"required"`
	Spec       Spec     `yaml:"spec" validate:"required"`
}

// Metadata contains application-level metadata.
type Metadata struct {
	Name        string            `yaml:"name" validate:"required"`
	Description string            `yaml:"description"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

// Spec contains the detailed specification for the bootstrap pipeline.
type Spec struct {
	// WorkDir is the application checkout the pipeline runs against.
	// Defaults to the current directory.
	WorkDir      string            `yaml:"workDir"`
	Runtime      Runtime           `yaml:"runtime"`
	Dependencies Dependencies      `yaml:"dependencies" validate:"required"`
	Assets       Assets            `yaml:"assets" validate:"required"`
	Database     Database          `yaml:"database" validate:"required"`
	Env          map[string]string `yaml:"env,omitempty"`
	Notify       *Notify           `yaml:"notify,omitempty"`
}

// Runtime selects where collaborator commands execute.
type Runtime struct {
	Kind string `yaml:"kind" validate:"omitempty,oneof=local docker"`
	// Image is the container image used when Kind is "docker".
	Image string `yaml:"image" validate:"required_if=Kind docker"`
}

// Dependencies configures the dependency install step.
type Dependencies struct {
	Tool     string   `yaml:"tool" validate:"required,oneof=pip npm command"`
	Manifest string   `yaml:"manifest" validate:"required_unless=Tool command"`
	Command  []string `yaml:"command,omitempty" validate:"required_if=Tool command"`
}

// Assets configures the static asset build step.
type Assets struct {
	Builder     string   `yaml:"builder" validate:"required,oneof=copy command"`
	Source      string   `yaml:"source" validate:"required_if=Builder copy"`
	Destination string   `yaml:"destination" validate:"required_if=Builder copy"`
	// Clean removes the destination before copying so deleted sources
	// don't linger across deploys.
	Clean   bool     `yaml:"clean"`
	Command []string `yaml:"command,omitempty" validate:"required_if=Builder command"`
}

// Database configures the schema migration step.
type Database struct {
	Migrator string `yaml:"migrator" validate:"required,oneof=sql command"`
	// URLEnv names the environment variable that holds the connection
	// string. The value itself never appears in the playbook.
	URLEnv     string   `yaml:"urlEnv" validate:"required_if=Migrator sql"`
	Migrations string   `yaml:"migrations" validate:"required_if=Migrator sql"`
	Command    []string `yaml:"command,omitempty" validate:"required_if=Migrator command"`
}

// Notify configures optional deployment status reporting. It is not a
// pipeline step; failures here never affect the run outcome.
type Notify struct {
	Provider string `yaml:"provider" validate:"required,oneof=gitlab"`
	URL      string `yaml:"url" validate:"required,url"`
	Project  string `yaml:"project" validate:"required"`
}
