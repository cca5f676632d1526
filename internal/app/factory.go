package app

import (
	"fmt"

	"deploykit/internal/assets"
	"deploykit/internal/installer"
	"deploykit/internal/migrator"
	"deploykit/internal/notify"
	rt "deploykit/internal/runtime"
	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// CollaboratorFactory provides methods to create the pipeline's external
// collaborators based on playbook identifiers. This decouples the
// orchestrator from concrete collaborator implementations.
type CollaboratorFactory struct{}

// NewCollaboratorFactory creates a new instance of CollaboratorFactory.
func NewCollaboratorFactory() *CollaboratorFactory {
	return &CollaboratorFactory{}
}

// GetExecutor returns the execution runtime the playbook selects.
func (f *CollaboratorFactory) GetExecutor(spec *playbook.Spec) (runtime.Executor, error) {
	switch spec.Runtime.Kind {
	case "", "local":
		return rt.NewLocalExecutor(), nil
	case "docker":
		executor, err := rt.NewDockerExecutor(spec.Runtime.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to create Docker executor: %w", err)
		}
		return executor, nil
	default:
		return nil, fmt.Errorf("unsupported runtime: %s", spec.Runtime.Kind)
	}
}

// GetInstaller returns the dependency installer the playbook selects.
func (f *CollaboratorFactory) GetInstaller(tool string, executor runtime.Executor) (installer.Installer, error) {
	switch tool {
	case "pip":
		return installer.NewPipInstaller(executor), nil
	case "npm":
		return installer.NewNpmInstaller(executor), nil
	case "command":
		return installer.NewCommandInstaller(executor), nil
	default:
		return nil, fmt.Errorf("unsupported dependency tool: %s", tool)
	}
}

// GetBuilder returns the static asset builder the playbook selects.
func (f *CollaboratorFactory) GetBuilder(builder string, executor runtime.Executor) (assets.Builder, error) {
	switch builder {
	case "copy":
		return assets.NewCopyBuilder(), nil
	case "command":
		return assets.NewCommandBuilder(executor), nil
	default:
		return nil, fmt.Errorf("unsupported asset builder: %s", builder)
	}
}

// GetMigrator returns the schema migrator the playbook selects.
func (f *CollaboratorFactory) GetMigrator(kind string, executor runtime.Executor) (migrator.Migrator, error) {
	switch kind {
	case "sql":
		return migrator.NewSQLMigrator(), nil
	case "command":
		return migrator.NewCommandMigrator(executor), nil
	default:
		return nil, fmt.Errorf("unsupported migrator: %s", kind)
	}
}

// GetNotifier returns the deployment status notifier, or nil when the
// playbook doesn't configure one.
func (f *CollaboratorFactory) GetNotifier(cfg *playbook.Notify) (notify.Notifier, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Provider {
	case "gitlab":
		notifier, err := notify.NewGitLabNotifier(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitLab notifier: %w", err)
		}
		return notifier, nil
	default:
		return nil, fmt.Errorf("unsupported notify provider: %s", cfg.Provider)
	}
}
