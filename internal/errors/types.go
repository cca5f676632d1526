package errors

import "errors"

var (
	ErrPlaybookNotFound        = errors.New("playbook file not found")
	ErrPlaybookParseFailed     = errors.New("playbook parsing failed")
	ErrDependencyInstallFailed = errors.New("dependency install failed")
	ErrAssetBuildFailed        = errors.New("asset build failed")
	ErrSchemaMigrationFailed   = errors.New("schema migration failed")
	ErrRuntimeFailed           = errors.New("runtime operation failed")
	ErrDatabaseFailed          = errors.New("database operation failed")
	ErrConfigInvalid           = errors.New("configuration invalid")
	ErrFileSystemFailed        = errors.New("filesystem operation failed")
)

// DeployError carries the failing step's identity plus operator guidance.
// ExitCode, when non-zero, is the underlying tool's own exit code and is
// passed through as the process exit status.
type DeployError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	ExitCode    int
	OriginalErr error
}

func (e *DeployError) Error() string {
	return e.OriginalErr.Error()
}

func (e *DeployError) Unwrap() error {
	return e.OriginalErr
}

func NewDeployError(errorType error, context, cause, suggestion string, originalErr error) *DeployError {
	return &DeployError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewPlaybookError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrPlaybookNotFound, context, cause, suggestion, originalErr)
}

func NewParseError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrPlaybookParseFailed, context, cause, suggestion, originalErr)
}

func NewInstallError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrDependencyInstallFailed, context, cause, suggestion, originalErr)
}

func NewAssetError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrAssetBuildFailed, context, cause, suggestion, originalErr)
}

func NewMigrationError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrSchemaMigrationFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewDatabaseError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrDatabaseFailed, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *DeployError {
	return NewDeployError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}
