package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"

	"deploykit/pkg/runtime"
)

// ContainerWorkDir is where the application checkout is mounted inside the
// bootstrap container.
const ContainerWorkDir = "/workspace"

// DockerExecutor implements the Executor interface by running each
// invocation in a fresh container of the configured image, with the work
// directory bind-mounted. This mirrors running the bootstrap inside the
// application's own image.
type DockerExecutor struct {
	client *client.Client
	image  string
	pulled bool
}

// NewDockerExecutor creates a new DockerExecutor using client.FromEnv.
func NewDockerExecutor(imageName string) (*DockerExecutor, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	if _, err := dockerClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerExecutor{
		client: dockerClient,
		image:  imageName,
	}, nil
}

// Run executes the invocation inside a container and returns its result.
// The image is pulled once per executor lifetime.
func (d *DockerExecutor) Run(ctx context.Context, inv runtime.Invocation) (runtime.Result, error) {
	if !d.pulled {
		if err := d.pullImage(ctx); err != nil {
			return runtime.Result{}, err
		}
		d.pulled = true
	}

	hostDir, err := filepath.Abs(inv.WorkDir)
	if err != nil {
		return runtime.Result{}, fmt.Errorf("failed to resolve work directory: %w", err)
	}

	// Convert env vars to slice format
	var envVars []string
	for key, value := range inv.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", key, value))
	}

	containerConfig := &container.Config{
		Image:      d.image,
		Cmd:        append([]string{inv.Program}, inv.Args...),
		Env:        envVars,
		WorkingDir: ContainerWorkDir,
	}

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: hostDir,
				Target: ContainerWorkDir,
			},
		},
	}

	slog.Info("Running container", "image", d.image, "program", inv.Program, "args", inv.Args)

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return runtime.Result{}, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := resp.ID

	defer func() {
		if err := d.client.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
			slog.Error("Failed to remove container", "containerID", containerID, "error", err)
		}
	}()

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return runtime.Result{}, fmt.Errorf("failed to start container: %w", err)
	}

	// Wait for the container to exit and capture its status code
	statusCh, errCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			return runtime.Result{}, fmt.Errorf("failed to wait for container: %w", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	output, err := d.collectLogs(ctx, containerID)
	if err != nil {
		return runtime.Result{}, err
	}

	return runtime.Result{
		ExitCode: exitCode,
		Output:   output,
	}, nil
}

// pullImage pulls the configured image.
func (d *DockerExecutor) pullImage(ctx context.Context) error {
	slog.Info("Pulling Docker image", "image", d.image)

	reader, err := d.client.ImagePull(ctx, d.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", d.image, err)
	}
	defer reader.Close()

	// Stream the pull output (but don't print it to avoid clutter)
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled Docker image", "image", d.image)
	return nil
}

// collectLogs reads the container's combined output after it has exited.
func (d *DockerExecutor) collectLogs(ctx context.Context, containerID string) (string, error) {
	logs, err := d.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get container logs: %w", err)
	}
	defer logs.Close()

	data, err := io.ReadAll(logs)
	if err != nil {
		return "", fmt.Errorf("failed to read container logs: %w", err)
	}

	return string(data), nil
}

// Ensure DockerExecutor implements runtime.Executor.
var _ runtime.Executor = (*DockerExecutor)(nil)
