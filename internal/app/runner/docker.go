package runner

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"learncode/internal/platform/logger"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"
)

const dockerWorkDir = "/workspace"

// DockerRunner runs every program in a fresh container without network access.
type DockerRunner struct {
	cli       *client.Client
	timeLimit time.Duration
	memoryMB  int64
	nanoCPUs  int64
}

func NewDockerRunner(timeLimit time.Duration) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerRunner{cli: cli, timeLimit: timeLimit, memoryMB: 256, nanoCPUs: 1_000_000_000}, nil
}

func (r *DockerRunner) Close() error {
	return r.cli.Close()
}

// PullImages fetches the toolchain images ahead of the first job.
func (r *DockerRunner) PullImages(ctx context.Context) error {
	for _, img := range Images() {
		logger.L().Info("pulling image", zap.String("image", img))
		rc, err := r.cli.ImagePull(ctx, img, image.PullOptions{})
		if err != nil {
			return fmt.Errorf("pull %s: %w", img, err)
		}
		_, _ = io.Copy(io.Discard, rc)
		rc.Close()
	}
	return nil
}

func (r *DockerRunner) Run(ctx context.Context, language, code, input string) (*Output, error) {
	tc, err := lookup(language)
	if err != nil {
		return nil, err
	}

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:      tc.image,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: dockerWorkDir,
		Tty:        false,
	}, &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   r.memoryMB * 1024 * 1024,
			NanoCPUs: r.nanoCPUs,
		},
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.cli.ContainerRemove(cleanupCtx, resp.ID, container.RemoveOptions{Force: true}); err != nil {
			logger.L().Warn("remove container", zap.String("container_id", resp.ID), zap.Error(err))
		}
	}()

	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	archive, err := tarFiles(map[string]string{tc.source: code, "input.txt": input})
	if err != nil {
		return nil, err
	}
	if err := r.cli.CopyToContainer(ctx, resp.ID, dockerWorkDir, archive, container.CopyToContainerOptions{}); err != nil {
		return nil, fmt.Errorf("copy to container: %w", err)
	}

	if len(tc.compile) > 0 {
		out, err := r.exec(ctx, resp.ID, tc.compile)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		if out.ExitCode != 0 {
			return nil, &CompileError{Output: out.Stdout + out.Stderr}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeLimit)
	defer cancel()
	out, err := r.exec(runCtx, resp.ID, []string{"sh", "-c", strings.Join(tc.run, " ") + " < input.txt"})
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return out, ErrTimeLimit
	}
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return out, nil
}

func (r *DockerRunner) exec(ctx context.Context, containerID string, cmd []string) (*Output, error) {
	created, err := r.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   dockerWorkDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create exec: %w", err)
	}
	attached, err := r.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("attach exec: %w", err)
	}
	defer attached.Close()

	start := time.Now()
	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attached.Reader)
		done <- err
	}()

	select {
	case <-ctx.Done():
		attached.Close()
		<-done
		return &Output{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("read exec output: %w", err)
		}
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect exec: %w", err)
	}
	return &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
		Duration: time.Since(start),
	}, nil
}

func tarFiles(files map[string]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		data := []byte(content)
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(data))}); err != nil {
			return nil, fmt.Errorf("tar header %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return nil, fmt.Errorf("tar write %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	return &buf, nil
}
