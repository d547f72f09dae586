package raster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

const (
	DefaultDockerImage = "minidocks/poppler:latest"
	DockerLabel        = "pdfextract-render"

	containerInput  = "/in/document.pdf"
	containerOutput = "/out"
)

// DockerConfig configures a DockerRenderer.
type DockerConfig struct {
	Image  string
	Labels map[string]string // extra labels, merged with DockerLabel
	Logger *slog.Logger
}

// DockerRenderer runs pdftoppm inside a poppler container, one short-lived
// container per page. Useful where poppler cannot be installed on the host.
type DockerRenderer struct {
	cli       *client.Client
	imageName string
	labels    map[string]string
	logger    *slog.Logger
}

// NewDockerRenderer creates a docker client from the environment. The
// daemon is not contacted until the first page is rendered.
func NewDockerRenderer(cfg DockerConfig) (*DockerRenderer, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create docker client: %v", ErrResource, err)
	}

	if cfg.Image == "" {
		cfg.Image = DefaultDockerImage
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	labels := map[string]string{DockerLabel: "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}

	return &DockerRenderer{
		cli:       cli,
		imageName: cfg.Image,
		labels:    labels,
		logger:    cfg.Logger.With("component", "raster.docker"),
	}, nil
}

func (r *DockerRenderer) Name() string { return RendererDocker }

// Close closes the Docker client.
func (r *DockerRenderer) Close() error {
	return r.cli.Close()
}

// RenderPage renders one page in a throwaway container that bind-mounts the
// PDF read-only and outDir read-write.
func (r *DockerRenderer) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error) {
	if _, err := r.cli.Ping(ctx); err != nil {
		return "", fmt.Errorf("%w: docker is not running: %v", ErrResource, err)
	}
	if err := r.ensureImage(ctx); err != nil {
		return "", err
	}

	src, err := filepath.Abs(pdfPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResource, err)
	}
	out, err := filepath.Abs(outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResource, err)
	}

	dst := pageFile(out, page)
	prefix := containerOutput + "/" + strings.TrimSuffix(filepath.Base(dst), ".png")
	pageStr := strconv.Itoa(page)

	containerConfig := &container.Config{
		Image: r.imageName,
		Cmd: []string{
			"pdftoppm",
			"-png",
			"-f", pageStr,
			"-l", pageStr,
			"-r", strconv.Itoa(dpi),
			"-singlefile",
			containerInput,
			prefix,
		},
		User:   fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Labels: r.labels,
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: src, Target: containerInput, ReadOnly: true},
			{Type: mount.TypeBind, Source: out, Target: containerOutput},
		},
	}

	resp, err := r.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create container: %v", ErrResource, err)
	}
	defer func() {
		// ctx may already be cancelled; removal must still happen
		if err := r.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			r.logger.Warn("failed to remove render container", "id", resp.ID, "error", err)
		}
	}()

	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("%w: failed to start container: %v", ErrResource, err)
	}

	statusCh, errCh := r.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return "", fmt.Errorf("%w: wait for container: %v", ErrResource, err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return "", pdftoppmExitError(int(status.StatusCode), r.logs(ctx, resp.ID))
		}
	}

	if _, err := os.Stat(dst); err != nil {
		return "", fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return dst, nil
}

// Cleanup force-removes any render containers left behind by an
// interrupted run.
func (r *DockerRenderer) Cleanup(ctx context.Context) error {
	filterArgs := filters.NewArgs()
	filterArgs.Add("label", DockerLabel+"=true")

	containers, err := r.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		if err := r.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", c.ID, err)
		}
		r.logger.Debug("removed stale render container", "id", c.ID)
	}
	return nil
}

func (r *DockerRenderer) logs(ctx context.Context, id string) string {
	rc, err := r.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "20",
	})
	if err != nil {
		return ""
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	return strings.TrimSpace(string(data))
}

// Pull makes sure the render image is available locally.
func (r *DockerRenderer) Pull(ctx context.Context) error {
	return r.ensureImage(ctx)
}

// Image returns the render image name.
func (r *DockerRenderer) Image() string { return r.imageName }

// ensureImage pulls the poppler image if not present.
func (r *DockerRenderer) ensureImage(ctx context.Context) error {
	if _, err := r.cli.ImageInspect(ctx, r.imageName); err == nil {
		return nil
	}

	r.logger.Info("pulling render image", "image", r.imageName)
	reader, err := r.cli.ImagePull(ctx, r.imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("%w: failed to pull image: %v", ErrResource, err)
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("%w: failed to pull image: %v", ErrResource, err)
	}
	return nil
}
