package workspace

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	DefaultDockerImage = "node:20-alpine"
	DefaultDockerRoot  = "/home/user"
	DefaultDockerTTL   = time.Hour

	workspaceLabel = "ai-forge.workspace"
	ttlLabel       = "ai-forge.workspace.ttl"
)

// dockerAPI is the subset of the Docker SDK client used by DockerProvider
type dockerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options container.CopyToContainerOptions) error
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	Ping(ctx context.Context) (types.Ping, error)
	Close() error
}

// DockerConfig configures DockerProvider
type DockerConfig struct {
	Host       string
	Image      string
	Root       string
	TTL        time.Duration
	PullImages bool
}

// DockerProvider runs each workspace as a short-lived container. The
// container sleeps for TTL and is removed by the daemon when it exits.
type DockerProvider struct {
	client dockerAPI
	cfg    DockerConfig
}

// NewDockerProvider connects to the Docker daemon
func NewDockerProvider(cfg DockerConfig) (*DockerProvider, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker sdk client init failed: %w", err)
	}
	return newDockerProvider(cli, cfg), nil
}

func newDockerProvider(api dockerAPI, cfg DockerConfig) *DockerProvider {
	if cfg.Image == "" {
		cfg.Image = DefaultDockerImage
	}
	if cfg.Root == "" {
		cfg.Root = DefaultDockerRoot
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultDockerTTL
	}
	return &DockerProvider{client: api, cfg: cfg}
}

// Name implements Provider
func (p *DockerProvider) Name() string {
	return "docker"
}

// CreateWorkspace starts a fresh container and returns its ID
func (p *DockerProvider) CreateWorkspace(ctx context.Context) (string, error) {
	if p.cfg.PullImages {
		if err := p.ensureImage(ctx, p.cfg.Image); err != nil {
			return "", err
		}
	}

	ttl := strconv.Itoa(int(p.cfg.TTL.Seconds()))
	name := "forge-workspace-" + uuid.New().String()[:12]

	pidsLimit := int64(256)
	created, err := p.client.ContainerCreate(ctx, &container.Config{
		Image:      p.cfg.Image,
		WorkingDir: p.cfg.Root,
		Cmd:        []string{"sleep", ttl},
		Labels: map[string]string{
			workspaceLabel: "true",
			ttlLabel:       ttl,
		},
	}, &container.HostConfig{
		AutoRemove: true,
		CapDrop:    []string{"ALL"},
		Resources: container.Resources{
			Memory:    512 * 1024 * 1024,
			NanoCPUs:  1_000_000_000,
			PidsLimit: &pidsLimit,
		},
	}, &network.NetworkingConfig{}, nil, name)
	if err != nil {
		return "", fmt.Errorf("docker container create failed: %w", err)
	}

	if err := p.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		_ = p.client.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("docker container start failed: %w", err)
	}
	return created.ID, nil
}

// WriteFile copies a single-file tar into the container root
func (p *DockerProvider) WriteFile(ctx context.Context, id, filePath, content string) error {
	clean, err := checkPath(filePath)
	if err != nil {
		return err
	}

	buf, err := tarFile(clean, content)
	if err != nil {
		return err
	}
	if err := p.client.CopyToContainer(ctx, id, p.cfg.Root, buf, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("docker copy failed: %w", err)
	}
	return nil
}

// Health pings the Docker daemon
func (p *DockerProvider) Health(ctx context.Context) error {
	_, err := p.client.Ping(ctx)
	return err
}

// Close releases the Docker client
func (p *DockerProvider) Close() error {
	return p.client.Close()
}

func (p *DockerProvider) ensureImage(ctx context.Context, imageName string) error {
	_, _, err := p.client.ImageInspectWithRaw(ctx, imageName)
	if err == nil {
		return nil
	}
	rc, pullErr := p.client.ImagePull(ctx, imageName, image.PullOptions{})
	if pullErr != nil {
		return fmt.Errorf("pull image %s: %w (inspect err: %v)", imageName, pullErr, err)
	}
	defer rc.Close()
	_, _ = io.Copy(io.Discard, rc)
	return nil
}

// tarFile builds a tar stream holding the parent directories of name and the file itself
func tarFile(name, content string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	now := time.Now()

	dir := path.Dir(name)
	if dir != "." {
		parts := strings.Split(dir, "/")
		for i := range parts {
			hdr := &tar.Header{
				Typeflag: tar.TypeDir,
				Name:     strings.Join(parts[:i+1], "/") + "/",
				Mode:     0755,
				ModTime:  now,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return nil, fmt.Errorf("tar header: %w", err)
			}
		}
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0644,
		Size:     int64(len(content)),
		ModTime:  now,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("tar header: %w", err)
	}
	if _, err := io.WriteString(tw, content); err != nil {
		return nil, fmt.Errorf("tar write: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("tar close: %w", err)
	}
	return &buf, nil
}
