// Package provisioning turns an owner's request into a registered device
// and a sketch archive carrying that device's credentials.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/EternisAI/sketch-provisioner/internal/controlqueue"
	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/EternisAI/sketch-provisioner/internal/inventory"
	"github.com/EternisAI/sketch-provisioner/internal/metrics"
	"github.com/EternisAI/sketch-provisioner/internal/sketch"
)

const defaultDeviceType = "raspberrypi"

type Config struct {
	TemplatesRoot string `mapstructure:"templates_root" validate:"required"`
	ArchivesRoot  string `mapstructure:"archives_root" validate:"required"`
	ServerHost    string `mapstructure:"server_host"`
	DeviceType    string `mapstructure:"device_type"`
}

type CredentialIssuer interface {
	Issue(ctx context.Context, owner, deviceID string) (credentials.Pair, error)
	Renew(ctx context.Context, refreshToken string) (credentials.Pair, error)
	Supersede(ctx context.Context, pair credentials.Pair) error
	RevokeGrants(ctx context.Context, grantIDs ...string) error
	RevokeDevice(ctx context.Context, deviceID string) error
}

type Assembler interface {
	Assemble(ctx context.Context, job sketch.Job) (*sketch.Archive, error)
}

type Service struct {
	config    Config
	host      string
	issuer    CredentialIssuer
	inventory inventory.Store
	queue     controlqueue.Service
	assembler Assembler
	metrics   *metrics.Metrics
	newID     func() string
}

func NewService(config Config, issuer CredentialIssuer, store inventory.Store, queue controlqueue.Service, assembler Assembler, m *metrics.Metrics) *Service {
	if config.DeviceType == "" {
		config.DeviceType = defaultDeviceType
	}
	if queue == nil {
		queue = controlqueue.Disabled{}
	}
	return &Service{
		config:    config,
		host:      ResolveHost(config.ServerHost),
		issuer:    issuer,
		inventory: store,
		queue:     queue,
		assembler: assembler,
		metrics:   m,
		newID:     NewDeviceID,
	}
}

func (s *Service) DeviceType() string { return s.config.DeviceType }

// Provision mints a device identity, registers it and assembles its sketch.
// Every call creates a new device. When a step fails, the side effects of
// the earlier steps are undone before the error is returned.
func (s *Service) Provision(ctx context.Context, req Request) (archive *AssembledArchive, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveProvision(outcome(err), time.Since(start))
	}()

	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		return nil, &Error{Kind: KindInvalidRequest, Step: "validate", Err: errors.New("owner is required")}
	}
	templateRoot, err := s.templateRoot(req.SketchVariant)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Step: "validate", Owner: owner, Err: err}
	}

	deviceID := s.newID()
	name := strings.TrimSpace(req.DeviceName)
	if name == "" {
		name = deviceID
	}

	sg := &saga{report: s.metrics.ObserveCompensation}
	fail := func(kind Kind, step string, cause error) error {
		sg.rollback(ctx)
		slog.Error("Provisioning failed", "step", step, "owner", owner, "device_id", deviceID, "error", cause)
		return &Error{Kind: kind, Step: step, Owner: owner, DeviceID: deviceID, Err: cause}
	}

	pair, err := s.issuer.Issue(ctx, owner, deviceID)
	if err != nil {
		return nil, fail(KindCredentialIssuance, "issue_credentials", err)
	}
	// only this call's grants: the device ID may already belong to someone
	sg.push("revoke_credentials", func(ctx context.Context) error {
		return s.issuer.RevokeGrants(ctx, pair.GrantIDs...)
	})

	endpoint := ""
	if s.queue.Enabled() {
		account := s.queue.AccountFor(owner, deviceID, pair.AccessToken)
		if err := s.queue.CreateAccount(ctx, account); err != nil {
			return nil, fail(KindProvisioning, "create_control_queue_account", err)
		}
		sg.push("delete_control_queue_account", func(ctx context.Context) error {
			return s.queue.DeleteAccount(ctx, account.Name)
		})
		endpoint = s.queue.Endpoint()
	}

	if _, err := s.inventory.Register(ctx, inventory.Device{
		ID:        deviceID,
		Name:      name,
		Type:      s.config.DeviceType,
		Owner:     owner,
		Status:    inventory.StatusActive,
		Ownership: inventory.OwnershipBYOD,
	}); err != nil {
		return nil, fail(KindRegistration, "register_device", err)
	}
	sg.push("deregister_device", func(ctx context.Context) error {
		return s.inventory.Deregister(ctx, deviceID)
	})

	vars := sketch.Context{
		Owner:                owner,
		DeviceID:             deviceID,
		DeviceName:           name,
		AccessToken:          pair.AccessToken,
		RefreshToken:         pair.RefreshToken,
		Host:                 s.host,
		ControlQueueEndpoint: endpoint,
	}.Vars()

	built, err := s.assembler.Assemble(ctx, sketch.Job{
		TemplateRoot: templateRoot,
		ScratchDir:   filepath.Join(s.config.ArchivesRoot, req.SketchVariant+"-"+deviceID),
		Vars:         vars,
	})
	if err != nil {
		return nil, fail(assemblyKind(err), "assemble_sketch", err)
	}

	s.metrics.ObserveArchive(built.Size)
	slog.Info("Device provisioned",
		"owner", owner,
		"device_id", deviceID,
		"sketch", req.SketchVariant,
		"archive", built.Path,
		"size", built.Size)

	return &AssembledArchive{
		Path:     built.Path,
		FileName: built.FileName,
		DeviceID: deviceID,
		Size:     built.Size,
	}, nil
}

// ListSketches returns the sketch variants under the templates root.
func (s *Service) ListSketches() ([]string, error) {
	entries, err := os.ReadDir(s.config.TemplatesRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates root: %w", err)
	}

	var variants []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			variants = append(variants, e.Name())
		}
	}
	sort.Strings(variants)
	return variants, nil
}

func (s *Service) templateRoot(variant string) (string, error) {
	if variant == "" || variant != filepath.Base(variant) || !filepath.IsLocal(variant) || strings.HasPrefix(variant, ".") {
		return "", fmt.Errorf("%w: %q", ErrUnknownSketch, variant)
	}

	root := filepath.Join(s.config.TemplatesRoot, variant)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSketch, variant)
	}
	return root, nil
}

func assemblyKind(err error) Kind {
	switch {
	case errors.Is(err, sketch.ErrScratchDir):
		return KindProvisioning
	case errors.Is(err, sketch.ErrPackaging), errors.Is(err, sketch.ErrManifest):
		return KindPackaging
	default:
		return KindIO
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}
