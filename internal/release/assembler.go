// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/plugkit/plugkit/internal/artifact"
	"github.com/plugkit/plugkit/internal/changelog"
	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/deps"
	"github.com/plugkit/plugkit/internal/docsection"
	"github.com/plugkit/plugkit/internal/manifest"
	"github.com/plugkit/plugkit/internal/markup"
	"github.com/plugkit/plugkit/internal/platform"
	"github.com/plugkit/plugkit/internal/version"
)

// Pipeline step names, in execution order.
const (
	StepAssemble       = "assemble manifest"
	StepPatchXML       = "patch plugin.xml"
	StepPackage        = "package artifact"
	StepPatchChangelog = "patch changelog"
	StepSign           = "sign artifact"
	StepPublish        = "publish artifact"
	StepRecord         = "write release record"
)

// ErrNoPublisher is returned when a release runs without a publisher.
var ErrNoPublisher = errors.New("no publisher configured")

type (
	// Assembler builds the manifest and runs the release pipeline for one
	// immutable configuration.
	Assembler struct {
		cfg       *config.Config
		signer    Signer
		publisher Publisher
		lookupEnv LookupEnv
		logger    *log.Logger
		now       func() time.Time
		newID     func() uuid.UUID
	}

	// Option configures an Assembler.
	Option func(*Assembler)

	// Options selects how much of the pipeline Release runs.
	Options struct {
		// DryRun stops after packaging and leaves source files untouched.
		DryRun bool
	}

	// Result summarizes a pipeline run.
	Result struct {
		Manifest   *manifest.ExtensionManifest
		Artifact   *artifact.Artifact
		Published  string
		Signed     bool
		RecordPath string
		// Completed lists the steps that finished, in order.
		Completed []string
	}

	// StepError identifies the pipeline step that failed.
	StepError struct {
		Step string
		Err  error
	}

	step struct {
		name string
		run  func(ctx context.Context, r *Result) error
	}
)

// Error implements the error interface.
func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

// Unwrap returns the step's error.
func (e *StepError) Unwrap() error { return e.Err }

// WithSigner sets the signer.
func WithSigner(s Signer) Option { return func(a *Assembler) { a.signer = s } }

// WithPublisher sets the publisher.
func WithPublisher(p Publisher) Option { return func(a *Assembler) { a.publisher = p } }

// WithLookupEnv sets the environment lookup used for credentials.
func WithLookupEnv(l LookupEnv) Option { return func(a *Assembler) { a.lookupEnv = l } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(a *Assembler) { a.logger = l } }

// WithClock sets the time source used for the changelog date and record.
func WithClock(now func() time.Time) Option { return func(a *Assembler) { a.now = now } }

// NewAssembler creates an Assembler for cfg.
func NewAssembler(cfg *config.Config, opts ...Option) *Assembler {
	a := &Assembler{
		cfg:       cfg,
		lookupEnv: os.LookupEnv,
		logger:    log.New(io.Discard),
		now:       time.Now,
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the manifest: description and change notes rendered to
// HTML, compatibility bounds, channels, dependencies and platform target.
func (a *Assembler) Assemble(_ context.Context) (*manifest.ExtensionManifest, error) {
	cfg := a.cfg

	target, err := platform.Resolve(cfg.IdeaLocalPath, cfg.PlatformType, cfg.PlatformVersion)
	if err != nil {
		return nil, err
	}

	description, err := a.description()
	if err != nil {
		return nil, err
	}

	cl, err := changelog.Load(cfg.Path(cfg.ChangelogFile))
	if err != nil {
		return nil, err
	}
	notes, err := changelog.ChangeNotes(cl, cfg.PluginVersion, changelog.OutputHTML)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ChangelogFile, err)
	}

	set := deps.Build(cfg.PlatformBundledPlugins, cfg.PlatformPlugins)

	return &manifest.ExtensionManifest{
		Group:          cfg.PluginGroup,
		Name:           cfg.PluginName,
		ID:             cfg.XMLID(),
		Version:        cfg.PluginVersion,
		SinceBuild:     cfg.PluginSinceBuild,
		UntilBuild:     cfg.PluginUntilBuild,
		Description:    description,
		ChangeNotes:    notes,
		Channels:       version.Channels(cfg.PluginVersion),
		BundledPlugins: set.Bundled,
		Plugins:        set.Marketplace,
		Platform:       target.Describe(),
	}, nil
}

func (a *Assembler) description() (string, error) {
	path := a.cfg.Path(a.cfg.DescriptionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading description: %w", err)
	}
	md, err := docsection.ExtractDescription(a.cfg.DescriptionFile, string(data))
	if err != nil {
		return "", err
	}
	return markup.HTML(md)
}

// Release runs the pipeline. On failure the returned Result holds whatever
// completed and the error is a *StepError.
func (a *Assembler) Release(ctx context.Context, opts Options) (*Result, error) {
	steps := []step{
		{StepAssemble, a.stepAssemble},
		{StepPatchXML, func(_ context.Context, r *Result) error { return a.stepPatchXML(r, opts.DryRun) }},
		{StepPackage, a.stepPackage},
	}
	if !opts.DryRun {
		steps = append(steps,
			step{StepPatchChangelog, a.stepPatchChangelog},
			step{StepSign, a.stepSign},
			step{StepPublish, a.stepPublish},
			step{StepRecord, a.stepRecord},
		)
	}

	result := &Result{}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return result, &StepError{Step: s.name, Err: err}
		}
		a.logger.Debug("release step", "step", s.name)
		if err := s.run(ctx, result); err != nil {
			return result, &StepError{Step: s.name, Err: err}
		}
		result.Completed = append(result.Completed, s.name)
	}
	return result, nil
}

func (a *Assembler) stepAssemble(ctx context.Context, r *Result) error {
	m, err := a.Assemble(ctx)
	if err != nil {
		return err
	}
	r.Manifest = m
	return nil
}

func (a *Assembler) stepPatchXML(r *Result, dryRun bool) error {
	path := a.cfg.Path(a.cfg.PluginXMLFile)
	doc, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Debug("no plugin descriptor, skipping patch", "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	patched, err := manifest.PatchXML(doc, r.Manifest)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if dryRun || string(patched) == string(doc) {
		return nil
	}
	return os.WriteFile(path, patched, 0o644)
}

func (a *Assembler) stepPackage(_ context.Context, r *Result) error {
	name := a.cfg.PluginName
	if name == "" {
		name = a.cfg.XMLID()
	}
	art, err := artifact.Package(artifact.Options{
		DistributionDir: a.cfg.Path(a.cfg.DistributionDir),
		PluginName:      name,
		BaseName:        a.cfg.ArtifactBaseName(),
		PatchDescriptor: func(doc []byte) ([]byte, error) {
			return manifest.PatchXML(doc, r.Manifest)
		},
	})
	if err != nil {
		return err
	}
	r.Artifact = art
	r.Published = art.Path
	a.logger.Info("packaged", "artifact", art.Path, "reused", art.Reused)
	return nil
}

func (a *Assembler) stepPatchChangelog(_ context.Context, _ *Result) error {
	path := a.cfg.Path(a.cfg.ChangelogFile)
	cl, err := changelog.Load(path)
	if err != nil {
		return err
	}
	if cl.Has(a.cfg.PluginVersion) {
		// A re-run after a failed publish finds the version already released.
		a.logger.Debug("changelog already patched", "version", a.cfg.PluginVersion)
		return nil
	}
	if unreleased, err := cl.GetUnreleased(); err == nil && unreleased.IsEmpty() {
		a.logger.Warn("releasing with no unreleased changes", "version", a.cfg.PluginVersion)
	}
	if err := cl.Patch(changelog.PatchOptions{
		Version:       a.cfg.PluginVersion,
		Date:          a.now().Format(time.DateOnly),
		RepositoryURL: a.cfg.PluginRepositoryURL,
	}); err != nil {
		return err
	}
	return cl.Save(path)
}

// stepSign applies the signing policy: no credentials and signing not
// required skips signing; anything else invokes the signer with the values
// as found.
func (a *Assembler) stepSign(ctx context.Context, r *Result) error {
	creds := SigningCredentialsFromEnv(a.lookupEnv)
	if creds.IsEmpty() && !a.cfg.SigningRequired {
		a.logger.Info("signing skipped: no signing credentials set")
		return nil
	}
	if a.signer == nil {
		return ErrNoSigner
	}
	if !creds.Complete() {
		a.logger.Warn("signing with incomplete credentials",
			"certificateChain", creds.CertificateChain != "",
			"privateKey", creds.PrivateKey != "",
			"password", creds.Password != "")
	}

	out := strings.TrimSuffix(r.Artifact.Path, ".zip") + "-signed.zip"
	if err := a.signer.Sign(ctx, SignRequest{Input: r.Artifact.Path, Output: out, Credentials: creds}); err != nil {
		return err
	}
	r.Published = out
	r.Signed = true
	a.logger.Info("signed", "artifact", out)
	return nil
}

func (a *Assembler) stepPublish(ctx context.Context, r *Result) error {
	if a.publisher == nil {
		return ErrNoPublisher
	}
	return a.publisher.Publish(ctx, PublishRequest{
		XMLID:    a.cfg.XMLID(),
		Artifact: r.Published,
		Credentials: PublishCredentials{
			Token:    PublishTokenFromEnv(a.lookupEnv),
			Channels: r.Manifest.Channels,
		},
	})
}

func (a *Assembler) stepRecord(_ context.Context, r *Result) error {
	sum := r.Artifact.SHA256
	if r.Signed {
		signed, err := artifact.Checksum(r.Published)
		if err != nil {
			return err
		}
		sum = signed
	}
	path, err := WriteRecord(a.cfg.Path(a.cfg.DistributionDir), &Record{
		ID:          a.newID(),
		Plugin:      a.cfg.XMLID(),
		Version:     a.cfg.PluginVersion,
		Channels:    r.Manifest.Channels,
		Artifact:    r.Published,
		SHA256:      sum,
		Signed:      r.Signed,
		PublishedAt: a.now().UTC(),
	})
	if err != nil {
		return err
	}
	r.RecordPath = path
	return nil
}
