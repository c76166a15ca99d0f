package services

import (
	"context"
	"fmt"

	"github.com/docker/go-units"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/transfer"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// PostDeployHook runs after a deploy reaches a terminal state. Hook errors
// are logged and never fail the deploy.
type PostDeployHook func(ctx context.Context, result *DeployResult) error

// DeployOptions describes what to deploy. Either Components or Zip must be
// set; Zip wins when both are.
type DeployOptions struct {
	Components *components.ComponentSet
	Zip        []byte

	API sfmeta.DeployOptions

	// Target names the org in approval prompts.
	Target string

	Hooks []PostDeployHook
}

// MetadataAPIDeploy deploys a component set or a prebuilt zip through the
// metadata API.
type MetadataAPIDeploy struct {
	*transfer.Transfer[sfmeta.DeployStatus, *DeployResult]
}

// NewMetadataAPIDeploy prepares a deploy over conn. Nothing is sent until
// Start.
func NewMetadataAPIDeploy(conn *Connection, opts DeployOptions, options ...Option) *MetadataAPIDeploy {
	if conn == nil {
		panic("conn cannot be nil")
	}
	d := newDeps(options)
	op := &deployOperation{conn: conn, opts: opts, deps: d}
	return &MetadataAPIDeploy{Transfer: transfer.New(op, d.transferOptions()...)}
}

type deployOperation struct {
	conn *Connection
	opts DeployOptions
	deps *deps
}

func (o *deployOperation) Pre(ctx context.Context) (sfmeta.AsyncResult, error) {
	set := o.opts.Components
	if set != nil {
		set = set.View()
		set.AddVersionSources(versionSources(ctx, o.deps.settings, o.conn)...)
	}
	if v := transferVersion(set, o.deps.settings); v != "" {
		o.conn.SetAPIVersion(v)
	}
	svc := o.conn.Capped(ctx)

	hasDeletes := set != nil && set.HasDeletes()
	if err := o.opts.API.Validate(svc.APIVersion(), hasDeletes); err != nil {
		return sfmeta.AsyncResult{}, err
	}

	zip, err := o.payload(ctx, set)
	if err != nil {
		return sfmeta.AsyncResult{}, err
	}
	o.checkSize(len(zip))

	if hasDeletes {
		if err := o.approve(ctx, set); err != nil {
			return sfmeta.AsyncResult{}, err
		}
	}

	o.deps.logger.Verbose("Deploying %s with API version %s", units.HumanSize(float64(len(zip))), svc.APIVersion())
	return svc.Deploy(ctx, zip, o.opts.API)
}

func (o *deployOperation) payload(ctx context.Context, set *components.ComponentSet) ([]byte, error) {
	if len(o.opts.Zip) > 0 {
		return o.opts.Zip, nil
	}
	if set == nil {
		return nil, fmt.Errorf("%w: a deploy needs a component set or a zip file", sfmeta.ErrMissingComponents)
	}
	res, err := o.deps.converter.Convert(ctx, set, convert.FormatMetadata, convert.OutputConfig{Type: convert.OutputZip})
	if err != nil {
		return nil, err
	}
	return res.ZipBuffer, nil
}

// checkSize warns when the payload is within the configured percentage of
// the API limit.
func (o *deployOperation) checkSize(size int) {
	s := o.deps.settings
	if !s.DeploySizeWarningEnabled() {
		return
	}
	if size*100 < sfmeta.MaxDeployZipBytes*s.DeploySizeThreshold {
		return
	}
	o.deps.logger.Warn("Deployment zip file size is %s, which is over %d%% of the %s limit. Split the deployment or remove components to avoid failures.",
		units.HumanSize(float64(size)), s.DeploySizeThreshold, units.HumanSize(sfmeta.MaxDeployZipBytes))
}

func (o *deployOperation) approve(ctx context.Context, set *components.ComponentSet) error {
	if o.deps.approver == nil {
		return nil
	}
	deleted := set.DeletedComponents()
	names := make([]string, 0, len(deleted))
	for _, c := range deleted {
		names = append(names, c.String())
	}
	approved, err := o.deps.approver.RequestApproval(ctx, o.opts.Target, names)
	if err != nil {
		return err
	}
	if !approved {
		return fmt.Errorf("%w: deploy to %s would delete %d component(s)", sfmeta.ErrApprovalDenied, o.opts.Target, len(names))
	}
	return nil
}

func (o *deployOperation) CheckStatus(ctx context.Context, id string) (sfmeta.DeployStatus, error) {
	return o.conn.Capped(ctx).CheckDeployStatus(ctx, id, true)
}

func (o *deployOperation) Cancel(ctx context.Context, id string) error {
	_, err := o.conn.Capped(ctx).CancelDeploy(ctx, id)
	return err
}

// CanceledStatus is never synthesized: a deploy cancel is only known once
// the org reports it.
func (o *deployOperation) CanceledStatus(string) (sfmeta.DeployStatus, bool) {
	return sfmeta.DeployStatus{}, false
}

func (o *deployOperation) Post(ctx context.Context, status sfmeta.DeployStatus) (*DeployResult, error) {
	result := NewDeployResult(status, o.opts.Components)
	for _, hook := range o.opts.Hooks {
		if err := hook(ctx, result); err != nil {
			o.deps.logger.Warn("Post-deploy hook failed for %s: %v", status.ID, err)
		}
	}
	return result, nil
}

func (o *deployOperation) ComponentCount() int {
	if o.opts.Components == nil {
		return 0
	}
	return o.opts.Components.Size()
}
