package services

import (
	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/logging"
	"github.com/vvka-141/sfmeta/internal/retry"
	"github.com/vvka-141/sfmeta/internal/transfer"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type deps struct {
	converter *convert.Converter
	tree      filesystem.WritableTree
	approver  sfmeta.Approver
	logger    sfmeta.Logger
	settings  *config.Settings
	jobID     string
}

// Option configures a deploy or retrieve.
type Option func(*deps)

// WithConverter sets the converter used to build and unpack payloads.
func WithConverter(c *convert.Converter) Option {
	return func(d *deps) { d.converter = c }
}

// WithTree sets where retrieved zip files are written.
func WithTree(t filesystem.WritableTree) Option {
	return func(d *deps) { d.tree = t }
}

// WithApprover asks for confirmation before deploys that delete components.
func WithApprover(a sfmeta.Approver) Option {
	return func(d *deps) { d.approver = a }
}

func WithLogger(l sfmeta.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithSettings supplies the size threshold and poll error budget.
func WithSettings(s *config.Settings) Option {
	return func(d *deps) { d.settings = s }
}

// WithJobID attaches to an already submitted job instead of starting one.
func WithJobID(id string) Option {
	return func(d *deps) { d.jobID = id }
}

func newDeps(opts []Option) *deps {
	d := &deps{logger: logging.NewNullLogger()}
	for _, opt := range opts {
		opt(d)
	}
	if d.settings == nil {
		defaults := config.Defaults()
		d.settings = &defaults
	}
	if d.tree == nil {
		d.tree = filesystem.NewOSTree()
	}
	if d.converter == nil {
		d.converter = convert.New(convert.WithLogger(d.logger), convert.WithTree(d.tree))
	}
	return d
}

func (d *deps) transferOptions() []transfer.Option {
	opts := []transfer.Option{
		transfer.WithClassifier(retry.NewMetadataErrorClassifier()),
		transfer.WithLogger(d.logger),
		transfer.WithRetryLimit(d.settings.PollErrorRetryLimit),
	}
	if d.jobID != "" {
		opts = append(opts, transfer.WithJobID(d.jobID))
	}
	return opts
}
