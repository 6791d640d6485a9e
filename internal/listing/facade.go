// internal/listing/facade.go

// Package listing is the thin public entry point for creating launches. It
// normalizes and validates the creator-supplied metadata shape and forwards
// to the launch engine, which owns the fee collection and the first buy.
package listing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

const maxSocialLinks = 4

// Params is the wire-facing launch request.
type Params struct {
	Name        string
	Symbol      string
	Description string
	ImageRef    string
	SocialLinks []string
	Tags        []int
}

// Launcher is the slice of the engine the facade needs.
type Launcher interface {
	CreateLaunch(ctx context.Context, creator ledger.Account, meta launch.Meta, initialDeposit uint64) (*launch.CreateResult, error)
}

// Facade validates launch requests and forwards them.
type Facade struct {
	engine Launcher
	logger *zap.Logger
}

// New creates a listing facade in front of the engine.
func New(engine Launcher, logger *zap.Logger) *Facade {
	return &Facade{
		engine: engine,
		logger: logger.Named("listing"),
	}
}

// Launch validates the metadata shape and creates the launch. The deposit
// covers the flat creation fee plus the creator's first buy.
func (f *Facade) Launch(ctx context.Context, creator ledger.Account, params Params, deposit uint64) (*launch.CreateResult, error) {
	meta, err := normalize(params)
	if err != nil {
		return nil, err
	}

	result, err := f.engine.CreateLaunch(ctx, creator, meta, deposit)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Launch accepted",
		zap.String("launch_id", result.LaunchID),
		zap.String("symbol", meta.Symbol),
		zap.String("creator", string(creator)))

	return result, nil
}

func normalize(params Params) (launch.Meta, error) {
	meta := launch.Meta{
		Name:        strings.TrimSpace(params.Name),
		Symbol:      strings.ToUpper(strings.TrimSpace(params.Symbol)),
		Description: strings.TrimSpace(params.Description),
		ImageRef:    strings.TrimSpace(params.ImageRef),
		Tags:        params.Tags,
	}

	if meta.Name == "" {
		return launch.Meta{}, fmt.Errorf("%w: empty name", launch.ErrValidation)
	}
	if meta.Symbol == "" {
		return launch.Meta{}, fmt.Errorf("%w: empty symbol", launch.ErrValidation)
	}
	if len(params.SocialLinks) > maxSocialLinks {
		return launch.Meta{}, fmt.Errorf("%w: at most %d social links", launch.ErrValidation, maxSocialLinks)
	}
	for i, link := range params.SocialLinks {
		meta.SocialLinks[i] = strings.TrimSpace(link)
	}

	return meta, nil
}
