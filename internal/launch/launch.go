// internal/launch/launch.go
package launch

import (
	"sync"
	"time"

	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

// Meta is the creator-supplied launch metadata.
type Meta struct {
	Name        string
	Symbol      string
	Description string
	ImageRef    string
	SocialLinks [4]string
	Tags        []int
}

// Launch is the engine's authoritative record for one created asset.
// It is created on launch, mutated by buy/sell/graduate and never deleted.
type Launch struct {
	ID              string
	Creator         ledger.Account
	Meta            Meta
	RestrictedToken ledger.TokenID
	FreeToken       ledger.TokenID // empty until graduation
	PoolID          string
	VenuePoolID     string // empty until graduation

	TradingEnabled     bool
	Graduated          bool
	ReserveAssetRaised uint64 // cumulative net-of-fee asset in, excludes seed
	TokensSold         uint64

	CreatedAt   time.Time
	GraduatedAt *time.Time

	// guard serializes operations per launch. TryLock semantics: an
	// operation entering while another is in flight is rejected outright
	// rather than queued.
	guard sync.Mutex
}

// Info is a copyable snapshot of a Launch for the query surface.
type Info struct {
	ID                 string
	Creator            string
	Meta               Meta
	RestrictedToken    string
	FreeToken          string
	PoolID             string
	VenuePoolID        string
	TradingEnabled     bool
	Graduated          bool
	ReserveAssetRaised uint64
	TokensSold         uint64
	TokenReserve       uint64
	AssetReserve       uint64
	CreatedAt          time.Time
	GraduatedAt        *time.Time
}

func (l *Launch) snapshot(tokenReserve, assetReserve uint64) Info {
	return Info{
		ID:                 l.ID,
		Creator:            string(l.Creator),
		Meta:               l.Meta,
		RestrictedToken:    string(l.RestrictedToken),
		FreeToken:          string(l.FreeToken),
		PoolID:             l.PoolID,
		VenuePoolID:        l.VenuePoolID,
		TradingEnabled:     l.TradingEnabled,
		Graduated:          l.Graduated,
		ReserveAssetRaised: l.ReserveAssetRaised,
		TokensSold:         l.TokensSold,
		TokenReserve:       tokenReserve,
		AssetReserve:       assetReserve,
		CreatedAt:          l.CreatedAt,
		GraduatedAt:        l.GraduatedAt,
	}
}
