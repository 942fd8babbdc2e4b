package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/openbilling/billingkit/pkg/feature"
)

// EntitlementsProvider resolves a customer's entitlements; *Cache satisfies
// it, and so does a bare Aggregator wrapped in a func for cache-free setups.
type EntitlementsProvider interface {
	Ensure(ctx context.Context, ownerID uuid.UUID) ([]Entitlement, error)
}

// ErrorHandler decides the externally visible failure for a denial or a
// missing registry feature, keeping transport concerns out of the
// verifier. It receives the typed code and the offending feature set; its
// return value is what HasAccess returns to the caller.
type ErrorHandler func(ctx context.Context, code ErrorCode, featureIDs []string) error

// AccessVerifier evaluates whether a customer may use a set of features.
// A nil return means access is granted.
type AccessVerifier interface {
	HasAccess(ctx context.Context, ownerID uuid.UUID, featureIDs ...string) error
}

// Verifier is the default AccessVerifier: access requires every requested
// feature to be satisfied by at least one entitlement. Switch-type
// features are satisfied by a truthy entitlement value; all other feature
// types are satisfied only through a configured per-feature default,
// because usage and limit enforcement is application-specific.
type Verifier struct {
	provider EntitlementsProvider
	registry feature.Registry
	defaults map[string]bool
	onError  ErrorHandler
	log      *slog.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithFeatureDefaults sets the fallback decision per feature ID for
// non-switch feature types.
func WithFeatureDefaults(defaults map[string]bool) VerifierOption {
	return func(v *Verifier) { v.defaults = defaults }
}

// WithErrorHandler sets the hook invoked on denial or missing-feature
// detection. Without a handler the matching sentinel error is returned
// as-is.
func WithErrorHandler(handler ErrorHandler) VerifierOption {
	return func(v *Verifier) {
		if handler != nil {
			v.onError = handler
		}
	}
}

// WithVerifierLogger attaches a logger for decision tracing.
func WithVerifierLogger(log *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		if log != nil {
			v.log = log
		}
	}
}

// NewVerifier creates the default verifier. Panics if provider or registry
// is nil.
func NewVerifier(provider EntitlementsProvider, registry feature.Registry, opts ...VerifierOption) *Verifier {
	if provider == nil {
		panic("entitlement: EntitlementsProvider is required")
	}
	if registry == nil {
		panic("entitlement: feature.Registry is required")
	}
	v := &Verifier{
		provider: provider,
		registry: registry,
		onError: func(_ context.Context, code ErrorCode, _ []string) error {
			if code == CodeMissingFeatureInDB {
				return ErrMissingFeature
			}
			return ErrAccessDenied
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// HasAccess resolves the owner's entitlements and evaluates AND semantics
// across the requested features. Features absent from the registry abort
// the check with the MISSING_FEATURE_IN_DB code before any decision is
// made, since that is a sync problem rather than a denial.
func (v *Verifier) HasAccess(ctx context.Context, ownerID uuid.UUID, featureIDs ...string) error {
	if len(featureIDs) == 0 {
		return nil
	}

	ents, err := v.provider.Ensure(ctx, ownerID)
	if err != nil {
		return err
	}

	features := make([]*feature.Feature, 0, len(featureIDs))
	var missing []string
	for _, id := range featureIDs {
		f, err := v.registry.Get(ctx, id)
		if err != nil {
			if errors.Is(err, feature.ErrFeatureNotFound) {
				missing = append(missing, id)
				continue
			}
			return err
		}
		features = append(features, f)
	}
	if len(missing) > 0 {
		v.log.WarnContext(ctx, "requested features missing from registry",
			slog.String("owner_id", ownerID.String()),
			slog.String("features", strings.Join(missing, ",")))
		return v.onError(ctx, CodeMissingFeatureInDB, missing)
	}

	for _, f := range features {
		if !v.satisfied(f, ents) {
			v.log.DebugContext(ctx, "entitlement access denied",
				slog.String("owner_id", ownerID.String()),
				slog.String("feature_id", f.ChargebeeID))
			return v.onError(ctx, CodeAccessDenied, featureIDs)
		}
	}
	return nil
}

func (v *Verifier) satisfied(f *feature.Feature, ents []Entitlement) bool {
	for _, ent := range ents {
		if ent.FeatureID != f.ChargebeeID {
			continue
		}
		if f.Type == feature.TypeSwitch {
			if truthy(ent.Value) {
				return true
			}
			continue
		}
		if v.defaults[f.ChargebeeID] {
			return true
		}
	}
	return false
}

// truthy coerces an entitlement value to a boolean the way the provider's
// switch values arrive: real booleans, the usual string spellings, or a
// non-zero number.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}
