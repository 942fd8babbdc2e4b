package feature

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	leadingDigits   = regexp.MustCompile(`^[0-9]+`)
)

// EnumCase is one constant of the generated feature enumeration: a
// normalized case name mapped to the provider's feature ID.
type EnumCase struct {
	Name  string
	Value string
}

// Syncer mirrors remote feature definitions into the local registry and
// derives the enumeration cases used for compile-time feature references.
type Syncer struct {
	gateway  ListingGateway
	registry Registry
	log      *slog.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithSyncLogger attaches a logger for sync progress and skip warnings.
func WithSyncLogger(log *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSyncer creates a Syncer. Panics if gateway or registry is nil.
func NewSyncer(gateway ListingGateway, registry Registry, opts ...SyncerOption) *Syncer {
	if gateway == nil {
		panic("feature: ListingGateway is required")
	}
	if registry == nil {
		panic("feature: Registry is required")
	}
	s := &Syncer{
		gateway:  gateway,
		registry: registry,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync walks the remote feature list until the cursor is exhausted,
// upserts every feature into the registry, and returns the enumeration
// cases in listing order. Features whose name normalizes to an empty case
// name are skipped with a warning; name collisions get a short hash of the
// feature ID appended.
func (s *Syncer) Sync(ctx context.Context) ([]EnumCase, error) {
	seen := make(map[string]bool)
	var cases []EnumCase

	offset := ""
	for {
		page, err := s.gateway.List(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, f := range page.Features {
			caseName := CaseName(f.Name)
			if caseName == "" {
				s.log.WarnContext(ctx, "skipping feature with unmappable name",
					slog.String("feature_id", f.ChargebeeID), slog.String("name", f.Name))
				continue
			}
			if seen[caseName] {
				caseName = caseName + "_" + shortHash(f.ChargebeeID)
			}

			if err := s.registry.Upsert(ctx, f); err != nil {
				return nil, fmt.Errorf("sync feature %s: %w", f.ChargebeeID, err)
			}

			seen[caseName] = true
			cases = append(cases, EnumCase{Name: caseName, Value: f.ChargebeeID})
		}

		if page.NextOffset == "" {
			break
		}
		offset = page.NextOffset
	}

	if len(cases) == 0 {
		return nil, ErrNoFeatures
	}

	s.log.DebugContext(ctx, "feature registry synced", slog.Int("features", len(cases)))
	return cases, nil
}

// CaseName normalizes a feature name into an enumeration case name: runs
// of non-alphanumerics become underscores, leading digits are stripped,
// and the result is trimmed and uppercased. Returns "" for names with no
// usable characters.
func CaseName(name string) string {
	underscored := nonAlphanumeric.ReplaceAllString(name, "_")
	underscored = leadingDigits.ReplaceAllString(underscored, "")
	return strings.ToUpper(strings.Trim(underscored, "_"))
}

func shortHash(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])[:6]
}
