package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/discochess/tally/internal/window"
)

// Archive lays monthly payloads out in a Store:
//
//	months/{user}/{YYYY}-{MM}.json[.ext]
//	months/{user}/manifest.json
type Archive struct {
	store Store
	codec Codec
}

// New returns an archive over store. A nil codec stores data uncompressed.
func New(store Store, codec Codec) *Archive {
	if codec == nil {
		codec = noneCodec{}
	}
	return &Archive{store: store, codec: codec}
}

// Codec returns the archive's codec.
func (a *Archive) Codec() Codec {
	return a.codec
}

// MonthName returns the object name for one user's month.
func (a *Archive) MonthName(username string, b window.Bucket) string {
	name := fmt.Sprintf("%s%04d-%02d.json", userDir(username), b.Year, int(b.Month))
	if ext := a.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

func userDir(username string) string {
	return "months/" + strings.ToLower(username) + "/"
}

// ReadMonth returns the raw payload for one user's month, or ErrNotFound.
func (a *Archive) ReadMonth(ctx context.Context, username string, b window.Bucket) ([]byte, error) {
	data, err := a.store.Get(ctx, a.MonthName(username, b))
	if err != nil {
		return nil, err
	}
	out, err := a.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", username, b, err)
	}
	return out, nil
}

// WriteMonth stores the raw payload for one user's month.
func (a *Archive) WriteMonth(ctx context.Context, username string, b window.Bucket, payload []byte) error {
	data, err := a.codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", username, b, err)
	}
	return a.store.Put(ctx, a.MonthName(username, b), data)
}

// Manifest records which months have been harvested for a user.
type Manifest struct {
	Version   int       `json:"version"`
	Username  string    `json:"username"`
	Months    []string  `json:"months"`
	Codec     string    `json:"codec"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ManifestVersion is the current manifest layout.
const ManifestVersion = 1

// ReadManifest returns the user's manifest. A missing manifest yields an
// empty one rather than an error.
func (a *Archive) ReadManifest(ctx context.Context, username string) (*Manifest, error) {
	data, err := a.store.Get(ctx, userDir(username)+"manifest.json")
	if errors.Is(err, ErrNotFound) {
		return &Manifest{Version: ManifestVersion, Username: strings.ToLower(username), Codec: a.codec.Name()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// WriteManifest stores the user's manifest uncompressed.
func (a *Archive) WriteManifest(ctx context.Context, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := a.store.Put(ctx, userDir(m.Username)+"manifest.json", data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (a *Archive) Close() error {
	return a.store.Close()
}
