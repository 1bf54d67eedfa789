package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/unit"
)

// NoScript is the script identity used when no extension script is loaded.
const NoScript = "0"

// Key locates a cache entry.
type Key struct {
	// Script identifies the extension script the engine runs with
	Script string

	// Fingerprint identifies the compilation unit
	Fingerprint string
}

// fingerprintFields are the unit fields that determine a compilation.
// Imports and the last failure are not part of the key.
type fingerprintFields struct {
	SourceLocation string           `json:"source_location"`
	Destination    string           `json:"destination"`
	Encoding       string           `json:"encoding"`
	Resolver       string           `json:"resolver"`
	Options        compiler.Options `json:"options"`
}

// Fingerprint creates a unique hash for a unit's compilation settings
// The hash is based on:
// - Source location and destination
// - Destination encoding
// - Resolver identity
// - Compile options
func Fingerprint(u *unit.Unit) (string, error) {
	data, err := json.Marshal(fingerprintFields{
		SourceLocation: u.SourceLocation(),
		Destination:    u.Destination(),
		Encoding:       u.Encoding(),
		Resolver:       u.Resolver().Identity(),
		Options:        u.Options(),
	})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

// ScriptIdentity returns the cache namespace for an extension script.
func ScriptIdentity(script string) string {
	if script == "" {
		return NoScript
	}

	return strconv.FormatUint(xxhash.Sum64String(script), 16)
}
