package robots

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/types"
)

// Expert advisor binaries and their source companions.
const (
	expertExt = ".ex5"
	sourceExt = ".mq5"
)

// The MQL5 convention for exposing a strategy identifier:
//
//	input int MagicNumber = 12345;
var magicPattern = regexp.MustCompile(`(?i)input\s+int\s+MagicNumber\s*=\s*(\d+)\s*;`)

// MetaEditor saves sources as UTF-16LE with BOM by default, but repositories
// accumulate files from editors with other defaults. Tried in order; the
// first clean decode wins. Windows-1252 is last because it accepts any byte
// sequence.
var decoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-16le-bom", unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)},
	{"utf-16be-bom", unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)},
	{"windows-1252", charmap.Windows1252},
}

// Registry scans the terminal's Experts directory and correlates each
// compiled robot with the magic number declared in its source file.
type Registry struct {
	dir string
}

var _ interfaces.RobotRegistry = (*Registry)(nil)

func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// List returns every robot whose magic number could be extracted. Candidates
// without a readable companion source or without a magic declaration are
// excluded silently; the directory legitimately contains unrelated files.
// The result is sorted by name for stable output, but callers must not
// attach meaning to the ordering.
func (r *Registry) List(ctx context.Context) ([]types.Robot, error) {
	if r.dir == "" {
		return nil, fmt.Errorf("experts directory not configured")
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("scan experts directory: %w", err)
	}

	robots := []types.Robot{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), expertExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		magic, ok := r.magicFor(ctx, name)
		if !ok {
			continue
		}
		robots = append(robots, types.Robot{Name: name, MagicNumber: magic})
	}

	sort.Slice(robots, func(i, j int) bool { return robots[i].Name < robots[j].Name })

	logger.Info(ctx, "Robot scan completed",
		"dir", r.dir, "found", len(robots))
	return robots, nil
}

// magicFor locates the companion source for a robot and extracts its magic
// number declaration.
func (r *Registry) magicFor(ctx context.Context, name string) (int64, bool) {
	path := filepath.Join(r.dir, name+sourceExt)
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Debug(ctx, "Robot has no companion source, excluded", "name", name)
		return 0, false
	}

	text, ok := decodeSource(ctx, path, raw)
	if !ok {
		return 0, false
	}

	m := magicPattern.FindStringSubmatch(text)
	if m == nil {
		logger.Debug(ctx, "No magic number declaration in source, excluded",
			"name", name, "path", path)
		return 0, false
	}

	magic, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		logger.Warn(ctx, "Unparseable magic number, excluded",
			"name", name, "value", m[1], "error", err)
		return 0, false
	}
	return magic, true
}

// decodeSource tries the encoding ladder and returns the first clean decode.
// Undecodable files drop the candidate from the listing, never the request.
func decodeSource(ctx context.Context, path string, raw []byte) (string, bool) {
	// UTF-16 text whose code points are all ASCII is NUL-interleaved and
	// passes utf8.Valid, so the fast path must also reject NUL bytes.
	if utf8.Valid(raw) && !bytes.ContainsRune(raw, 0) {
		return string(raw), true
	}

	for _, d := range decoders {
		decoded, err := d.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		logger.Debug(ctx, "Source decoded", "path", path, "encoding", d.name)
		return string(decoded), true
	}

	logger.Warn(ctx, "Companion source undecodable with any tried encoding, excluded", "path", path)
	return "", false
}
