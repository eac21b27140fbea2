package corpusfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// DefaultCategory is assigned to records stored directly under the corpus root.
const DefaultCategory = "general"

// layoutDirs are the container directories used by the known corpus layouts.
// When present under the root they are descended into transparently.
var layoutDirs = []string{"workflows", "Workflow description"}

// Batch is the raw outcome of reading a corpus directory.
type Batch struct {
	Documents []document.Raw
	Rejected  []corpus.Rejection
}

// Loader reads workflow records from a directory tree.
// Each immediate subdirectory is a category.
type Loader struct {
	root   string
	logger *zap.Logger
}

// New creates a loader rooted at dir.
func New(dir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{root: dir, logger: logger}
}

// Root returns the configured corpus directory.
func (l *Loader) Root() string { return l.root }

// Load reads every .json/.yaml/.yml file under the root. Unreadable or
// malformed files become rejections; only a missing root is an error.
func (l *Loader) Load(ctx context.Context) (Batch, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return Batch{}, fmt.Errorf("corpus dir: %w", err)
	}
	if !info.IsDir() {
		return Batch{}, fmt.Errorf("corpus dir %s: not a directory", l.root)
	}

	var batch Batch
	for _, base := range resolveRoots(l.root) {
		if err := l.loadTree(ctx, base, &batch); err != nil {
			return Batch{}, err
		}
	}

	l.logger.Debug("corpus files read",
		zap.String("root", l.root),
		zap.Int("records", len(batch.Documents)),
		zap.Int("rejected", len(batch.Rejected)),
	)
	return batch, nil
}

// resolveRoots returns the layout containers present under root, or root itself.
func resolveRoots(root string) []string {
	var roots []string
	for _, name := range layoutDirs {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			roots = append(roots, p)
		}
	}
	if len(roots) == 0 {
		return []string{root}
	}
	return roots
}

func (l *Loader) loadTree(ctx context.Context, base string, batch *Batch) error {
	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := l.relative(path)
		if err != nil {
			batch.Rejected = append(batch.Rejected, corpus.Rejection{RawID: rel, Reason: "read: " + err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != base && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !isRecordFile(d.Name()) {
			return nil
		}
		l.loadFile(path, rel, categoryOf(base, path), batch)
		return nil
	})
}

func (l *Loader) loadFile(path, rel, category string, batch *Batch) {
	data, err := os.ReadFile(path)
	if err != nil {
		batch.Rejected = append(batch.Rejected, corpus.Rejection{RawID: rel, Reason: "read: " + err.Error()})
		return
	}
	values, err := decode(path, data)
	if err != nil {
		l.logger.Warn("corpus file rejected", zap.String("path", rel), zap.Error(err))
		batch.Rejected = append(batch.Rejected, corpus.Rejection{RawID: rel, Reason: "parse: " + err.Error()})
		return
	}

	for i, v := range values {
		id := rel
		if len(values) > 1 {
			id = fmt.Sprintf("%s#%d", rel, i)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			batch.Rejected = append(batch.Rejected, corpus.Rejection{RawID: id, Reason: "record is not an object"})
			continue
		}
		raw := toRaw(obj)
		if raw.SourceID == "" {
			raw.SourceID = id
		}
		raw.Category = category
		batch.Documents = append(batch.Documents, raw)
	}
}

func (l *Loader) relative(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func isRecordFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return !strings.HasPrefix(name, ".")
	default:
		return false
	}
}

// categoryOf is the first directory below base, or DefaultCategory for files directly in base.
func categoryOf(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return DefaultCategory
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return DefaultCategory
	}
	return parts[0]
}

// decode parses a JSON or YAML file holding one record or a list of records.
func decode(path string, data []byte) ([]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty file")
	}
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case nil:
		return nil, errors.New("no records")
	default:
		return []any{t}, nil
	}
}
