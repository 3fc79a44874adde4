package enginetest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/bmatcuk/doublestar/v4"
)

// HostFS is a Backend serving host, directory, file and envVariable chains
// from a directory tree on disk. Every host path is resolved inside root.
// It never writes: withNewFile builds an in-memory overlay.
type HostFS struct {
	fsys   fs.FS
	lookup func(string) (string, bool)
}

// HostFSOption configures a HostFS.
type HostFSOption func(*HostFS)

// WithEnv replaces os.LookupEnv for envVariable chains.
func WithEnv(vars map[string]string) HostFSOption {
	return func(h *HostFS) {
		h.lookup = func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		}
	}
}

// NewHostFS serves the tree rooted at root.
func NewHostFS(root string, opts ...HostFSOption) *HostFS {
	h := &HostFS{
		fsys:   os.DirFS(root),
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FileInfo is the payload of file.stat.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

type dirNode struct {
	fsys    fs.FS // nil for a scratch directory
	overlay map[string]string
	include []string
	exclude []string
}

type fileNode struct {
	fsys    fs.FS
	name    string
	content *string // set for overlay files
}

type envNode struct {
	name string
}

// Execute implements Backend.
func (h *HostFS) Execute(ctx context.Context, chain domain.Chain) (any, error) {
	var cur any
	for i, op := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := h.step(cur, i, op)
		if err != nil {
			return nil, &StepError{Step: i, Err: err}
		}
		cur = next
	}
	switch cur.(type) {
	case hostNode, dirNode, fileNode, envNode:
		return nil, &StepError{Step: len(chain) - 1, Err: fmt.Errorf("%s is not a terminal operation", chain[len(chain)-1].Name)}
	}
	return cur, nil
}

type hostNode struct{}

func (h *HostFS) step(cur any, i int, op domain.Operation) (any, error) {
	if i == 0 {
		switch op.Name {
		case "host":
			return hostNode{}, nil
		case "directory":
			return dirNode{overlay: map[string]string{}}, nil
		default:
			return nil, fmt.Errorf("unknown root %q", op.Name)
		}
	}

	switch node := cur.(type) {
	case hostNode:
		return h.hostOp(node, op)
	case dirNode:
		return dirOp(node, op)
	case fileNode:
		return fileOp(node, op)
	case envNode:
		return h.envOp(node, op)
	default:
		return nil, fmt.Errorf("cannot select %q on a %T result", op.Name, cur)
	}
}

func (h *HostFS) hostOp(_ hostNode, op domain.Operation) (any, error) {
	switch op.Name {
	case "directory":
		p, err := pathArg(op, "path")
		if err != nil {
			return nil, err
		}
		sub, err := fs.Sub(h.fsys, p)
		if err != nil {
			return nil, err
		}
		info, err := fs.Stat(h.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, unwrapPathError(err))
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: not a directory", p)
		}
		return dirNode{
			fsys:    sub,
			overlay: map[string]string{},
			include: stringsArg(op, "include"),
			exclude: stringsArg(op, "exclude"),
		}, nil
	case "file":
		p, err := pathArg(op, "path")
		if err != nil {
			return nil, err
		}
		return fileNode{fsys: h.fsys, name: p}, nil
	case "envVariable":
		name, err := stringArg(op, "name")
		if err != nil {
			return nil, err
		}
		return envNode{name: name}, nil
	default:
		return nil, fmt.Errorf("host has no field %q", op.Name)
	}
}

func dirOp(d dirNode, op domain.Operation) (any, error) {
	switch op.Name {
	case "entries":
		if _, ok := op.Arg("path"); ok {
			p, err := pathArg(op, "path")
			if err != nil {
				return nil, err
			}
			sub, err := d.sub(p)
			if err != nil {
				return nil, err
			}
			return sub.entries()
		}
		return d.entries()
	case "glob":
		pattern, err := stringArg(op, "pattern")
		if err != nil {
			return nil, err
		}
		return d.glob(pattern)
	case "directory":
		p, err := pathArg(op, "path")
		if err != nil {
			return nil, err
		}
		return d.sub(p)
	case "file":
		p, err := pathArg(op, "path")
		if err != nil {
			return nil, err
		}
		if content, ok := d.overlay[p]; ok {
			return fileNode{name: p, content: &content}, nil
		}
		if d.fsys == nil {
			return nil, fmt.Errorf("%s: no such file or directory", p)
		}
		return fileNode{fsys: d.fsys, name: p}, nil
	case "withNewFile":
		p, err := pathArg(op, "path")
		if err != nil {
			return nil, err
		}
		contents, _ := op.Arg("contents")
		text, _ := contents.(string)
		overlay := make(map[string]string, len(d.overlay)+1)
		for k, v := range d.overlay {
			overlay[k] = v
		}
		overlay[p] = text
		d.overlay = overlay
		return d, nil
	default:
		return nil, fmt.Errorf("directory has no field %q", op.Name)
	}
}

func (d dirNode) sub(p string) (dirNode, error) {
	if p == "." {
		return d, nil
	}
	out := dirNode{overlay: map[string]string{}}
	prefix := p + "/"
	for k, v := range d.overlay {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			out.overlay[rest] = v
		}
	}
	if d.fsys != nil {
		info, err := fs.Stat(d.fsys, p)
		switch {
		case err == nil && info.IsDir():
			sub, err := fs.Sub(d.fsys, p)
			if err != nil {
				return dirNode{}, err
			}
			out.fsys = sub
		case err == nil:
			return dirNode{}, fmt.Errorf("%s: not a directory", p)
		case len(out.overlay) == 0:
			return dirNode{}, fmt.Errorf("%s: %w", p, unwrapPathError(err))
		}
	} else if len(out.overlay) == 0 {
		return dirNode{}, fmt.Errorf("%s: no such file or directory", p)
	}
	return out, nil
}

// entries lists immediate children; directories carry a trailing slash.
func (d dirNode) entries() ([]string, error) {
	seen := map[string]bool{}
	if d.fsys != nil {
		list, err := fs.ReadDir(d.fsys, ".")
		if err != nil {
			return nil, unwrapPathError(err)
		}
		for _, e := range list {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			seen[name] = true
		}
	}
	for k := range d.overlay {
		if first, _, nested := strings.Cut(k, "/"); nested {
			seen[first+"/"] = true
		} else {
			seen[k] = true
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		if !d.allowed(strings.TrimSuffix(name, "/")) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (d dirNode) glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	seen := map[string]bool{}
	if d.fsys != nil {
		matches, err := doublestar.Glob(d.fsys, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			seen[m] = true
		}
	}
	for k := range d.overlay {
		if ok, _ := doublestar.Match(pattern, k); ok {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		if d.allowed(m) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (d dirNode) allowed(name string) bool {
	if len(d.include) > 0 && !matchAny(d.include, name) {
		return false
	}
	return !matchAny(d.exclude, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func fileOp(f fileNode, op domain.Operation) (any, error) {
	switch op.Name {
	case "name":
		return path.Base(f.name), nil
	case "contents":
		if f.content != nil {
			return *f.content, nil
		}
		data, err := fs.ReadFile(f.fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, unwrapPathError(err))
		}
		return string(data), nil
	case "size":
		info, err := f.stat()
		if err != nil {
			return nil, err
		}
		return info.Size, nil
	case "stat":
		info, err := f.stat()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":     info.Name,
			"size":     info.Size,
			"mode":     info.Mode,
			"mod_time": info.ModTime.Format(time.RFC3339Nano),
			"is_dir":   info.IsDir,
		}, nil
	default:
		return nil, fmt.Errorf("file has no field %q", op.Name)
	}
}

func (f fileNode) stat() (FileInfo, error) {
	if f.content != nil {
		return FileInfo{
			Name: path.Base(f.name),
			Size: int64(len(*f.content)),
			Mode: fs.FileMode(0o644).String(),
		}, nil
	}
	info, err := fs.Stat(f.fsys, f.name)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: %w", f.name, unwrapPathError(err))
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s: is a directory", f.name)
	}
	return FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode().String(),
		ModTime: info.ModTime().UTC(),
		IsDir:   info.IsDir(),
	}, nil
}

func (h *HostFS) envOp(e envNode, op domain.Operation) (any, error) {
	switch op.Name {
	case "name":
		return e.name, nil
	case "value":
		v, ok := h.lookup(e.name)
		if !ok {
			return nil, fmt.Errorf("environment variable %s is not set", e.name)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("envVariable has no field %q", op.Name)
	}
}

func stringArg(op domain.Operation, name string) (string, error) {
	v, ok := op.Arg(name)
	if !ok {
		return "", fmt.Errorf("%s: missing argument %q", op.Name, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %q must be a string, got %T", op.Name, name, v)
	}
	return s, nil
}

// pathArg returns a cleaned, root-relative path. Absolute paths are
// treated as relative to the root; paths escaping it are rejected.
func pathArg(op domain.Operation, name string) (string, error) {
	s, err := stringArg(op, name)
	if err != nil {
		return "", err
	}
	p := path.Clean("/" + s)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "."
	}
	if c := path.Clean(s); c == ".." || strings.HasPrefix(c, "../") || !fs.ValidPath(p) {
		return "", fmt.Errorf("%s: path %q escapes the host root", op.Name, s)
	}
	return p, nil
}

func stringsArg(op domain.Operation, name string) []string {
	v, ok := op.Arg(name)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// unwrapPathError drops the *fs.PathError wrapper so messages do not
// repeat the operation and path.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
