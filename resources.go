package tendril

import (
	"context"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/query"
	"github.com/aretw0/tendril/pkg/resolve"
)

// Host is the machine the engine runs on.
type Host struct {
	ref    query.Ref
	client *Client
}

// Directory is a lazily evaluated directory tree.
type Directory struct {
	ref    query.Ref
	client *Client
}

// File is a lazily evaluated file.
type File struct {
	ref    query.Ref
	client *Client
}

// EnvVariable is a lazily evaluated environment variable on the host.
type EnvVariable struct {
	ref    query.Ref
	client *Client
}

// FileInfo describes a file, as returned by File.Stat.
type FileInfo struct {
	Name    string    `json:"name" yaml:"name"`
	Size    int64     `json:"size" yaml:"size"`
	Mode    string    `json:"mode" yaml:"mode"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	IsDir   bool      `json:"is_dir" yaml:"is_dir"`
}

// HostDirectoryOpts are the optional arguments of Host.Directory.
type HostDirectoryOpts struct {
	// Include keeps only entries matching one of these glob patterns.
	Include []string
	// Exclude drops entries matching one of these glob patterns.
	Exclude []string
}

// DirectoryEntriesOpts are the optional arguments of Directory.Entries.
type DirectoryEntriesOpts struct {
	// Path lists a subdirectory instead of the directory itself.
	Path string
}

// Host returns a reference to the engine's host. No I/O is performed.
func (c *Client) Host() *Host {
	return &Host{ref: query.Root(c.session, "host"), client: c}
}

// Directory returns a reference to a new, empty directory.
func (c *Client) Directory() *Directory {
	return &Directory{ref: query.Root(c.session, "directory"), client: c}
}

// Directory selects a directory on the host. Patterns from several opts
// are combined.
func (h *Host) Directory(path string, opts ...HostDirectoryOpts) *Directory {
	var include, exclude []string
	for _, o := range opts {
		include = append(include, o.Include...)
		exclude = append(exclude, o.Exclude...)
	}
	ref := h.ref.Select("directory",
		query.Arg("path", path),
		query.Arg("include", include),
		query.Arg("exclude", exclude),
	)
	return &Directory{ref: ref, client: h.client}
}

// File selects a file on the host.
func (h *Host) File(path string) *File {
	return &File{ref: h.ref.Select("file", query.Arg("path", path)), client: h.client}
}

// EnvVariable selects an environment variable on the host.
func (h *Host) EnvVariable(name string) *EnvVariable {
	return &EnvVariable{ref: h.ref.Select("envVariable", query.Arg("name", name)), client: h.client}
}

// Entries lists the directory. Subdirectories end with a slash. When
// several opts set Path, the last one wins.
func (d *Directory) Entries(ctx context.Context, opts ...DirectoryEntriesOpts) ([]string, error) {
	var path string
	for _, o := range opts {
		if o.Path != "" {
			path = o.Path
		}
	}
	return resolveAs[[]string](ctx, d.client, d.ref.Select("entries", query.Arg("path", optional(path))))
}

// Glob lists the paths matching pattern, which may use "**".
func (d *Directory) Glob(ctx context.Context, pattern string) ([]string, error) {
	return resolveAs[[]string](ctx, d.client, d.ref.Select("glob", query.Arg("pattern", pattern)))
}

// Directory selects a subdirectory.
func (d *Directory) Directory(path string) *Directory {
	return &Directory{ref: d.ref.Select("directory", query.Arg("path", path)), client: d.client}
}

// File selects a file inside the directory.
func (d *Directory) File(path string) *File {
	return &File{ref: d.ref.Select("file", query.Arg("path", path)), client: d.client}
}

// WithNewFile returns the directory plus a file at path holding contents.
// The receiver is unchanged.
func (d *Directory) WithNewFile(path, contents string) *Directory {
	return &Directory{
		ref:    d.ref.Select("withNewFile", query.Arg("path", path), query.Arg("contents", contents)),
		client: d.client,
	}
}

func (d *Directory) String() string { return d.ref.String() }

// Contents returns the file contents.
func (f *File) Contents(ctx context.Context) (string, error) {
	return resolveAs[string](ctx, f.client, f.ref.Select("contents"))
}

// Size returns the file size in bytes.
func (f *File) Size(ctx context.Context) (int64, error) {
	return resolveAs[int64](ctx, f.client, f.ref.Select("size"))
}

// Name returns the base name of the file.
func (f *File) Name(ctx context.Context) (string, error) {
	return resolveAs[string](ctx, f.client, f.ref.Select("name"))
}

// Stat returns the file's metadata.
func (f *File) Stat(ctx context.Context) (*FileInfo, error) {
	info, err := resolveAs[FileInfo](ctx, f.client, f.ref.Select("stat"))
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (f *File) String() string { return f.ref.String() }

// Name returns the variable name.
func (e *EnvVariable) Name(ctx context.Context) (string, error) {
	return resolveAs[string](ctx, e.client, e.ref.Select("name"))
}

// Value returns the variable value.
func (e *EnvVariable) Value(ctx context.Context) (string, error) {
	return resolveAs[string](ctx, e.client, e.ref.Select("value"))
}

func (e *EnvVariable) String() string { return e.ref.String() }

func resolveAs[T any](ctx context.Context, c *Client, ref query.Ref) (T, error) {
	return resolve.As[T](ctx, c.resolver, ref)
}

// optional maps the zero string to nil so the argument is left out.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Chain returns the operations the directory reference stands for.
func (d *Directory) Chain() domain.Chain { return d.ref.Chain() }

// Chain returns the operations the file reference stands for.
func (f *File) Chain() domain.Chain { return f.ref.Chain() }

// Chain returns the operations the variable reference stands for.
func (e *EnvVariable) Chain() domain.Chain { return e.ref.Chain() }
