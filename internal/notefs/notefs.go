// Package notefs renders a user's spaces, projects, items and captures as a
// read-only tree of Markdown files. The SFTP and WebDAV mounts serve it.
package notefs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	pathpkg "path"
	"sort"
	"strings"
	"time"

	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/richtext"
	"taeu.kr/kirosumi/internal/space"
)

const CapturesDir = "Captures"

type SpaceReader interface {
	List(ctx context.Context, userID int64) ([]*space.Space, error)
	GetDetail(ctx context.Context, userID int64, publicID string) (*space.Detail, error)
}

type CaptureReader interface {
	List(ctx context.Context, userID int64) ([]*capture.Capture, error)
}

type Builder struct {
	spaces   SpaceReader
	captures CaptureReader
}

func NewBuilder(spaces SpaceReader, captures CaptureReader) *Builder {
	return &Builder{spaces: spaces, captures: captures}
}

// Build는 호출 시점의 스냅샷으로 트리를 만듭니다. 요청마다 새로 만든다.
func (b *Builder) Build(ctx context.Context, userID int64) (*Tree, error) {
	now := time.Now()
	root := newDir("/", now)

	captures, err := b.captures.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	capDir := root.addDir(CapturesDir, now)
	for _, c := range captures {
		capDir.addFile(c.Title, modTime(c.CreatedAt, c.UpdatedAt), renderCapture(c))
	}

	spaces, err := b.spaces.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	for _, sp := range spaces {
		detail, err := b.spaces.GetDetail(ctx, userID, sp.PublicID)
		if err != nil {
			return nil, fmt.Errorf("load space %s: %w", sp.PublicID, err)
		}

		spDir := root.addDir(sp.Name, modTime(sp.CreatedAt, sp.UpdatedAt))
		for _, p := range detail.Projects {
			pDir := spDir.addDir(p.Name, modTime(p.CreatedAt, p.UpdatedAt))
			for _, it := range p.Items {
				pDir.addFile(it.Name, modTime(it.CreatedAt, it.UpdatedAt), renderItem(it))
			}
		}
		for _, it := range detail.Items {
			spDir.addFile(it.Name, modTime(it.CreatedAt, it.UpdatedAt), renderItem(it))
		}
	}

	root.sortAll()
	return &Tree{root: root}, nil
}

func renderCapture(c *capture.Capture) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", c.Title)
	if body := richtext.Markdown(c.Description); strings.TrimSpace(body) != "" {
		b.WriteString("\n" + body)
	}
	return []byte(b.String())
}

func renderItem(it *item.Item) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", it.Name)

	meta := []string{"kind: " + string(it.Kind)}
	if it.Status != nil {
		meta = append(meta, "status: "+it.Status.Name)
	}
	if it.Kind == item.KindTask {
		meta = append(meta, fmt.Sprintf("completed: %t", it.IsCompleted))
	}
	if it.Priority != 0 {
		meta = append(meta, fmt.Sprintf("priority: %d", it.Priority))
	}
	b.WriteString("> " + strings.Join(meta, " · ") + "\n")

	if body := richtext.Markdown(it.Content); strings.TrimSpace(body) != "" {
		b.WriteString("\n" + body)
	}
	return []byte(b.String())
}

func modTime(created time.Time, updated *time.Time) time.Time {
	if updated != nil {
		return *updated
	}
	return created
}

// Tree는 fs.FS이기도 합니다. Lookup은 "/"로 시작하는 가상 경로를 받는다.
type Tree struct {
	root *Node
}

// Clean은 역슬래시와 ".."을 정리한 절대 가상 경로를 반환합니다
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return pathpkg.Clean("/" + strings.TrimPrefix(p, "/"))
}

// Empty는 항목이 없는 트리입니다
func Empty() *Tree {
	return &Tree{root: newDir("/", time.Now())}
}

func (t *Tree) Root() *Node {
	return t.root
}

func (t *Tree) Lookup(p string) (*Node, error) {
	p = Clean(p)
	if p == "/" {
		return t.root, nil
	}

	n := t.root
	for _, part := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		n = n.child(part)
		if n == nil {
			return nil, fs.ErrNotExist
		}
	}
	return n, nil
}

func (t *Tree) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	n, err := t.Lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return n.Open(), nil
}

// Node는 디렉터리 또는 Markdown 파일이며 fs.FileInfo를 구현합니다
type Node struct {
	name     string
	dir      bool
	modTime  time.Time
	data     []byte
	children []*Node
	index    map[string]*Node
}

func newDir(name string, mod time.Time) *Node {
	return &Node{name: name, dir: true, modTime: mod, index: map[string]*Node{}}
}

func (n *Node) addDir(name string, mod time.Time) *Node {
	d := newDir(n.uniqueName(sanitize(name), ""), mod)
	n.add(d)
	return d
}

func (n *Node) addFile(title string, mod time.Time, data []byte) {
	name := n.uniqueName(sanitize(title), ".md")
	n.add(&Node{name: name, modTime: mod, data: data})
}

func (n *Node) add(child *Node) {
	n.children = append(n.children, child)
	n.index[child.name] = child
	if child.modTime.After(n.modTime) {
		n.modTime = child.modTime
	}
}

// uniqueName은 같은 디렉터리 안에서 "name (2).md" 식으로 충돌을 피합니다
func (n *Node) uniqueName(base, ext string) string {
	name := base + ext
	for i := 2; ; i++ {
		if _, taken := n.index[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
}

func (n *Node) child(name string) *Node {
	if !n.dir {
		return nil
	}
	return n.index[name]
}

func (n *Node) sortAll() {
	sort.Slice(n.children, func(i, j int) bool { return n.children[i].name < n.children[j].name })
	for _, c := range n.children {
		if c.dir {
			c.sortAll()
		}
	}
}

func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) Data() []byte {
	return n.data
}

func (n *Node) Name() string       { return n.name }
func (n *Node) Size() int64        { return int64(len(n.data)) }
func (n *Node) ModTime() time.Time { return n.modTime }
func (n *Node) IsDir() bool        { return n.dir }
func (n *Node) Sys() any           { return nil }

func (n *Node) Mode() fs.FileMode {
	if n.dir {
		return fs.ModeDir | 0555
	}
	return 0444
}

func (n *Node) Type() fs.FileMode          { return n.Mode().Type() }
func (n *Node) Info() (fs.FileInfo, error) { return n, nil }

// Open은 읽기 전용 핸들을 반환합니다. 디렉터리 핸들은 ReadDir을 지원한다.
func (n *Node) Open() *File {
	return &File{node: n, Reader: bytes.NewReader(n.data)}
}

type File struct {
	*bytes.Reader
	node *Node
	pos  int
}

func (f *File) Stat() (fs.FileInfo, error) {
	return f.node, nil
}

func (f *File) Read(p []byte) (int, error) {
	if f.node.dir {
		return 0, &fs.PathError{Op: "read", Path: f.node.name, Err: fs.ErrInvalid}
	}
	return f.Reader.Read(p)
}

func (f *File) Close() error {
	return nil
}

func (f *File) ReadDir(count int) ([]fs.DirEntry, error) {
	infos, err := f.Readdir(count)
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = info.(*Node)
	}
	return entries, err
}

// Readdir는 os.File과 같은 규칙을 따릅니다. count > 0 이고 끝이면 io.EOF.
func (f *File) Readdir(count int) ([]fs.FileInfo, error) {
	if !f.node.dir {
		return nil, &fs.PathError{Op: "readdir", Path: f.node.name, Err: fs.ErrInvalid}
	}

	rest := f.node.children[f.pos:]
	if count > 0 && len(rest) == 0 {
		return nil, io.EOF
	}
	if count > 0 && count < len(rest) {
		rest = rest[:count]
	}
	f.pos += len(rest)

	out := make([]fs.FileInfo, len(rest))
	for i, c := range rest {
		out[i] = c
	}
	return out, nil
}

// sanitize는 경로 구분자와 앞뒤 공백, 숨김 파일처럼 보이는 이름을 정리합니다
func sanitize(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(name))
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "untitled"
	}
	return name
}
