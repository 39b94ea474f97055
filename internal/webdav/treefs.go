package webdav

import (
	"context"
	"errors"
	"os"

	"golang.org/x/net/webdav"
	"taeu.kr/kirosumi/internal/notefs"
)

var errNoUser = errors.New("webdav: no authenticated user in context")

// TreeFS는 notefs 트리를 읽기 전용 webdav.FileSystem으로 노출합니다
type TreeFS struct {
	tree *notefs.Tree
}

func NewTreeFS(tree *notefs.Tree) webdav.FileSystem {
	return &TreeFS{tree: tree}
}

func (t *TreeFS) Mkdir(context.Context, string, os.FileMode) error {
	return os.ErrPermission
}

func (t *TreeFS) RemoveAll(context.Context, string) error {
	return os.ErrPermission
}

func (t *TreeFS) Rename(context.Context, string, string) error {
	return os.ErrPermission
}

func (t *TreeFS) OpenFile(_ context.Context, name string, flag int, _ os.FileMode) (webdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, os.ErrPermission
	}
	n, err := t.tree.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &readOnlyFile{File: n.Open()}, nil
}

func (t *TreeFS) Stat(_ context.Context, name string) (os.FileInfo, error) {
	n, err := t.tree.Lookup(name)
	if err != nil {
		return nil, err
	}
	return n, nil
}

type readOnlyFile struct {
	*notefs.File
}

func (f *readOnlyFile) Write([]byte) (int, error) {
	return 0, os.ErrPermission
}
