package sftp

import (
	"bytes"
	"errors"
	"io"
	"os"

	pkgsftp "github.com/pkg/sftp"
	"taeu.kr/kirosumi/internal/notefs"
)

// treeHandlers는 세션 시작 시 만든 트리를 서빙합니다. 쓰기 요청은 모두 거부한다.
type treeHandlers struct {
	tree *notefs.Tree
}

func newTreeHandlers(tree *notefs.Tree) *treeHandlers {
	return &treeHandlers{tree: tree}
}

func (h *treeHandlers) Fileread(req *pkgsftp.Request) (io.ReaderAt, error) {
	node, err := h.tree.Lookup(req.Filepath)
	if err != nil {
		return nil, os.ErrNotExist
	}
	if node.IsDir() {
		return nil, errors.New("not a file")
	}
	return bytes.NewReader(node.Data()), nil
}

func (h *treeHandlers) Filewrite(*pkgsftp.Request) (io.WriterAt, error) {
	return nil, os.ErrPermission
}

func (h *treeHandlers) Filecmd(req *pkgsftp.Request) error {
	switch req.Method {
	case "Setstat":
		// 일부 클라이언트는 다운로드 후 timestamp를 맞추려 한다
		return nil
	case "Rename", "Rmdir", "Mkdir", "Remove", "Link", "Symlink":
		return os.ErrPermission
	default:
		return os.ErrInvalid
	}
}

func (h *treeHandlers) Filelist(req *pkgsftp.Request) (pkgsftp.ListerAt, error) {
	node, err := h.tree.Lookup(req.Filepath)
	if err != nil {
		return nil, os.ErrNotExist
	}

	switch req.Method {
	case "List":
		if !node.IsDir() {
			return nil, errors.New("not a directory")
		}
		children := node.Children()
		entries := make([]os.FileInfo, len(children))
		for i, c := range children {
			entries[i] = c
		}
		return &fileInfoLister{entries: entries}, nil

	case "Stat":
		return &fileInfoLister{entries: []os.FileInfo{node}}, nil

	case "Readlink":
		return nil, os.ErrPermission
	default:
		return nil, os.ErrInvalid
	}
}

type fileInfoLister struct {
	entries []os.FileInfo
}

func (l *fileInfoLister) ListAt(target []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l.entries)) {
		return 0, io.EOF
	}

	n := copy(target, l.entries[offset:])
	if int(offset)+n >= len(l.entries) {
		return n, io.EOF
	}

	return n, nil
}
