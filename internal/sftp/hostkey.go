package sftp

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	xssh "golang.org/x/crypto/ssh"
	"taeu.kr/kirosumi/internal/config"
)

const (
	hostKeyName    = "sftp_host_ed25519_key"
	hostKeyFileEnv = "KIROSUMI_SFTP_HOST_KEY_FILE"
)

// resolveHostKeyPath: 환경변수 > 설정 디렉토리 > 사용자 설정 디렉토리
func resolveHostKeyPath() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(hostKeyFileEnv)); custom != "" {
		return custom, nil
	}
	if dir := strings.TrimSpace(config.ConfigDir()); dir != "" {
		return filepath.Join(dir, "secrets", hostKeyName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(dir) == "" {
		return "", errors.New("failed to resolve sftp host key path")
	}
	return filepath.Join(dir, "Kirosumi", "secrets", hostKeyName), nil
}

// loadOrCreateHostSigner는 키가 없으면 ed25519 키를 만들어 0600으로 저장합니다.
// 재시작해도 같은 호스트 키를 써야 클라이언트의 known_hosts 경고가 나지 않는다.
func loadOrCreateHostSigner(path string) (xssh.Signer, error) {
	keyBytes, err := os.ReadFile(path)
	if err == nil {
		signer, err := xssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse sftp host key: %w", err)
		}
		return signer, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read sftp host key: %w", err)
	}

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate sftp host key: %w", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("marshal sftp host key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("create sftp host signer: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create sftp host key directory: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	if err := os.WriteFile(path, block, 0600); err != nil {
		return nil, fmt.Errorf("write sftp host key: %w", err)
	}
	return signer, nil
}
