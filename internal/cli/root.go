// Package cli는 kiro 명령줄 클라이언트입니다. 서버의 RPC 표면을 pkg/client로 호출합니다.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"taeu.kr/kirosumi/pkg/client"
)

const defaultServer = "http://localhost:3000"

// rootFlags는 모든 하위 명령이 공유하는 전역 플래그입니다
type rootFlags struct {
	server      string
	jsonMode    bool
	sessionFile string
}

// app은 명령 실행 동안 유지되는 상태입니다
type app struct {
	flags   rootFlags
	session *sessionFile
	client  *client.Client
}

// NewRootCmd는 전역 플래그와 하위 명령이 등록된 kiro 루트 명령을 만듭니다.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "kiro",
		Short:        "Capture and browse kirosumi notes from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.persist()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.server, "server", "", "server url (env KIROSUMI_SERVER, default "+defaultServer+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.sessionFile, "session-file", "", "where login cookies are kept (env KIROSUMI_SESSION_FILE)")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newCaptureCmd(a))
	root.AddCommand(newItemsCmd(a))
	root.AddCommand(newSpacesCmd(a))

	return root
}

// Execute는 루트 명령을 실행하고 실패하면 종료 코드 1로 끝냅니다.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) connect() error {
	path, err := resolveSessionPath(a.flags.sessionFile)
	if err != nil {
		return err
	}
	a.session, err = loadSession(path)
	if err != nil {
		return err
	}

	server := resolveServer(a.flags.server, a.session.Server)
	a.client, err = client.New(server)
	if err != nil {
		return err
	}
	// 다른 서버로 바꾸면 이전 쿠키는 쓰지 않는다
	if a.session.Server == server {
		a.client.SetTokens(a.session.Tokens)
	}
	a.session.Server = server
	return nil
}

func (a *app) persist() error {
	if a.client == nil || a.session == nil {
		return nil
	}
	a.session.Tokens = a.client.Tokens()
	return a.session.save()
}

// resolveServer는 플래그, 환경변수, 저장된 세션, 기본값 순으로 서버를 고릅니다.
func resolveServer(flag, saved string) string {
	for _, v := range []string{flag, os.Getenv("KIROSUMI_SERVER"), saved} {
		if v = strings.TrimSpace(v); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return defaultServer
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
