// kiro는 kirosumi 서버용 명령줄 클라이언트입니다.
package main

import "taeu.kr/kirosumi/internal/cli"

func main() {
	cli.Execute()
}
