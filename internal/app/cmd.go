package app

// Command はアプリケーションの起動モードを表す。
// 1つのバイナリをsupervisorの引数だけで使い分ける。
type Command string

const (
	// CommandServe は読み取り専用APIサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker はニュース取り込み・分析ワーカーとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーママイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はAPIサーバーの死活確認を行って終了する。
	// シェルを持たないコンテナ環境のヘルスチェックから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は先頭のコマンドライン引数からサブコマンドを解析する。
// 引数なし、またはサポート外の値の場合はCommandServeを返す。
// 2つ目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
