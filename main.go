package main

import (
	"os"

	"github.com/smallnest/wechat-intercom/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
