package main

import (
	"context"

	"github.com/cube2222/udtf/cmd"
	"github.com/cube2222/udtf/logs"
)

func main() {
	logs.InitializeFileLogger()
	defer logs.CloseLogger()

	cmd.Execute(context.Background())
}
