package main

import "github.com/zhouzirui/whispers/backend/internal/cli"

func main() {
	cli.Execute()
}
