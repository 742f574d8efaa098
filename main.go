package main

import "github.com/Zhima-Mochi/minishop-storebot/internal/cmd"

func main() {
	cmd.Execute()
}
