package main

import "github.com/zfogg/dormdesk/internal/cmd"

func main() {
	cmd.Execute()
}
