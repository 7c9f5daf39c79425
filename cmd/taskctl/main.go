package main

import "github.com/BuzzLyutic/taskdesk/cmd/taskctl/root"

func main() {
	root.Execute()
}
