package main

import crudr "github.com/crudr/crudr/cmd/crudr"

func main() {
	crudr.Main()
}
