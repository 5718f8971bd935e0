package main

import "teralink/cmd"

func main() {
	cmd.Execute()
}
