package main

import "medicamentos-etl/cmd"

func main() {
	cmd.Execute()
}
