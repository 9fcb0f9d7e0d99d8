package main

import (
	"github.com/AchAffand/SuratJalan-sub001/cmd"
)

func main() {
	cmd.Execute()
}
