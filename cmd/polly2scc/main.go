// Command polly2scc converts raw PollyXT recordings into SCC-format
// artifacts: it splits continuous recordings into fixed-duration output
// windows, extracts depolarisation calibration periods and remaps raw
// instrument channels onto the SCC channel layout.
package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("polly2scc: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "calibration":
		err = runCalibration(os.Args[2:])
	case "locations":
		err = runLocations(os.Args[2:])
	case "qc":
		err = runQC(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: polly2scc <command> [flags]

Commands:
  convert     convert raw PollyXT files into SCC artifacts
  calibration list depolarisation calibration activity in raw files
  locations   list or show station configurations
  qc          render quick-look diagnostics for raw files

Run 'polly2scc <command> -h' for command flags.
`)
}
