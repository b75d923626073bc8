package main

import (
	"fmt"
	"os"
)

func main() {
	root, closeApp := newRootCmd()
	err := root.Execute()
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
