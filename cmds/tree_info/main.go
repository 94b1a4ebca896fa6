package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/voxtree/tree-dist/disttree"
)

func main() {
	var numKeys int
	flag.IntVar(&numKeys, "keys", 0, "number of leading keys to print")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tree_info [flags] <input.bin>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := args[0]

	log.Println("Loading tree...")
	tree, err := disttree.Load(inputPath, disttree.ReadTree)
	essentials.Must(err)

	fmt.Println(tree.Stats)
	summary, err := json.MarshalIndent(tree.Summary(), "", "  ")
	essentials.Must(err)
	fmt.Println(string(summary))

	if numKeys > len(tree.Keys) {
		numKeys = len(tree.Keys)
	}
	for _, k := range tree.Keys[:numKeys] {
		fmt.Println(k)
	}
}
